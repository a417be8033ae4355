package service

import (
	"context"
	"fmt"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
)

type AnswerInput struct {
	Text    string
	Correct bool
}

type QuestionInput struct {
	Text      string
	Published bool
	Answers   []AnswerInput
}

type CategoryInput struct {
	Name      string
	Published bool
	Questions []QuestionInput
}

type ImportResult struct {
	Category *model.TestCategory
	Created  int
	Skipped  int
}

// CatalogService 维护测试分类及其题目
type CatalogService struct {
	Categories CategoryStore
	Questions  QuestionStore
	Answers    AnswerStore
}

func NewCatalogService(categories CategoryStore, questions QuestionStore, answers AnswerStore) *CatalogService {
	return &CatalogService{
		Categories: categories,
		Questions:  questions,
		Answers:    answers,
	}
}

// ValidateQuestion 校验题目的答案：已发布题目必须恰好有四个不同答案且只有一个正确；
// 草稿可以少于四个，但不能超过四个，正确答案也不能多于一个
func ValidateQuestion(q QuestionInput) error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return fmt.Errorf("%w: empty question text", util.ErrInvalidCatalog)
	}

	seen := make(map[string]struct{}, len(q.Answers))
	correct := 0
	for _, a := range q.Answers {
		at := strings.TrimSpace(a.Text)
		if at == "" {
			return fmt.Errorf("%w: question %q has an empty answer", util.ErrInvalidCatalog, text)
		}
		if _, dup := seen[at]; dup {
			return fmt.Errorf("%w: question %q repeats answer %q", util.ErrInvalidCatalog, text, at)
		}
		seen[at] = struct{}{}
		if a.Correct {
			correct++
		}
	}

	if len(q.Answers) > model.AnswersPerQuestion {
		return fmt.Errorf("%w: question %q has %d answers, at most %d allowed",
			util.ErrInvalidCatalog, text, len(q.Answers), model.AnswersPerQuestion)
	}
	if correct > 1 {
		return fmt.Errorf("%w: question %q has %d correct answers", util.ErrInvalidCatalog, text, correct)
	}
	if q.Published {
		if len(q.Answers) != model.AnswersPerQuestion {
			return fmt.Errorf("%w: published question %q must have %d answers",
				util.ErrInvalidCatalog, text, model.AnswersPerQuestion)
		}
		if correct != 1 {
			return fmt.Errorf("%w: published question %q must have one correct answer", util.ErrInvalidCatalog, text)
		}
	}
	return nil
}

// ImportCategory 创建或更新分类并添加题目，题干已存在的题目跳过。
// 任一题目校验失败时不写入任何数据
func (s *CatalogService) ImportCategory(ctx context.Context, in CategoryInput) (*ImportResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty category name", util.ErrInvalidCatalog)
	}
	for _, q := range in.Questions {
		if err := ValidateQuestion(q); err != nil {
			return nil, err
		}
	}

	category, err := s.Categories.Upsert(ctx, name, in.Published)
	if err != nil {
		return nil, fmt.Errorf("upsert category %q: %w", name, err)
	}
	result := &ImportResult{Category: category}

	for _, q := range in.Questions {
		text := strings.TrimSpace(q.Text)
		exists, err := s.Questions.ExistsByText(ctx, text)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		links := make([]model.QuestionAnswer, 0, len(q.Answers))
		for _, a := range q.Answers {
			answer, err := s.Answers.FirstOrCreate(ctx, strings.TrimSpace(a.Text))
			if err != nil {
				return nil, fmt.Errorf("answer %q: %w", a.Text, err)
			}
			links = append(links, model.QuestionAnswer{
				AnswerID:      answer.ID,
				IsRightAnswer: a.Correct,
			})
		}

		categoryID := category.ID
		question := &model.Question{
			Text:        text,
			IsPublished: q.Published,
			CategoryID:  &categoryID,
		}
		if err := s.Questions.CreateWithAnswers(ctx, question, links); err != nil {
			return nil, fmt.Errorf("create question %q: %w", text, err)
		}
		result.Created++
	}

	logger.Log.Info("Category imported",
		zap.String("category", category.Name),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
