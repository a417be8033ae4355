package service

import (
	"context"
	"errors"
	"fmt"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"langquiz_backend/pkg/monitoring"
	"langquiz_backend/pkg/tracing"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultQuestionsPerTest = 10

// LanguageQuestion 生成的测试中的一道题
type LanguageQuestion struct {
	QuestionID uint            `json:"question_id"`
	Question   []string        `json:"question"`
	Answers    map[uint]string `json:"answers"`
}

type QuizService struct {
	Categories CategoryStore
	Questions  QuestionStore
	Attempts   AttemptStore
	Sampler    Sampler
	// QuestionsPerTest 是每次测试的题目数，由调用方传给 SelectQuestions
	QuestionsPerTest int
}

func NewQuizService(categories CategoryStore, questions QuestionStore, attempts AttemptStore, sampler Sampler, perTest int) *QuizService {
	if perTest <= 0 {
		perTest = DefaultQuestionsPerTest
	}
	return &QuizService{
		Categories:       categories,
		Questions:        questions,
		Attempts:         attempts,
		Sampler:          sampler,
		QuestionsPerTest: perTest,
	}
}

func (s *QuizService) ListCategories(ctx context.Context) ([]model.TestCategory, error) {
	return s.Categories.ListPublished(ctx)
}

func (s *QuizService) GetPublishedCategory(ctx context.Context, id uint) (*model.TestCategory, error) {
	category, err := s.Categories.FindPublished(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// SelectQuestions 从分类的已发布题目中组卷。
//
// 匿名用户随机抽题。登录用户在未答对的题目足够时，按 id 顺序取前 limit 道；
// 不够时从整个分类随机抽题，可能出现已答过的题。
// 最多返回 limit 道题，limit 不为正数时返回空列表
func (s *QuizService) SelectQuestions(ctx context.Context, categoryID uint, userID *uint, limit int) ([]LanguageQuestion, error) {
	ctx, span := tracing.Tracer().Start(ctx, "QuizService.SelectQuestions")
	defer span.End()

	if limit <= 0 {
		return []LanguageQuestion{}, nil
	}

	eligible, err := s.Questions.EligibleIDs(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	mode := "random"
	var ids []uint
	if userID == nil {
		ids = s.Sampler.Sample(eligible, limit)
	} else {
		attempted, err := s.Attempts.AttemptedQuestionIDs(ctx, *userID, eligible)
		if err != nil {
			return nil, err
		}
		if len(eligible)-len(attempted) >= limit {
			mode = "fresh"
			ids = firstNotIn(eligible, attempted, limit)
		} else {
			ids = s.Sampler.Sample(eligible, limit)
		}
	}

	span.SetAttributes(
		attribute.Int("quiz.category_id", int(categoryID)),
		attribute.Int("quiz.eligible", len(eligible)),
		attribute.String("quiz.mode", mode),
	)

	questions, err := s.Questions.FindWithAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	result := make([]LanguageQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		answers := make(map[uint]string, len(q.Answers))
		for _, qa := range q.Answers {
			answers[qa.AnswerID] = qa.Answer.Text
		}
		result = append(result, LanguageQuestion{
			QuestionID: q.ID,
			Question:   strings.Fields(q.Text),
			Answers:    answers,
		})
	}

	monitoring.QuestionsServed.WithLabelValues(mode).Add(float64(len(result)))
	logger.Log.Debug("Questions selected",
		zap.Uint("category", categoryID),
		zap.String("mode", mode),
		zap.Int("count", len(result)),
	)
	return result, nil
}

// firstNotIn 按顺序返回 ids 中不在 exclude 里的前 n 个元素
func firstNotIn(ids, exclude []uint, n int) []uint {
	skip := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]uint, 0, n)
	for _, id := range ids {
		if len(out) == n {
			break
		}
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// ParseSubmission 解析评分请求：键为题目 id，值为答案 id，空值表示未作答
func ParseSubmission(raw map[string]string) (map[uint]uint, error) {
	parsed := make(map[uint]uint, len(raw))
	for k, v := range raw {
		qid, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: question id %q", util.ErrMalformedInput, k)
		}
		var aid uint64
		if v != "" {
			aid, err = strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: answer id %q", util.ErrMalformedInput, v)
			}
		}
		parsed[uint(qid)] = uint(aid)
	}
	return parsed, nil
}

// Score 返回每道提交题目的正确答案 id。登录用户答对的题目一次性批量写入答题记录。
// 题库中不存在的题目不出现在结果中
func (s *QuizService) Score(ctx context.Context, raw map[string]string, userID *uint) (map[uint]uint, error) {
	ctx, span := tracing.Tracer().Start(ctx, "QuizService.Score")
	defer span.End()

	submission, err := ParseSubmission(raw)
	if err != nil {
		return nil, err
	}
	result := make(map[uint]uint, len(submission))
	if len(submission) == 0 {
		return result, nil
	}

	qids := make([]uint, 0, len(submission))
	for qid := range submission {
		qids = append(qids, qid)
	}

	rows, err := s.Questions.AnswerRows(ctx, qids)
	if err != nil {
		return nil, err
	}

	var records []model.AttemptRecord
	for _, row := range rows {
		if !row.IsRightAnswer {
			continue
		}
		result[row.QuestionID] = row.AnswerID

		chosen := submission[row.QuestionID]
		switch {
		case chosen == 0:
			monitoring.AnswersScored.WithLabelValues("unanswered").Inc()
		case chosen == row.AnswerID:
			monitoring.AnswersScored.WithLabelValues("correct").Inc()
			if userID != nil {
				records = append(records, model.AttemptRecord{
					UserID:     *userID,
					QuestionID: row.QuestionID,
					AnswerID:   row.AnswerID,
				})
			}
		default:
			monitoring.AnswersScored.WithLabelValues("wrong").Inc()
		}
	}

	span.SetAttributes(
		attribute.Int("quiz.submitted", len(submission)),
		attribute.Int("quiz.recorded", len(records)),
	)

	if err := s.Attempts.BulkCreate(ctx, records); err != nil {
		return nil, err
	}
	return result, nil
}
