package repository

import (
	"context"
	"langquiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// EligibleIDs 按 id 顺序列出分类下已发布的题目
func (r *QuestionRepository) EligibleIDs(ctx context.Context, categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Where("category_id = ? AND is_published = ?", categoryID, true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) FindWithAnswers(ctx context.Context, ids []uint) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_id")
		}).
		Preload("Answers.Answer").
		Where("id IN ?", ids).
		Find(&questions).Error
	return questions, err
}

// AnswerRows 返回指定题目的全部答案关联
func (r *QuestionRepository) AnswerRows(ctx context.Context, questionIDs []uint) ([]model.QuestionAnswer, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var rows []model.QuestionAnswer
	err := r.DB.WithContext(ctx).
		Select("question_id", "answer_id", "is_right_answer").
		Where("question_id IN ?", questionIDs).
		Find(&rows).Error
	return rows, err
}

func (r *QuestionRepository) ExistsByText(ctx context.Context, text string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Where("text = ?", text).Count(&count).Error
	return count > 0, err
}

// CreateWithAnswers 在同一事务中保存题目及其答案；草稿题目可以没有答案
func (r *QuestionRepository) CreateWithAnswers(ctx context.Context, question *model.Question, links []model.QuestionAnswer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(question).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			question.Answers = nil
			return nil
		}
		for i := range links {
			links[i].QuestionID = question.ID
		}
		if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
			return err
		}
		question.Answers = links
		return nil
	})
}

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

func (r *AnswerRepository) FirstOrCreate(ctx context.Context, text string) (*model.Answer, error) {
	answer := model.Answer{}
	err := r.DB.WithContext(ctx).Where(model.Answer{Text: text}).FirstOrCreate(&answer).Error
	return &answer, err
}
