package repository

import (
	"context"
	"langquiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// AttemptedQuestionIDs 返回 questionIDs 中用户已答对的题目（去重）
func (r *AttemptRepository) AttemptedQuestionIDs(ctx context.Context, userID uint, questionIDs []uint) ([]uint, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.AttemptRecord{}).
		Distinct("question_id").
		Where("user_id = ? AND question_id IN ?", userID, questionIDs).
		Pluck("question_id", &ids).Error
	return ids, err
}

// BulkCreate 分批插入记录，已存在的记录跳过
func (r *AttemptRepository) BulkCreate(ctx context.Context, records []model.AttemptRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&records, 100).Error
}

func (r *AttemptRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.AttemptRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
