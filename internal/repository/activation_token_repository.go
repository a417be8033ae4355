package repository

import (
	"context"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"

	"gorm.io/gorm"
)

type ActivationTokenRepository struct {
	DB *gorm.DB
}

func NewActivationTokenRepository(db *gorm.DB) *ActivationTokenRepository {
	return &ActivationTokenRepository{DB: db}
}

// Issue 用新令牌替换用户之前的令牌
func (r *ActivationTokenRepository) Issue(ctx context.Context, userID uint) (*model.ActivationToken, error) {
	token := &model.ActivationToken{UserID: userID}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.ActivationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func (r *ActivationTokenRepository) FindWithUser(ctx context.Context, token string) (*model.ActivationToken, error) {
	var t model.ActivationToken
	err := r.DB.WithContext(ctx).Preload("User").First(&t, "token = ?", token).Error
	return &t, err
}

// Consume 在同一事务中删除令牌并激活用户，已被并发请求消费的令牌返回 util.ErrTokenNotFound
func (r *ActivationTokenRepository) Consume(ctx context.Context, token string, userID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ? AND user_id = ?", token, userID).Delete(&model.ActivationToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrTokenNotFound
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).Update("is_active", true).Error
	})
}
