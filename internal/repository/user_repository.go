package repository

import (
	"context"
	"langquiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hash).
		Error
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", at).
		Error
}

// SetActive 对不存在的用户不做任何操作
func (r *UserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active).
		Error
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.User{}, id).Error
}

// DeleteExpiredInactive 删除从未激活也从未登录的过期账户
func (r *UserRepository) DeleteExpiredInactive(ctx context.Context, joinedBefore time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("is_active = ? AND created_at < ? AND last_login IS NULL", false, joinedBefore).
		Delete(&model.User{})
	return res.RowsAffected, res.Error
}
