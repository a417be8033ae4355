package service

import (
	"context"
	"langquiz_backend/internal/model"
	"time"
)

// 服务层使用的存储接口，由 gorm 仓储实现，测试中使用内存版本

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	DeleteExpiredInactive(ctx context.Context, joinedBefore time.Time) (int64, error)
}

type ActivationTokenStore interface {
	Issue(ctx context.Context, userID uint) (*model.ActivationToken, error)
	FindWithUser(ctx context.Context, token string) (*model.ActivationToken, error)
	Consume(ctx context.Context, token string, userID uint) error
}

type CategoryStore interface {
	ListPublished(ctx context.Context) ([]model.TestCategory, error)
	FindPublished(ctx context.Context, id uint) (*model.TestCategory, error)
	Upsert(ctx context.Context, name string, published bool) (*model.TestCategory, error)
}

type QuestionStore interface {
	EligibleIDs(ctx context.Context, categoryID uint) ([]uint, error)
	FindWithAnswers(ctx context.Context, ids []uint) ([]model.Question, error)
	AnswerRows(ctx context.Context, questionIDs []uint) ([]model.QuestionAnswer, error)
	ExistsByText(ctx context.Context, text string) (bool, error)
	CreateWithAnswers(ctx context.Context, question *model.Question, links []model.QuestionAnswer) error
}

type AnswerStore interface {
	FirstOrCreate(ctx context.Context, text string) (*model.Answer, error)
}

type AttemptStore interface {
	AttemptedQuestionIDs(ctx context.Context, userID uint, questionIDs []uint) ([]uint, error)
	BulkCreate(ctx context.Context, records []model.AttemptRecord) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

// SessionStore 注销已签发的 JWT，直到其过期
type SessionStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	RevokeAll(ctx context.Context, userID uint, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ResetTokenStore 保存一次性密码重置令牌
type ResetTokenStore interface {
	Create(ctx context.Context, userID uint, ttl time.Duration) (string, error)
	Consume(ctx context.Context, token string) (uint, error)
}
