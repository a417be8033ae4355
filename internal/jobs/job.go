package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// worker 处理的任务名称
const (
	SendActivationEmail       = "accounts.send_activation_email"
	DeactivateUser            = "accounts.deactivate_user"
	DeleteDeactivatedAccounts = "accounts.delete_deactivated_accounts"
	SendPasswordResetEmail    = "accounts.send_password_reset_email"
)

// ErrNoJob 表示阻塞超时内没有任务到达
var ErrNoJob = errors.New("no job available")

// ErrNotEnqueued 表示事务已提交，但后续任务未能入队
var ErrNotEnqueued = errors.New("committed without enqueueing jobs")

type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Args       json.RawMessage `json:"args"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	// raw 为队列中存储的原始内容，用于确认
	raw string
}

func New(name string, args interface{}) (Job, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s args: %w", name, err)
	}
	return Job{
		ID:         uuid.New().String(),
		Name:       name,
		Args:       payload,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

func (j Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Args, v); err != nil {
		return fmt.Errorf("decode %s args: %w", j.Name, err)
	}
	return nil
}

// Queue 提供至少一次的任务投递，出队的任务在确认前保持占用
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
	Ack(ctx context.Context, job Job) error
}

// 账户相关任务的参数

type ActivationEmailArgs struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	Site       string `json:"site"`
	Reactivate bool   `json:"reactivate"`
}

type DeactivateUserArgs struct {
	UserID uint `json:"user_id"`
}

type PasswordResetEmailArgs struct {
	UserID uint   `json:"user_id"`
	Site   string `json:"site"`
}
