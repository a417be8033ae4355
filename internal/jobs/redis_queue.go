package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"langquiz_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisQueue 用 Redis 列表保存任务。出队时任务被原子地移入处理中列表，Ack 时移除；
// 崩溃的 worker 未确认的任务可由 Requeue 放回队列
type RedisQueue struct {
	Redis        *redis.Client
	Key          string
	BlockTimeout time.Duration
}

func NewRedisQueue(rdb *redis.Client, key string, blockTimeout time.Duration) *RedisQueue {
	return &RedisQueue{Redis: rdb, Key: key, BlockTimeout: blockTimeout}
}

func (q *RedisQueue) processingKey() string {
	return q.Key + ":processing"
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Redis.LPush(ctx, q.Key, payload).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	raw, err := q.Redis.BRPopLPush(ctx, q.Key, q.processingKey(), q.BlockTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNoJob
	}
	if err != nil {
		return Job{}, err
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// 无法解析的任务直接丢弃
		if remErr := q.Redis.LRem(ctx, q.processingKey(), 1, raw).Err(); remErr != nil {
			logger.Log.Warn("Failed to drop undecodable job", zap.Error(remErr))
		}
		return Job{}, fmt.Errorf("decode job payload: %w", err)
	}
	job.raw = raw
	return job, nil
}

func (q *RedisQueue) Ack(ctx context.Context, job Job) error {
	if job.raw == "" {
		return nil
	}
	return q.Redis.LRem(ctx, q.processingKey(), 1, job.raw).Err()
}

// Requeue 将处理中列表里残留的任务移回队列
func (q *RedisQueue) Requeue(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.Redis.RPopLPush(ctx, q.processingKey(), q.Key).Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.Redis.LLen(ctx, q.Key).Result()
}
