package jobs

import (
	"context"
	"time"
)

// MemoryQueue 在进程内保存任务，用于测试
type MemoryQueue struct {
	ch      chan Job
	timeout time.Duration
}

func NewMemoryQueue(size int, blockTimeout time.Duration) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Job, size), timeout: blockTimeout}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	var timeout <-chan time.Time
	if q.timeout > 0 {
		t := time.NewTimer(q.timeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case job := <-q.ch:
		return job, nil
	case <-timeout:
		return Job{}, ErrNoJob
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(ctx context.Context, job Job) error {
	return nil
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
