package jobs

import (
	"context"
	"errors"
	"fmt"
	"langquiz_backend/pkg/logger"
	"langquiz_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

type Handler func(ctx context.Context, job Job) error

// Worker 从队列拉取任务并按名称分发。失败的任务记录日志后照常确认，
// 只有崩溃的 worker 未确认的任务才会重新投递
type Worker struct {
	queue    Queue
	handlers map[string]Handler
	// 队列出错后重试前的等待时间
	backoff time.Duration
}

func NewWorker(queue Queue) *Worker {
	return &Worker{
		queue:    queue,
		handlers: make(map[string]Handler),
		backoff:  time.Second,
	}
}

func (w *Worker) Register(name string, h Handler) {
	w.handlers[name] = h
}

func (w *Worker) Handles(name string) bool {
	_, ok := w.handlers[name]
	return ok
}

// Run 持续处理任务直到 ctx 取消
func (w *Worker) Run(ctx context.Context) {
	logger.Log.Info("Job worker started", zap.Int("handlers", len(w.handlers)))
	for {
		if ctx.Err() != nil {
			logger.Log.Info("Job worker stopped")
			return
		}

		job, err := w.queue.Dequeue(ctx)
		switch {
		case err == nil:
			w.Process(ctx, job)
		case errors.Is(err, ErrNoJob):
		case ctx.Err() != nil:
		default:
			logger.Log.Error("Failed to dequeue job", zap.Error(err))
			select {
			case <-time.After(w.backoff):
			case <-ctx.Done():
			}
		}
	}
}

// Process 执行单个任务并确认
func (w *Worker) Process(ctx context.Context, job Job) error {
	err := w.dispatch(ctx, job)

	status := "succeeded"
	if err != nil {
		status = "failed"
		logger.Log.Error("Job failed",
			zap.String("job", job.Name),
			zap.String("id", job.ID),
			zap.Error(err),
		)
	} else {
		logger.Log.Debug("Job done", zap.String("job", job.Name), zap.String("id", job.ID))
	}
	monitoring.JobsProcessed.WithLabelValues(job.Name, status).Inc()

	if ackErr := w.queue.Ack(ctx, job); ackErr != nil {
		logger.Log.Error("Failed to ack job", zap.String("id", job.ID), zap.Error(ackErr))
	}
	return err
}

func (w *Worker) dispatch(ctx context.Context, job Job) (err error) {
	h, ok := w.handlers[job.Name]
	if !ok {
		return fmt.Errorf("no handler registered for job %q", job.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return h(ctx, job)
}
