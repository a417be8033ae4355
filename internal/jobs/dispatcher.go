package jobs

import (
	"context"
	"fmt"
)

// Dispatcher 替请求处理函数投递后台任务
type Dispatcher struct {
	Queue Queue
}

func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{Queue: queue}
}

func (d *Dispatcher) Enqueue(ctx context.Context, name string, args interface{}) error {
	job, err := New(name, args)
	if err != nil {
		return err
	}
	if err := d.Queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}
	return nil
}

// AfterCommit 先执行 tx（由其自行提交事务），仅在 tx 成功后才投递 next 构建的任务，
// 回滚的请求不会留下任务。提交之后发生的失败会包装 ErrNotEnqueued，调用方据此判断 tx 已生效
func (d *Dispatcher) AfterCommit(ctx context.Context, tx func() error, next func() ([]Job, error)) error {
	if err := tx(); err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	jobs, err := next()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotEnqueued, err)
	}
	for _, job := range jobs {
		if err := d.Queue.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue %s: %w: %w", job.Name, ErrNotEnqueued, err)
		}
	}
	return nil
}
