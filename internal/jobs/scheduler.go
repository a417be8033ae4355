package jobs

import (
	"context"
	"langquiz_backend/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 按 cron 表达式定时投递任务
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *Dispatcher
}

func NewScheduler(dispatcher *Dispatcher) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
	}
}

// Every registers name to be enqueued on spec ("@hourly", "*/5 * * * *", ...).
func (s *Scheduler) Every(spec, name string, args interface{}) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.dispatcher.Enqueue(context.Background(), name, args); err != nil {
			logger.Log.Error("Failed to enqueue scheduled job", zap.String("job", name), zap.Error(err))
			return
		}
		logger.Log.Debug("Scheduled job enqueued", zap.String("job", name))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 等待正在执行的投递返回
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
