// 文件路径: internal/job/scheduler.go
// 模块说明: 这是 internal 模块里的 scheduler 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task 表示由调度器周期触发的后台任务。
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler 封装 cron，并提供日志与优雅停机。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
}

const defaultTaskTimeout = 2 * time.Minute

// NewScheduler 构建支持秒级表达式与 @every 描述的调度器。
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		logger:  logger,
		timeout: defaultTaskTimeout,
	}
}

// Register 绑定 cron 表达式与任务。
func (s *Scheduler) Register(spec string, task Task) (cron.EntryID, error) {
	if task == nil {
		return 0, fmt.Errorf("scheduler: task is required / 任务不能为空")
	}
	if spec == "" {
		return 0, fmt.Errorf("scheduler: spec is required / spec 不能为空")
	}
	entryID, err := s.cron.AddFunc(spec, s.wrap(task))
	if err != nil {
		return 0, err
	}
	s.logger.Info("task registered", "task", task.Name(), "spec", spec)
	return entryID, nil
}

// Start 启动调度器并开始执行任务。
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.cron.Start()
	s.started = true
	s.mu.Unlock()
}

// Stop 停止调度器并等待执行中的任务结束。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// wrap 包装任务，提供超时与统一日志。
func (s *Scheduler) wrap(task Task) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := task.Run(ctx); err != nil {
			s.logger.Error("task failed", "task", task.Name(), "error", err, "elapsed", time.Since(start))
			return
		}
		s.logger.Debug("task completed", "task", task.Name(), "elapsed", time.Since(start))
	}
}
