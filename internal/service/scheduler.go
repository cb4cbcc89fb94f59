package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// schedulerTickInterval 调度检查周期
const schedulerTickInterval = time.Minute

// SchedulerLoop 标签云定时调度器
// 单goroutine：每分钟读取一次持久化的next_run_time，到点即触发获取。
// 任何一次获取失败只记日志，循环本身不退出。
type SchedulerLoop struct {
	tagCloud *TagCloudService
	schedule *ScheduleService
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewSchedulerLoop 创建调度器
func NewSchedulerLoop(tagCloud *TagCloudService, schedule *ScheduleService, logger *zap.Logger) *SchedulerLoop {
	return &SchedulerLoop{
		tagCloud: tagCloud,
		schedule: schedule,
		logger:   logger,
	}
}

// Start 启动调度循环（重复调用只告警不重启）
func (s *SchedulerLoop) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.logger.Warn("Scheduler already started, ignoring")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(runCtx)
	s.logger.Info("Scheduler started", zap.Duration("tick", schedulerTickInterval))
}

// Stop 停止调度循环，等待进行中的一次获取自然结束
func (s *SchedulerLoop) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.started = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("Scheduler stopped")
}

// Running 调度循环是否在运行
func (s *SchedulerLoop) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerLoop) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(schedulerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick 单次检查。所有错误就地消化，循环不中断。
func (s *SchedulerLoop) tick(ctx context.Context, now time.Time) {
	cfg, err := s.schedule.Get(ctx)
	if err != nil {
		s.logger.Error("Scheduler failed to load schedule config", zap.Error(err))
		return
	}

	if now.Before(cfg.NextRunTime) {
		return
	}

	s.logger.Info("Scheduled tag fetch due",
		zap.Time("next_run_time", cfg.NextRunTime),
		zap.Time("now", now),
	)

	// Stop只取消tick循环本身；已经开始的获取用脱离取消的context跑完，
	// Stop会等tick返回，不会把进行中的AI调用拦腰掐断
	runCtx := context.WithoutCancel(ctx)

	if _, err := s.tagCloud.RunScheduled(runCtx); err != nil {
		if errors.Is(err, ErrFetchInProgress) {
			// 手动触发的获取还在跑，本轮让路，下一分钟再查
			s.logger.Warn("Scheduled fetch skipped: another run in progress")
			return
		}
		s.logger.Error("Scheduled tag fetch failed", zap.Error(err))
	}

	// 无论成败都推进next_run_time，避免失败后每分钟重试
	next, err := s.schedule.AdvanceNextRun(runCtx, now)
	if err != nil {
		s.logger.Error("Failed to advance next run time", zap.Error(err))
		return
	}
	s.logger.Info("Next scheduled fetch", zap.Time("next_run_time", next))
}
