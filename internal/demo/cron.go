package demo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	errCronStopped = errors.New("cron scheduler is not running")
	errWarmingUp   = errors.New("services are still starting")
)

// CronService runs jobs on cron schedules for as long as its scope is up.
type CronService struct {
	cron   *cron.Cron
	logger *slog.Logger
	runs   atomic.Int64

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Job is a scheduled function. Its context is cancelled when the service
// stops.
type Job func(ctx context.Context) error

func NewCronService(logger *slog.Logger) *CronService {
	return &CronService{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger)),
		),
		logger: logger,
	}
}

// Schedule adds job under spec, a six-field cron expression or a descriptor
// such as "@every 5s".
func (s *CronService) Schedule(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		running, ctx := s.running, s.ctx
		s.mu.Unlock()
		if !running {
			return
		}

		start := time.Now()
		err := job(ctx)
		s.runs.Add(1)
		if err != nil {
			s.logger.Warn("cron job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("cron job finished", "job", name, "duration", time.Since(start))
	})
	return err
}

// Runs reports how many job executions have finished.
func (s *CronService) Runs() int64 {
	return s.runs.Load()
}

func (s *CronService) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs, bounded by ctx.
func (s *CronService) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CronService) HealthCheck(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return errCronStopped
	}
	return nil
}
