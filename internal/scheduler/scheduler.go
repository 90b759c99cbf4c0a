package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job performs one run. Runs never overlap.
type Job func(ctx context.Context) error

// Scheduler runs a job at the fire times of a cron expression, evaluated
// in UTC.
type Scheduler struct {
	expr      string
	schedule  cron.Schedule
	job       Job
	immediate bool
	maxSleep  time.Duration
	now       func() time.Time
	stats     Stats
	mu        sync.RWMutex
}

// Stats holds scheduler statistics
type Stats struct {
	TotalRuns   int64
	TotalErrors int64
	LastRunAt   *time.Time
	LastError   string
	NextRunAt   *time.Time
}

// NewScheduler parses a standard 5-field cron expression. When immediate is
// set the job also runs once as soon as Run starts.
func NewScheduler(expr string, job Job, immediate bool, maxSleep time.Duration) (*Scheduler, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("cron schedule is empty")
	}
	if maxSleep <= 0 {
		return nil, fmt.Errorf("max sleep must be positive, got %v", maxSleep)
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	return &Scheduler{
		expr:      expr,
		schedule:  schedule,
		job:       job,
		immediate: immediate,
		maxSleep:  maxSleep,
		now:       time.Now,
	}, nil
}

// Run blocks until ctx is done and returns its error. A failed job is logged
// and the loop continues with the next fire time.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Scheduler started", "schedule", s.expr, "immediate", s.immediate, "max_sleep", s.maxSleep)

	if s.immediate {
		s.runJob(ctx)
	}

	for {
		if err := ctx.Err(); err != nil {
			slog.Info("Scheduler stopped")
			return err
		}

		next := s.schedule.Next(s.now().UTC())
		s.mu.Lock()
		s.stats.NextRunAt = &next
		s.mu.Unlock()
		slog.Debug("Next run scheduled", "at", next)

		if err := s.sleepUntil(ctx, next); err != nil {
			slog.Info("Scheduler stopped")
			return err
		}

		s.runJob(ctx)
	}
}

// sleepUntil waits in slices of at most maxSleep so a cancelled context or
// a clock change is noticed promptly.
func (s *Scheduler) sleepUntil(ctx context.Context, next time.Time) error {
	for {
		remaining := next.Sub(s.now())
		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(min(remaining, s.maxSleep))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context) {
	startedAt := s.now().UTC()
	err := s.job(ctx)

	s.mu.Lock()
	s.stats.TotalRuns++
	s.stats.LastRunAt = &startedAt
	s.stats.LastError = ""
	if err != nil {
		s.stats.TotalErrors++
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		slog.Error("Scheduled run failed", "error", err, "duration", time.Since(startedAt))
	}
}

// GetStats returns a snapshot of the scheduler statistics
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
