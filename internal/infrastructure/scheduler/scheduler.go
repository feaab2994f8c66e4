// Package scheduler runs periodic maintenance jobs on gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs named interval jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a scheduler in UTC that logs through logger.
func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// AddIntervalJob runs job every interval. Overlapping runs are skipped.
func (s *Scheduler) AddIntervalJob(ctx context.Context, name string, interval time.Duration, job func(context.Context)) error {
	if name == "" {
		return errors.New("empty job name")
	}
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	if job == nil {
		return errors.New("nil job function")
	}

	const slowThreshold = 5 * time.Second
	wrapped := func() {
		start := time.Now()
		job(ctx)
		if d := time.Since(start); d > slowThreshold {
			s.logger.Warn("slow scheduled job execution",
				"job_name", name,
				"duration_ms", d.Milliseconds())
		}
	}

	scheduled, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(wrapped),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	logAttrs := []any{"job_name", name, "interval", interval.String()}
	if nextRun, err := scheduled.NextRun(); err == nil {
		logAttrs = append(logAttrs, "next_run", nextRun.Format(time.RFC3339))
	}
	s.logger.Info("job scheduled", logAttrs...)
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.scheduler.Start()
	<-ctx.Done()
	return s.Stop()
}

// Stop shuts down the scheduler.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil && !errors.Is(err, gocron.ErrStopSchedulerTimedOut) {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

type gocronLogAdapter struct {
	logger *slog.Logger
}

func (l *gocronLogAdapter) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *gocronLogAdapter) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *gocronLogAdapter) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *gocronLogAdapter) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
