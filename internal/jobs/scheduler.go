package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once immediately instead of waiting a full interval.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker goroutine. A job never overlaps
// with itself: the next tick is only read after the current run returns.
type Scheduler struct {
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Start launches every job. They stop when ctx is cancelled; call Wait to
// block until the last run has returned.
func (s *Scheduler) Start(ctx context.Context, jobs ...Job) {
	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			s.logger.Warn("job disabled", "event", "job_disabled", "job", job.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.logger.Info("job started", "event", "job_started", "job", job.Name, "interval", job.Interval.String())

	if job.RunOnStart {
		s.runOnce(ctx, job)
	}
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, job)
		case <-ctx.Done():
			s.logger.Info("job stopped", "event", "job_stopped", "job", job.Name)
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic in job %s: %v", job.Name, p)
			}
		}()
		return job.Run(ctx)
	}()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("job failed", "event", "job_failed", "job", job.Name, "error", err.Error())
		CaptureError(err, map[string]string{"job": job.Name})
		return
	}
	s.logger.Debug("job finished", "job", job.Name, "duration_ms", time.Since(start).Milliseconds())
}

// CaptureError reports err to Sentry with tags. It is a no-op when Sentry was
// never initialised.
func CaptureError(err error, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}
