package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Runner performs one full tracker pass
type Runner interface {
	Run(ctx context.Context) error
}

// Service handles scheduling of tracker runs
type Service struct {
	config *config.Config
	runner Runner
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewService creates a new scheduler service. A run still in progress when the
// next one is due is not overlapped; the later run is skipped.
func NewService(cfg *config.Config, runner Runner) *Service {
	return &Service{
		config: cfg,
		runner: runner,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logrus.StandardLogger()))),
		),
	}
}

// Expression resolves the configured schedule; "daily" and "weekly" are shorthands
func Expression(schedule string) string {
	switch schedule {
	case "", "daily":
		// Run daily at 9 AM UTC
		return "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		return "0 0 9 * * MON"
	default:
		return schedule
	}
}

// Start begins the scheduled runs. Each run gets a context that is cancelled by Stop.
func (s *Service) Start(ctx context.Context) error {
	expr := Expression(s.config.Schedule)
	runCtx, cancel := context.WithCancel(ctx)

	_, err := s.cron.AddFunc(expr, func() {
		logrus.Info("Starting scheduled tracker run")
		start := time.Now()
		if err := s.runner.Run(runCtx); err != nil {
			logrus.Errorf("Scheduled tracker run failed: %v", err)
			return
		}
		logrus.Infof("Scheduled tracker run finished in %v", time.Since(start))
	})
	if err != nil {
		cancel()
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	s.cancel = cancel
	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", expr)
	return nil
}

// Next returns when the next run is due, or the zero time if nothing is scheduled
func (s *Service) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler and waits for a running pass to return
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	logrus.Info("Scheduler stopped")
}
