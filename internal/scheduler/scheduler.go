// Package scheduler hosts the recurring background jobs, currently only
// the access-token expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthapi/hearth/internal/token"
)

// SweepJobName identifies the token expiry sweep in logs and config.
const SweepJobName = "expire-accesstokens"

// DefaultSweepInterval is how often the sweep runs unless configured
// otherwise.
const DefaultSweepInterval = 4 * time.Hour

// Sweeper is the one job the scheduler runs.
type Sweeper interface {
	Run(ctx context.Context) token.SweepResult
}

// Scheduler wraps a cron runner around the sweep job. It is decoupled
// from the request path; jobs run on their own goroutines.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a Scheduler with the sweep registered at the given
// interval. A non-positive interval falls back to DefaultSweepInterval.
func New(sweeper Sweeper, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, func() {
		logger.Info("scheduled job starting", "job", SweepJobName)
		res := sweeper.Run(context.Background())
		logger.Info("scheduled job finished", "job", SweepJobName,
			"scanned", res.Scanned, "removed", res.Removed, "failed", res.Failed)
	}); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", SweepJobName, err)
	}

	logger.Info("job scheduled", "job", SweepJobName, "interval", interval.String())
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
