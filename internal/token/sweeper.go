package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearthapi/hearth/internal/model"
)

// SweeperStore is the persistence surface the sweeper needs. The delete is
// conditional on the cutoff so a token renewed after the sweep snapshot
// survives.
type SweeperStore interface {
	ListAccessTokens(ctx context.Context) ([]model.AccessToken, error)
	DeleteAccessTokenIfExpired(ctx context.Context, id, cutoff int64) (bool, error)
}

// Sweeper evicts expired access tokens in batch runs. Runs are idempotent
// and safe alongside request-time token reads and renewals.
type Sweeper struct {
	store  SweeperStore
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper creates a Sweeper using the real clock.
func NewSweeper(s SweeperStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: s, logger: logger, now: time.Now}
}

// NewSweeperWithClock creates a Sweeper with an injected clock for tests.
func NewSweeperWithClock(s SweeperStore, logger *slog.Logger, now func() time.Time) *Sweeper {
	sw := NewSweeper(s, logger)
	sw.now = now
	return sw
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Scanned int
	Removed int
	Failed  int
}

// Run executes one sweep with the cutoff captured once at start.
func (s *Sweeper) Run(ctx context.Context) SweepResult {
	return s.Sweep(ctx, s.now().Unix())
}

// Sweep deletes every token with expires <= now. Per-record failures are
// logged and do not abort the scan of the remaining records.
func (s *Sweeper) Sweep(ctx context.Context, now int64) SweepResult {
	var res SweepResult

	tokens, err := s.store.ListAccessTokens(ctx)
	if err != nil {
		s.logger.Error("token sweep: list failed", "error", err)
		res.Failed++
		return res
	}
	res.Scanned = len(tokens)

	for _, t := range tokens {
		if !t.ExpiredAt(now) {
			continue
		}
		deleted, err := s.store.DeleteAccessTokenIfExpired(ctx, t.ID, now)
		if err != nil {
			s.logger.Error("token sweep: delete failed",
				"token_id", t.ID, "user_id", t.UserID, "error", err)
			res.Failed++
			continue
		}
		if deleted {
			res.Removed++
		}
	}

	s.logger.Info("token sweep complete",
		"scanned", res.Scanned, "removed", res.Removed, "failed", res.Failed)
	return res
}
