// Package limiter implements fixed-window admission control keyed by
// caller identity. A consuming take always charges its cost to the
// window, whether or not the request is admitted; a zero-cost take is a
// read-only peek that recomputes the same decision for response-header
// reporting.
package limiter

import (
	"context"
	"time"
)

// Default admission policy: 60 requests per minute per identity.
const (
	DefaultLimit  = 60
	DefaultWindow = time.Minute
)

// RetryAfterLayout is the wire format of the X-RateLimit-RetryAfter
// header.
const RetryAfterLayout = "2006-01-02 15:04:05"

// Config is the admission policy shared by all identities.
type Config struct {
	Limit  int           // consuming takes admitted per window
	Window time.Duration // window length
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Decision is the outcome of one take against the ledger.
type Decision struct {
	Accepted   bool
	Limit      int
	Remaining  int
	RetryAfter time.Time // instant the current window rolls over
}

// Ledger tracks per-identity consumption. Take charges cost units
// (0 for a peek) and returns the resulting decision. Implementations must
// make the charge atomic per identity so concurrent callers never lose
// updates.
type Ledger interface {
	Take(ctx context.Context, identity string, cost int) (Decision, error)
}

// decide derives a Decision from a window counter after a take.
func decide(cfg Config, count int64, windowStart time.Time) Decision {
	remaining := cfg.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Accepted:   count <= int64(cfg.Limit),
		Limit:      cfg.Limit,
		Remaining:  remaining,
		RetryAfter: windowStart.Add(cfg.Window),
	}
}
