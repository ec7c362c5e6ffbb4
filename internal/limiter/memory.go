package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is an in-process Ledger for tests and single-instance
// deployments without Redis. State does not survive restarts.
type MemoryLedger struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int64
}

// NewMemoryLedger creates a MemoryLedger using the real clock.
func NewMemoryLedger(cfg Config) *MemoryLedger {
	return &MemoryLedger{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// NewMemoryLedgerWithClock creates a MemoryLedger with an injected clock.
func NewMemoryLedgerWithClock(cfg Config, now func() time.Time) *MemoryLedger {
	l := NewMemoryLedger(cfg)
	l.now = now
	return l
}

// Take implements Ledger. The whole read-modify-write runs under one lock,
// so charges for the same identity are never lost.
func (l *MemoryLedger) Take(_ context.Context, identity string, cost int) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identity]
	if !ok || w.start.Before(start) {
		w = &window{start: start}
		l.windows[identity] = w
	}
	w.count += int64(cost)

	return decide(l.cfg, w.count, w.start), nil
}
