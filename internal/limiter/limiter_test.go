package limiter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestMemoryLedgerAdmitsUpToLimit(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 30, 0, time.UTC)
	l := NewMemoryLedgerWithClock(Config{Limit: 3, Window: time.Minute}, fixedClock(base))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Take(ctx, "caller", 1)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if !d.Accepted {
			t.Fatalf("request %d rejected within the limit", i+1)
		}
		if d.Remaining != 3-(i+1) {
			t.Errorf("request %d: got remaining %d, want %d", i+1, d.Remaining, 3-(i+1))
		}
	}

	d, _ := l.Take(ctx, "caller", 1)
	if d.Accepted {
		t.Error("request over the limit admitted")
	}
	if d.Remaining != 0 {
		t.Errorf("got remaining %d, want 0", d.Remaining)
	}
	if d.Limit != 3 {
		t.Errorf("got limit %d, want 3", d.Limit)
	}
	wantRetry := base.Truncate(time.Minute).Add(time.Minute)
	if !d.RetryAfter.Equal(wantRetry) {
		t.Errorf("got retry after %v, want %v", d.RetryAfter, wantRetry)
	}
}

func TestMemoryLedgerZeroCostPeek(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLedgerWithClock(Config{Limit: 5, Window: time.Minute}, fixedClock(base))
	ctx := context.Background()

	if _, err := l.Take(ctx, "caller", 1); err != nil {
		t.Fatalf("Take: %v", err)
	}

	// A peek reports the same state and charges nothing.
	peek, err := l.Take(ctx, "caller", 0)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if peek.Remaining != 4 {
		t.Errorf("peek got remaining %d, want 4", peek.Remaining)
	}
	again, _ := l.Take(ctx, "caller", 0)
	if again.Remaining != 4 {
		t.Errorf("repeated peek got remaining %d, want 4", again.Remaining)
	}
}

func TestMemoryLedgerIsolatesIdentities(t *testing.T) {
	l := NewMemoryLedger(Config{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	if d, _ := l.Take(ctx, "a", 1); !d.Accepted {
		t.Fatal("first take for a rejected")
	}
	if d, _ := l.Take(ctx, "a", 1); d.Accepted {
		t.Error("a exceeded its limit but was admitted")
	}
	if d, _ := l.Take(ctx, "b", 1); !d.Accepted {
		t.Error("b was penalized for a's consumption")
	}
}

func TestMemoryLedgerWindowRollover(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 59, 0, time.UTC)
	now := base
	l := NewMemoryLedgerWithClock(Config{Limit: 1, Window: time.Minute}, func() time.Time { return now })
	ctx := context.Background()

	l.Take(ctx, "caller", 1)
	if d, _ := l.Take(ctx, "caller", 1); d.Accepted {
		t.Fatal("second take in the window admitted")
	}

	// One second later a fresh window starts.
	now = base.Add(time.Second)
	d, _ := l.Take(ctx, "caller", 1)
	if !d.Accepted {
		t.Error("take after rollover rejected")
	}
	if d.Remaining != 0 {
		t.Errorf("got remaining %d, want 0", d.Remaining)
	}
}

func TestMemoryLedgerConcurrentTakes(t *testing.T) {
	l := NewMemoryLedger(Config{Limit: 1000, Window: time.Hour})
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Take(ctx, "caller", 1)
		}()
	}
	wg.Wait()

	d, _ := l.Take(ctx, "caller", 0)
	if d.Remaining != 1000-n {
		t.Errorf("got remaining %d, want %d; charges were lost", d.Remaining, 1000-n)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Limit != DefaultLimit {
		t.Errorf("got limit %d, want %d", cfg.Limit, DefaultLimit)
	}
	if cfg.Window != DefaultWindow {
		t.Errorf("got window %v, want %v", cfg.Window, DefaultWindow)
	}

	cfg = Config{Limit: 10, Window: time.Second}.withDefaults()
	if cfg.Limit != 10 || cfg.Window != time.Second {
		t.Errorf("explicit config overwritten: %+v", cfg)
	}
}
