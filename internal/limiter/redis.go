package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript charges the cost and stamps the window key's TTL in one
// atomic step. A zero cost still touches the key so a pure peek sees the
// same counter a prior consuming take wrote.
const takeScript = `
local count = redis.call("INCRBY", KEYS[1], ARGV[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return count
`

// RedisLedger is a Ledger backed by Redis, sharing the window counters
// across processes. Keys are stamped with the window start so rollover
// needs no server-side clock agreement beyond the caller's.
type RedisLedger struct {
	client *redis.Client
	cfg    Config
	script *redis.Script
	now    func() time.Time
}

// NewRedisLedger creates a RedisLedger on an existing client.
func NewRedisLedger(client *redis.Client, cfg Config) *RedisLedger {
	return &RedisLedger{
		client: client,
		cfg:    cfg.withDefaults(),
		script: redis.NewScript(takeScript),
		now:    time.Now,
	}
}

// NewRedisLedgerWithClock creates a RedisLedger with an injected clock.
func NewRedisLedgerWithClock(client *redis.Client, cfg Config, now func() time.Time) *RedisLedger {
	l := NewRedisLedger(client, cfg)
	l.now = now
	return l
}

// Take implements Ledger.
func (l *RedisLedger) Take(ctx context.Context, identity string, cost int) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.cfg.Window)
	key := fmt.Sprintf("hearth:ratelimit:%s:%d", identity, start.Unix())

	// Keep the key around for two windows so a peek straggling past
	// rollover still resolves.
	ttl := l.cfg.Window * 2

	count, err := l.script.Run(ctx, l.client, []string{key},
		cost, ttl.Milliseconds()).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit take: %w", err)
	}

	return decide(l.cfg, count, start), nil
}
