// Package counterstore is a Redis implementation of counterstore.Store. The
// check-and-increment runs as a Lua script so the read, the window reset and
// the increment are one atomic operation server-side.
package counterstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cafescout/cafe-scout-api/internal/ports/out/counterstore"
)

const keyPrefix = "ratelimit:"

// checkAndIncrementScript returns {count, windowStartMillis, applied}.
// A counter whose window elapsed before now restarts at now; a counter at the
// limit is left untouched and applied is 0.
const checkAndIncrementScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local windowMs = tonumber(ARGV[2])
local nowMs = tonumber(ARGV[3])

local start = tonumber(redis.call('HGET', key, 'window_start'))
local count = tonumber(redis.call('HGET', key, 'count'))
if (not start) or (nowMs - start >= windowMs) then
  start = nowMs
  count = 0
end

local applied = 0
if count < limit then
  count = count + 1
  applied = 1
end

redis.call('HSET', key, 'count', count, 'window_start', start)
redis.call('PEXPIRE', key, windowMs * 2)
return {count, start, applied}
`

// Store wraps a go-redis client. Keys self-expire at twice the window so an
// abandoned counter cannot leak.
type Store struct {
	client redis.Cmdable
	script *redis.Script

	// putTTL bounds keys written through Put, which has no window to size
	// the expiry from.
	putTTL time.Duration
}

func NewStore(client redis.Cmdable, putTTL time.Duration) *Store {
	if putTTL <= 0 {
		putTTL = 48 * time.Hour
	}
	return &Store{
		client: client,
		script: redis.NewScript(checkAndIncrementScript),
		putTTL: putTTL,
	}
}

func (s *Store) CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration, now time.Time) (counterstore.Counter, bool, error) {
	res, err := s.script.Run(ctx, s.client,
		[]string{keyPrefix + key},
		limit, window.Milliseconds(), now.UnixMilli(),
	).Slice()
	if err != nil {
		return counterstore.Counter{}, false, fmt.Errorf("%w: eval: %v", counterstore.ErrUnavailable, err)
	}
	if len(res) != 3 {
		return counterstore.Counter{}, false, fmt.Errorf("%w: unexpected script reply %v", counterstore.ErrUnavailable, res)
	}

	count, ok1 := res[0].(int64)
	startMs, ok2 := res[1].(int64)
	applied, ok3 := res[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return counterstore.Counter{}, false, fmt.Errorf("%w: unexpected script reply %v", counterstore.ErrUnavailable, res)
	}

	c := counterstore.Counter{
		Count:       count,
		WindowStart: time.UnixMilli(startMs).UTC(),
	}
	return c, applied == 1, nil
}

func (s *Store) Get(ctx context.Context, key string) (counterstore.Counter, bool, error) {
	vals, err := s.client.HMGet(ctx, keyPrefix+key, "count", "window_start").Result()
	if err != nil {
		return counterstore.Counter{}, false, fmt.Errorf("%w: hmget: %v", counterstore.ErrUnavailable, err)
	}
	if vals[0] == nil || vals[1] == nil {
		return counterstore.Counter{}, false, nil
	}

	var count, startMs int64
	if _, err := fmt.Sscan(vals[0].(string), &count); err != nil {
		return counterstore.Counter{}, false, fmt.Errorf("%w: bad count field: %v", counterstore.ErrUnavailable, err)
	}
	if _, err := fmt.Sscan(vals[1].(string), &startMs); err != nil {
		return counterstore.Counter{}, false, fmt.Errorf("%w: bad window_start field: %v", counterstore.ErrUnavailable, err)
	}

	return counterstore.Counter{
		Count:       count,
		WindowStart: time.UnixMilli(startMs).UTC(),
	}, true, nil
}

func (s *Store) Put(ctx context.Context, key string, c counterstore.Counter) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, keyPrefix+key, "count", c.Count, "window_start", c.WindowStart.UnixMilli())
	pipe.PExpire(ctx, keyPrefix+key, s.putTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: hset: %v", counterstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", counterstore.ErrUnavailable, err)
	}
	return nil
}
