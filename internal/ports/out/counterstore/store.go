package counterstore

import (
	"context"
	"errors"
	"time"
)

// Counter is an immutable snapshot of one rolling-window counter.
type Counter struct {
	Count       int64
	WindowStart time.Time
}

// Active reports whether the counter's window still covers now. Expiry is a
// pure function of (now, windowStart, window) so it is deterministic under a
// manual clock.
func (c Counter) Active(now time.Time, window time.Duration) bool {
	return !c.WindowStart.IsZero() && now.Sub(c.WindowStart) < window
}

// ErrUnavailable indicates the backing store could not be reached. The rate
// limiter treats it as fail-closed.
var ErrUnavailable = errors.New("counter store unavailable")

// Store persists rolling-window counters keyed by identity or by raw-address
// key.
type Store interface {
	// CheckAndIncrement increments key's counter unless it already holds
	// limit entries within the active window. A counter whose window elapsed
	// before now is replaced with a fresh one starting at now. It returns the
	// counter after the operation and whether the increment was applied.
	//
	// The read and the increment are a single operation: two concurrent calls
	// competing for the last slot must not both see the increment applied.
	CheckAndIncrement(ctx context.Context, key string, limit int64, window time.Duration, now time.Time) (Counter, bool, error)

	// Get returns the stored counter for key without interpreting expiry.
	Get(ctx context.Context, key string) (Counter, bool, error)

	// Put overwrites the counter for key. Used by the anonymous-data merge.
	Put(ctx context.Context, key string, c Counter) error

	// Delete removes the counter for key.
	Delete(ctx context.Context, key string) error
}
