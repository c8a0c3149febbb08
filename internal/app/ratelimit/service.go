package ratelimit

import (
	"context"
	"time"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/platform/metrics"
	clockport "github.com/cafescout/cafe-scout-api/internal/ports/out/clock"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/counterstore"
)

// Dimension names reported in Decision.BlockedBy.
const (
	DimensionIdentity       = "identity"
	DimensionAddress        = "ip"
	DimensionInfrastructure = "infrastructure"
)

// SentinelCount marks a fail-closed decision where no real count exists.
const SentinelCount = -1

// farFutureReset keeps fail-closed decisions blocked well past any real
// window so clients back off instead of retrying into a broken store.
const farFutureReset = 365 * 24 * time.Hour

// Decision is the outcome of one check-and-increment.
type Decision struct {
	Allowed      bool
	Remaining    int64
	ResetAt      time.Time
	CurrentCount int64
	BlockedBy    string // empty when allowed
}

type Config struct {
	Max    int64
	Window time.Duration
}

// Service enforces dual rolling-window limits: one counter keyed by the
// resolved identity, one keyed by the raw client address. Either dimension at
// capacity blocks the request (OR semantics).
type Service struct {
	store counterstore.Store
	clk   clockport.Clock
	cfg   Config
}

func NewService(store counterstore.Store, clk clockport.Clock, cfg Config) *Service {
	return &Service{store: store, clk: clk, cfg: cfg}
}

// CheckAndIncrement consults and advances both dimensions for one request.
//
// Both dimensions are peeked before anything is incremented, so a request
// already blocked on one dimension does not burn a slot on the other. The
// increments themselves are conditional store operations: a lost race for the
// last slot reports that dimension blocked.
//
// Store failures block the request (fail-closed) with a sentinel count and a
// far-future reset. Unlimited traffic on a broken store is the worse failure
// mode.
func (s *Service) CheckAndIncrement(ctx context.Context, identity domain.Identity, address string) Decision {
	now := s.clk.Now()
	dims := []struct{ key, name string }{
		{string(identity), DimensionIdentity},
		{domain.AddressCounterKey(address), DimensionAddress},
	}

	for _, d := range dims {
		c, ok, err := s.store.Get(ctx, d.key)
		if err != nil {
			return s.failClosed(now)
		}
		if ok && c.Active(now, s.cfg.Window) && c.Count >= s.cfg.Max {
			metrics.RateLimitBlockedTotal.WithLabelValues(d.name).Inc()
			return Decision{
				Allowed:      false,
				Remaining:    0,
				ResetAt:      c.WindowStart.Add(s.cfg.Window),
				CurrentCount: c.Count,
				BlockedBy:    d.name,
			}
		}
	}

	counters := make([]counterstore.Counter, 0, len(dims))
	for _, d := range dims {
		c, applied, err := s.store.CheckAndIncrement(ctx, d.key, s.cfg.Max, s.cfg.Window, now)
		if err != nil {
			return s.failClosed(now)
		}
		if !applied {
			metrics.RateLimitBlockedTotal.WithLabelValues(d.name).Inc()
			return Decision{
				Allowed:      false,
				Remaining:    0,
				ResetAt:      c.WindowStart.Add(s.cfg.Window),
				CurrentCount: c.Count,
				BlockedBy:    d.name,
			}
		}
		counters = append(counters, c)
	}

	// Report against the tighter of the two dimensions.
	tight := counters[0]
	for _, c := range counters[1:] {
		if c.Count > tight.Count {
			tight = c
		}
	}
	remaining := s.cfg.Max - tight.Count
	if remaining < 0 {
		remaining = 0
	}

	metrics.RateLimitAllowedTotal.Inc()
	return Decision{
		Allowed:      true,
		Remaining:    remaining,
		ResetAt:      tight.WindowStart.Add(s.cfg.Window),
		CurrentCount: tight.Count,
	}
}

// MergeAnonymous folds the raw-address counter into the user-identity counter
// so signing in mid-window cannot reset a caller's quota to zero. Counts from
// both active windows are added; an expired window contributes nothing; the
// merged window keeps the earliest active start.
//
// The address-keyed counter itself is left in place: it stays a live
// dimension for every request from that address.
func (s *Service) MergeAnonymous(ctx context.Context, rawAddress string, user domain.Identity) error {
	now := s.clk.Now()

	anon, okAnon, err := s.store.Get(ctx, domain.AddressCounterKey(rawAddress))
	if err != nil {
		return err
	}
	usr, okUsr, err := s.store.Get(ctx, string(user))
	if err != nil {
		return err
	}

	var count int64
	start := now
	if okAnon && anon.Active(now, s.cfg.Window) {
		count += anon.Count
		if anon.WindowStart.Before(start) {
			start = anon.WindowStart
		}
	}
	if okUsr && usr.Active(now, s.cfg.Window) {
		count += usr.Count
		if usr.WindowStart.Before(start) {
			start = usr.WindowStart
		}
	}
	if count == 0 {
		return nil
	}

	return s.store.Put(ctx, string(user), counterstore.Counter{Count: count, WindowStart: start})
}

func (s *Service) failClosed(now time.Time) Decision {
	metrics.RateLimitBlockedTotal.WithLabelValues(DimensionInfrastructure).Inc()
	return Decision{
		Allowed:      false,
		Remaining:    0,
		ResetAt:      now.Add(farFutureReset),
		CurrentCount: SentinelCount,
		BlockedBy:    DimensionInfrastructure,
	}
}
