package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig configures identity hashing, the rate limiter, and the ephemeral
// response caches.
type AppConfig struct {
	// IPHashSalt salts the one-way hash of client addresses. It must be set
	// in production so hashes are not trivially reversible by dictionary.
	IPHashSalt string

	RateLimitMax    int64
	RateLimitWindow time.Duration

	ImageCacheTTL            time.Duration
	ImageCacheSweepThreshold int

	MentionsCacheTTL            time.Duration
	MentionsCacheSweepThreshold int

	ReasonsCacheTTL            time.Duration
	ReasonsCacheSweepThreshold int

	// SocialQueryTimeout bounds each fan-out subquery; one slow or failing
	// query must not stall the whole aggregation.
	SocialQueryTimeout time.Duration
}

// LoadAppConfigFromEnv loads AppConfig with predictable defaults so local and
// test behavior does not depend on a full environment.
func LoadAppConfigFromEnv() (AppConfig, error) {
	cfg := AppConfig{
		IPHashSalt:      os.Getenv("IP_HASH_SALT"),
		RateLimitMax:    20,
		RateLimitWindow: 24 * time.Hour,

		ImageCacheTTL:            time.Hour,
		ImageCacheSweepThreshold: 200,

		MentionsCacheTTL:            5 * time.Minute,
		MentionsCacheSweepThreshold: 100,

		ReasonsCacheTTL:            30 * time.Minute,
		ReasonsCacheSweepThreshold: 100,

		SocialQueryTimeout: 4 * time.Second,
	}
	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = "cafe-scout-dev-salt"
	}

	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return AppConfig{}, fmt.Errorf("RATE_LIMIT_MAX must be a positive integer: %q", v)
		}
		cfg.RateLimitMax = n
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return AppConfig{}, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration (e.g. 24h): %q", v)
		}
		cfg.RateLimitWindow = d
	}
	if v := os.Getenv("SOCIAL_QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return AppConfig{}, fmt.Errorf("SOCIAL_QUERY_TIMEOUT must be a positive duration (e.g. 4s): %q", v)
		}
		cfg.SocialQueryTimeout = d
	}

	return cfg, nil
}
