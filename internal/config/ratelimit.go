package config

import "time"

// RateLimitConfig tunes the per-caller token bucket in front of the token
// refresh route.  A caller may rotate Burst times in a row and earns one more
// rotation every Every.
//
//	RATE_LIMIT_ENABLED  "false" turns the limiter off (default on)
//	RATE_LIMIT_BURST    bucket capacity (default 10)
//	RATE_LIMIT_EVERY    refill period for one request (default 6s)
//	RATE_LIMIT_PREFIX   Redis key prefix (default "rl:tokens")
type RateLimitConfig struct {
	Enabled bool
	Burst   int
	Every   time.Duration
	Prefix  string
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Burst:   envInt("RATE_LIMIT_BURST", 10),
		Every:   envDur("RATE_LIMIT_EVERY", 6*time.Second),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl:tokens"),
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Every < time.Millisecond {
		cfg.Every = time.Second
	}
	return cfg
}

// TTL is how long an untouched bucket is worth keeping: after Burst*Every it
// has refilled completely and is indistinguishable from a new one.
func (c RateLimitConfig) TTL() time.Duration {
	return time.Duration(c.Burst) * c.Every
}
