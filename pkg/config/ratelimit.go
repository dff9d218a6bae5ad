package config

import "time"

// RateLimitConfig holds the per-IP quotas. RegisterMax applies to
// POST /requester on top of the general quota.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	Max         int
	RegisterMax int
	UseRedis    bool
	Prefix      string
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     getEnvBool("RATE_LIMIT_ENABLED", true),
		Window:      getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		Max:         getEnvInt("RATE_LIMIT_MAX", 10),
		RegisterMax: getEnvInt("RATE_LIMIT_REGISTER_MAX", 5),
		UseRedis:    getEnvBool("RATE_LIMIT_REDIS", true),
		Prefix:      getEnv("RATE_LIMIT_PREFIX", "rl:"),
	}
}
