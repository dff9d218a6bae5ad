package config

import "time"

// JobxConfig configures the background job queue.
type JobxConfig struct {
	Enabled         bool
	Concurrency     int
	Queues          []string
	KeyPrefix       string
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	DequeueTimeout  time.Duration
	MaxRetries      int
}

func loadJobxConfig() JobxConfig {
	return JobxConfig{
		Enabled:         getEnvBool("JOBX_ENABLED", true),
		Concurrency:     getEnvInt("JOBX_CONCURRENCY", 4),
		Queues:          getEnvStringSlice("JOBX_QUEUES", []string{"default", "requester"}),
		KeyPrefix:       getEnv("JOBX_KEY_PREFIX", "jobx:"),
		PollInterval:    getEnvDuration("JOBX_POLL_INTERVAL", time.Second),
		ShutdownTimeout: getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", 30*time.Second),
		DequeueTimeout:  getEnvDuration("JOBX_DEQUEUE_TIMEOUT", 5*time.Second),
		MaxRetries:      getEnvInt("JOBX_MAX_RETRIES", 8),
	}
}
