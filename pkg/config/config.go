package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/credit-intake/pkg/errx"
	"github.com/joho/godotenv"
)

// Config is the root configuration, loaded once in main.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AWS       AWSConfig
	Cognito   CognitoConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Notifx    NotifxConfig
	Jobx      JobxConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Env         string
	Port        string
	AppName     string
	CORSOrigins string
	BodyLimit   int
	Debug       bool

	// AuditKey keys the fingerprints written by the auth audit log
	AuditKey string
}

// IsProduction reports whether cookies must be marked Secure.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// Load reads .env.<APP_ENV> (or .env) when present and then the process
// environment. Variables already set in the environment win.
func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	for _, file := range []string{".env." + env, ".env"} {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				return nil, errx.Wrap(err, "failed to load "+file, errx.TypeInternal)
			}
			break
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:         env,
			Port:        getEnv("PORT", "8080"),
			AppName:     getEnv("APP_NAME", "Credit Intake API"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimit:   getEnvInt("BODY_LIMIT_BYTES", 12*1024*1024),
			Debug:       getEnvBool("DEBUG", false),
			AuditKey:    getEnv("AUDIT_FINGERPRINT_KEY", ""),
		},
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		AWS:       loadAWSConfig(),
		Cognito:   loadCognitoConfig(),
		RateLimit: loadRateLimitConfig(),
		Storage:   loadStorageConfig(),
		Notifx:    loadNotifxConfig(),
		Jobx:      loadJobxConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("DB_HOST", c.Database.Host)
	require("DB_NAME", c.Database.Name)
	require("COGNITO_USER_POOL_ID", c.Cognito.UserPoolID)
	require("COGNITO_CLIENT_ID", c.Cognito.ClientID)
	require("COGNITO_AUTHORITY", c.Cognito.Authority)
	if c.Storage.Mode == "s3" {
		require("AWS_BUCKET", c.Storage.Bucket)
	}

	if len(missing) > 0 {
		return errx.Validation("missing required configuration").
			WithDetail("keys", missing)
	}

	if c.RateLimit.Max < 1 || c.RateLimit.RegisterMax < 1 {
		return errx.Validation("rate limit quotas must be positive").
			WithDetail("general", c.RateLimit.Max).
			WithDetail("register", c.RateLimit.RegisterMax)
	}
	switch c.Storage.Mode {
	case "local", "s3":
	default:
		return errx.Validation(fmt.Sprintf("unknown STORAGE_MODE %q", c.Storage.Mode))
	}
	return nil
}

// ============================================================================
// Env helpers
// ============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
