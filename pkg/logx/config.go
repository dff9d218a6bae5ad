package logx

import (
	"io"
	"os"
	"strings"
	"time"
)

// Format represents the output format
type Format string

const (
	FormatConsole    Format = "console"
	FormatJSON       Format = "json"
	FormatCloudWatch Format = "cloudwatch"
)

// DefaultRedactKeys are field keys whose values never reach the output.
var DefaultRedactKeys = []string{
	"password",
	"authorization",
	"cookie",
	"curp",
	"rfc",
	"email",
	"refresh_token",
	"access_token",
	"id_token",
}

// Config holds the logger configuration
type Config struct {
	Level  Level
	Format Format

	// Service is added to every JSON entry when set
	Service string

	EnableColors    bool
	EnableCaller    bool
	EnableTimestamp bool
	TimeFormat      string

	// RedactKeys are matched case-insensitively against field keys
	RedactKeys []string

	Output io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:           LevelInfo,
		Format:          FormatConsole,
		EnableColors:    true,
		EnableTimestamp: true,
		TimeFormat:      time.RFC3339,
		RedactKeys:      append([]string(nil), DefaultRedactKeys...),
		Output:          os.Stdout,
	}
}

// LoadFromEnv loads configuration from LOG_* environment variables
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		config.Format = FormatJSON
	case "cloudwatch":
		config.Format = FormatCloudWatch
	case "console":
		config.Format = FormatConsole
	}

	if color := os.Getenv("LOG_COLOR"); color != "" {
		config.EnableColors = envTrue(color)
	}
	if caller := os.Getenv("LOG_CALLER"); caller != "" {
		config.EnableCaller = envTrue(caller)
	}
	config.Service = os.Getenv("LOG_SERVICE")

	switch tf := os.Getenv("LOG_TIME_FORMAT"); strings.ToUpper(tf) {
	case "":
	case "RFC3339":
		config.TimeFormat = time.RFC3339
	case "RFC3339NANO":
		config.TimeFormat = time.RFC3339Nano
	case "UNIX":
		config.TimeFormat = "unix"
	case "UNIXMILLI":
		config.TimeFormat = "unixmilli"
	default:
		config.TimeFormat = tf
	}

	// LOG_REDACT_KEYS extends the default list, comma separated
	if extra := os.Getenv("LOG_REDACT_KEYS"); extra != "" {
		for _, k := range strings.Split(extra, ",") {
			if k = strings.TrimSpace(k); k != "" {
				config.RedactKeys = append(config.RedactKeys, k)
			}
		}
	}

	return config
}

func envTrue(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
