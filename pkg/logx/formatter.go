package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Formatter turns an entry into bytes ready to be written
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry represents a single log entry
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Data      interface{}
	Error     error
	Timestamp time.Time
	Caller    string
}

// Fields is a map of structured data
type Fields map[string]interface{}

func newFormatter(config *Config) Formatter {
	switch config.Format {
	case FormatJSON:
		return &JSONFormatter{config: config}
	case FormatCloudWatch:
		return &JSONFormatter{config: config, cloudWatch: true}
	default:
		return &ConsoleFormatter{config: config}
	}
}

func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return strconv.FormatInt(t.Unix(), 10)
	case "unixmilli":
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format(format)
	}
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ============================================================================
// Console
// ============================================================================

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

var levelColors = map[Level]string{
	LevelTrace: "\033[90m",
	LevelDebug: "\033[1;36m",
	LevelInfo:  "\033[1;32m",
	LevelWarn:  "\033[1;33m",
	LevelError: "\033[1;31m",
	LevelFatal: "\033[1;31m",
}

// ConsoleFormatter writes human readable lines, fields sorted by key
type ConsoleFormatter struct {
	config *Config
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if f.config.EnableColors && color != "" {
		b.WriteString(color)
		b.WriteString(s)
		b.WriteString(colorReset)
		return
	}
	b.WriteString(s)
}

// Format formats a log entry for console output
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.config.EnableTimestamp {
		f.paint(&b, colorGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
		b.WriteByte(' ')
	}

	f.paint(&b, levelColors[entry.Level], fmt.Sprintf("[%-5s]", entry.Level.String()))
	b.WriteByte(' ')

	if f.config.EnableCaller && entry.Caller != "" {
		f.paint(&b, colorGray, "["+entry.Caller+"]")
		b.WriteByte(' ')
	}

	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		parts := make([]string, 0, len(entry.Fields))
		for _, k := range sortedKeys(entry.Fields) {
			parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		b.WriteByte(' ')
		f.paint(&b, colorCyan, strings.Join(parts, " "))
	}

	if entry.Error != nil {
		b.WriteString("\n")
		f.paint(&b, colorRed, "  ╰─→ error: "+entry.Error.Error())
	}

	if entry.Data != nil {
		pretty, err := json.MarshalIndent(entry.Data, "  ", "  ")
		if err != nil {
			pretty = []byte(fmt.Sprintf("%+v", entry.Data))
		}
		b.WriteString("\n  ")
		f.paint(&b, colorGray, string(pretty))
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// ============================================================================
// JSON / CloudWatch
// ============================================================================

// JSONFormatter writes one JSON object per line. In CloudWatch mode the
// keys follow the msg/time convention used by the Lambda runtime.
type JSONFormatter struct {
	config     *Config
	cloudWatch bool
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+6)

	for k, v := range entry.Fields {
		data[k] = v
	}

	data["level"] = entry.Level.String()
	if f.cloudWatch {
		data["msg"] = entry.Message
		data["time"] = entry.Timestamp.Format(time.RFC3339Nano)
	} else {
		data["message"] = entry.Message
		if f.config.EnableTimestamp {
			switch f.config.TimeFormat {
			case "unix":
				data["timestamp"] = entry.Timestamp.Unix()
			case "unixmilli":
				data["timestamp"] = entry.Timestamp.UnixMilli()
			default:
				data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)
			}
		}
	}

	if f.config.Service != "" {
		data["service"] = f.config.Service
	}
	if f.config.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}
	if entry.Data != nil {
		data["data"] = entry.Data
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
