// Package config loads visadesk settings from the environment.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Log transports for following a job's log.
const (
	TransportPoll      = "poll"
	TransportWebSocket = "ws"
)

// DefaultPollInterval is the fixed interval between log fetches while a job runs.
const DefaultPollInterval = 2 * time.Second

// Config holds all configuration values.
type Config struct {
	// Backend
	ServerURL     string
	ClientTimeout time.Duration // zero means no client-side timeout

	// Job polling
	PollInterval time.Duration
	LogTransport string

	// Session cache
	SessionFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if one exists.
func Load() Config {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	return Config{
		ServerURL:     strings.TrimRight(getEnv("VISADESK_SERVER_URL", "http://localhost:8000"), "/"),
		ClientTimeout: parseDuration(getEnv("VISADESK_CLIENT_TIMEOUT", ""), 0),

		PollInterval: parseDuration(getEnv("VISADESK_POLL_INTERVAL", ""), DefaultPollInterval),
		LogTransport: parseTransport(getEnv("VISADESK_LOG_TRANSPORT", TransportPoll)),

		SessionFile: getEnv("VISADESK_SESSION_FILE", defaultSessionFile()),

		LogFile:  getEnv("VISADESK_LOG_FILE", filepath.Join(os.TempDir(), "visadesk.log")),
		LogLevel: parseLogLevel(getEnv("VISADESK_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "visadesk", "session.yaml")
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func parseTransport(s string) string {
	switch strings.ToLower(s) {
	case TransportWebSocket, "websocket":
		return TransportWebSocket
	default:
		return TransportPoll
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
