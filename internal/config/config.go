package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by CURATOR_ENV (or .env by default), then
// its .secret sidecar if one exists. Everything else is read from the
// environment on demand.
func Load() error {
	envFile := os.Getenv("CURATOR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process environment still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. Without it attention events are not recorded.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

func HoverDwell() time.Duration {
	return millis("HOVER_DWELL_MS", 2*time.Second)
}

func ScrollDebounce() time.Duration {
	return millis("SCROLL_DEBOUNCE_MS", 200*time.Millisecond)
}

func CaptureInterval() time.Duration {
	return millis("CAPTURE_INTERVAL_MS", 2*time.Second)
}

// SessionIdleTTL accepts Go duration syntax, e.g. "30m".
func SessionIdleTTL() time.Duration {
	return duration("SESSION_IDLE_TTL", 30*time.Minute)
}

// EventRetention is how long recorded attention events are kept.
// Zero disables pruning.
func EventRetention() time.Duration {
	return duration("EVENT_RETENTION", 30*24*time.Hour)
}

// FlourishProbability is the chance a matched reply gets a closing flourish.
func FlourishProbability() float64 {
	p, err := strconv.ParseFloat(os.Getenv("FLOURISH_PROBABILITY"), 64)
	if err != nil || p < 0 || p > 1 {
		return 0.3
	}
	return p
}

// KnowledgePath points at a YAML knowledge base. Empty means the embedded one.
func KnowledgePath() string {
	return os.Getenv("KNOWLEDGE_PATH")
}

// TrackerStrict makes invalid signals panic instead of being dropped.
func TrackerStrict() bool {
	strict, err := strconv.ParseBool(os.Getenv("TRACKER_STRICT"))
	return err == nil && strict
}

func millis(key string, def time.Duration) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(key))
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
