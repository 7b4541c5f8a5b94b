package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"HOVER_DWELL_MS", "SCROLL_DEBOUNCE_MS", "CAPTURE_INTERVAL_MS", "SESSION_IDLE_TTL",
		"EVENT_RETENTION", "FLOURISH_PROBABILITY", "KNOWLEDGE_PATH", "TRACKER_STRICT",
	} {
		t.Setenv(key, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Empty(t, DatabaseURL())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, 2*time.Second, HoverDwell())
	assert.Equal(t, 200*time.Millisecond, ScrollDebounce())
	assert.Equal(t, 2*time.Second, CaptureInterval())
	assert.Equal(t, 30*time.Minute, SessionIdleTTL())
	assert.Equal(t, 30*24*time.Hour, EventRetention())
	assert.Equal(t, 0.3, FlourishProbability())
	assert.Empty(t, KnowledgePath())
	assert.False(t, TrackerStrict())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HOVER_DWELL_MS", "1500")
	t.Setenv("SCROLL_DEBOUNCE_MS", "50")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("EVENT_RETENTION", "0s")
	t.Setenv("FLOURISH_PROBABILITY", "0")
	t.Setenv("TRACKER_STRICT", "true")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, 1500*time.Millisecond, HoverDwell())
	assert.Equal(t, 50*time.Millisecond, ScrollDebounce())
	assert.Equal(t, 5*time.Minute, SessionIdleTTL())
	assert.Zero(t, EventRetention())
	assert.Zero(t, FlourishProbability())
	assert.True(t, TrackerStrict())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "-1")
	t.Setenv("HOVER_DWELL_MS", "soon")
	t.Setenv("SESSION_IDLE_TTL", "forever")
	t.Setenv("FLOURISH_PROBABILITY", "1.5")

	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 2*time.Second, HoverDwell())
	assert.Equal(t, 30*time.Minute, SessionIdleTTL())
	assert.Equal(t, 0.3, FlourishProbability())
}

func TestLoadReadsEnvFileAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=debug\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("DATABASE_URL=postgres://curator@localhost/curator\n"), 0o600))

	t.Setenv("CURATOR_ENV", envFile)
	// godotenv never overrides variables that are already set, so start empty
	// and register cleanup through Setenv.
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	require.NoError(t, Load())
	assert.Equal(t, "debug", LogLevel())
	assert.Equal(t, "postgres://curator@localhost/curator", DatabaseURL())
}
