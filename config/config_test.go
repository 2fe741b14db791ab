package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, 4, cfg.MatchingWorkers)
	assert.False(t, cfg.MatchingBlocking)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 50*time.Millisecond, cfg.KafkaBatchTimeout)
	assert.Equal(t, "none", cfg.TracingExporter)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MATCHING_WORKERS=8\nKAFKA_BROKERS=k1:9092,k2:9092\n"), 0o600))

	t.Setenv("MATCHING_BLOCKING", "true")
	// godotenv never overrides variables that are already set
	t.Setenv("MATCHING_WORKERS", "2")
	t.Cleanup(func() { _ = os.Unsetenv("KAFKA_BROKERS") })

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MatchingWorkers)
	assert.True(t, cfg.MatchingBlocking)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
