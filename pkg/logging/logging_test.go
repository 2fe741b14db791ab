package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("json logger", func(t *testing.T) {
		logger, zapLogger, err := New("info", false)
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer func() { _ = zapLogger.Sync() }()

		assert.NotPanics(t, func() {
			logger.WithContext(context.Background()).WithFields(map[string]any{"agents": 3}).Debug("filtered out")
		})
	})

	t.Run("pretty logger", func(t *testing.T) {
		_, zapLogger, err := New("debug", true)
		require.NoError(t, err)
		assert.True(t, zapLogger.Core().Enabled(-1))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, _, err := New("loud", false)
		assert.ErrorContains(t, err, "invalid log level")
	})
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("agent_id", "a1").Info("discarded")
	})
}
