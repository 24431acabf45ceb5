package logging_test

import (
	"testing"

	"courierdesk/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("defaults_to_json_info", func(t *testing.T) {
		logger, sync, err := logging.New(logging.Options{})
		require.NoError(t, err)
		require.NotNil(t, logger)
		require.NotNil(t, sync)
		assert.False(t, logger.Enabled(t.Context(), -4))
	})

	t.Run("console_debug", func(t *testing.T) {
		logger, _, err := logging.New(logging.Options{Level: "DEBUG", Format: logging.FormatConsole})
		require.NoError(t, err)
		assert.True(t, logger.Enabled(t.Context(), -4))
	})

	t.Run("rejects_unknown_level", func(t *testing.T) {
		_, _, err := logging.New(logging.Options{Level: "chatty"})
		require.Error(t, err)
	})

	t.Run("rejects_unknown_format", func(t *testing.T) {
		_, _, err := logging.New(logging.Options{Format: "xml"})
		require.Error(t, err)
	})
}

func TestFromCore_WritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.FromCore(core).With("component", "test")

	logger.InfoContext(t.Context(), "task claimed", "taskID", "t-1")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "task claimed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "t-1", fields["taskID"])
}
