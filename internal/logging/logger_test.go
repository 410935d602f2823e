package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"WARNING": zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"":        zap.InfoLevel,
		"chatty":  zap.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := New("debug", format)
		require.NoError(t, err, format)
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
		assert.Same(t, logger, zap.L())
	}

	_, err := New("info", "xml")
	assert.Error(t, err)
}

func TestNewInfoLevelWrites(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		logger, err := New("info", format)
		require.NoError(t, err, format)
		assert.False(t, logger.Core().Enabled(zap.DebugLevel), format)
		assert.NotPanics(t, func() {
			logger.Info("run started", zap.String("run_id", "20240501-080000"))
			logger.Warn("snapshot rollback failed", zap.Int("rows", 3))
		}, format)
	}
}
