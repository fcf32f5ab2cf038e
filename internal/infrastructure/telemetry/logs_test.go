package telemetry

import (
	"context"
	"testing"

	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerProvider_DisabledKeepsLogger(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	log := zap.NewNop()
	assert.Same(t, log, lp.Bridge(log, zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.WarnLevel}
	log := zap.New(filtered).With(zap.String("office", "NOT-01"))

	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept too")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Equal(t, "NOT-01", logs.All()[0].ContextMap()["office"])
	assert.False(t, filtered.Enabled(zapcore.DebugLevel))
}
