package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestNew_Stdout(t *testing.T) {
	l, closer := New(ProductionConfig())
	require.NotNil(t, l)
	assert.NoError(t, closer.Close())
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notaris.log")
	l, closer := New(&Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	l.Info("dossier created", zap.String("reference", "2026/0001"))
	_ = l.Sync()
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"dossier created"`)
	assert.Contains(t, string(data), `"reference":"2026/0001"`)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.NotNil(t, FromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithIdentity(ctx, "tenant-1", "user-1", "notary")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "notary", GetRole(ctx))
}

func TestL_EnrichesFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-9")
	ctx = WithIdentity(ctx, "t", "u", "clerk")

	L(ctx).Info("hello")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "t", fields["tenant_id"])
	assert.Equal(t, "u", fields["user_id"])
	assert.Equal(t, "clerk", fields["role"])
	assert.NotContains(t, fields, "trace_id")
}

func TestL_AddsTraceIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithContext(ctx, zap.New(core))

	L(ctx).Info("traced")
	assert.Equal(t, sc.TraceID().String(), GetTraceID(ctx))
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, sc.TraceID().String(), recorded.All()[0].ContextMap()["trace_id"])
}

func TestEnrich_NilBase(t *testing.T) {
	assert.NotNil(t, Enrich(context.Background(), nil))
}
