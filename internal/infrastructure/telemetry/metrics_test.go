package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation, match ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		matched := true
		for _, kv := range match {
			if v, ok := dp.Attributes.Value(kv.Key); !ok || v != kv.Value {
				matched = false
			}
		}
		if matched {
			total += dp.Value
		}
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := NewBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	office := uuid.New()
	bm.InvoiceIssued(ctx, office, decimal.RequireFromString("1331.00"))
	bm.InvoiceIssued(ctx, office, decimal.RequireFromString("12.105"))
	bm.DeedRecorded(ctx, office, "sale")
	bm.DeedRecorded(ctx, office, "mortgage")
	bm.DeedRecorded(ctx, office, "sale")
	bm.DocumentStored(ctx, office)
	bm.AssistantTokens(ctx, office, "gpt-4o-mini", 120, 30)
	bm.LicenseVerified(ctx, "grace")

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["notaris_invoice_issued_total"]))
	assert.Equal(t, int64(133100+1211), sumOf(t, got["notaris_invoice_gross_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["notaris_deed_recorded_total"], AttrDeedType.String("sale")))
	assert.Equal(t, int64(1), sumOf(t, got["notaris_document_stored_total"]))
	assert.Equal(t, int64(120), sumOf(t, got["notaris_assistant_tokens_total"], AttrTokenKind.String("prompt")))
	assert.Equal(t, int64(30), sumOf(t, got["notaris_assistant_tokens_total"], AttrTokenKind.String("completion")))
	assert.Equal(t, int64(1), sumOf(t, got["notaris_license_verification_total"], AttrOutcome.String("grace")))
}

func TestBusinessMetrics_NilIsNoop(t *testing.T) {
	var bm *BusinessMetrics
	assert.NotPanics(t, func() {
		bm.InvoiceIssued(context.Background(), uuid.New(), decimal.NewFromInt(1))
		bm.DeedRecorded(context.Background(), uuid.New(), "sale")
		bm.LicenseVerified(context.Background(), "ok")
	})

	_, err := NewBusinessMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}
