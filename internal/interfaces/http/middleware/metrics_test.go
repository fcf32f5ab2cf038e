package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewHTTPMetrics(provider.Meter("test"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/v1/dossiers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/api/v1/dossiers/1")
	perform(r, http.MethodGet, "/api/v1/dossiers/2")
	perform(r, http.MethodGet, "/wp-login.php")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	routes := map[string]int64{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		if metric.Name != "http_server_requests_total" {
			continue
		}
		for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
			route, _ := dp.Attributes.Value("http.route")
			routes[route.AsString()] += dp.Value
		}
	}
	assert.Equal(t, map[string]int64{"/api/v1/dossiers/:id": 2, "unmatched": 1}, routes)
}

func TestMetrics_Nil(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodGet, "/").Code)
}
