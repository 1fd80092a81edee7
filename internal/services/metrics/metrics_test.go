//go:build unit

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-ingestion/internal/services/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestHTTPMiddleware_CountsByStatusClass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewMetrics("ingest_test")

	r := gin.New()
	r.Use(m.HTTPMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/enrich", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/enrich", nil),
		httptest.NewRequest(http.MethodGet, "/nope", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	out := scrape(t, m)
	assert.Contains(t, out,
		`ingest_test_http_requests_total{endpoint="/health",method="GET",status_class="2xx"} 2`)
	assert.Contains(t, out,
		`ingest_test_http_requests_total{endpoint="/enrich",method="POST",status_class="4xx"} 1`)
	assert.Contains(t, out,
		`ingest_test_http_requests_total{endpoint="unmatched",method="GET",status_class="4xx"} 1`)
}

func TestDomainRecorders(t *testing.T) {
	m := metrics.NewMetrics("ingest_test")

	m.RecordLocation("ok")
	m.RecordLocation("ok")
	m.RecordLocation("not_found")
	m.RecordRecords(48)
	m.RecordEnrich("ok")
	m.RecordRelay("http", "error")
	m.RecordRun("ok")

	out := scrape(t, m)
	assert.Contains(t, out, `ingest_test_ingest_locations_total{result="ok"} 2`)
	assert.Contains(t, out, `ingest_test_ingest_locations_total{result="not_found"} 1`)
	assert.Contains(t, out, `ingest_test_ingest_records_total 48`)
	assert.Contains(t, out, `ingest_test_enrich_batches_total{result="ok"} 1`)
	assert.Contains(t, out, `ingest_test_relay_batches_total{result="error",transport="http"} 1`)
	assert.Contains(t, out, `ingest_test_scheduled_runs_total{result="ok"} 1`)
}

func TestPromCollector_RegistersOnGivenRegistry(t *testing.T) {
	m := metrics.NewMetrics("ingest_test")
	col := metrics.NewPromCollector(m.Registry(), "ingest_test")

	col.ObserveLatency("get", 3*time.Millisecond)
	col.IncrementCounter("get", "hit")

	out := scrape(t, m)
	assert.Contains(t, out, `ingest_test_cache_operations_total{operation="get",result="hit"} 1`)
	assert.Contains(t, out, `ingest_test_cache_operation_duration_seconds_count{operation="get"} 1`)
}
