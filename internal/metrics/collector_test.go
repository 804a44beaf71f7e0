package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector("test", nil, zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.generationsTotal)
	assert.NotNil(t, collector.variationsTotal)
	assert.NotNil(t, collector.exportsTotal)
}

func TestCollector_RecordGeneration(t *testing.T) {
	collector := NewCollector("test", nil, zap.NewNop())

	collector.RecordGeneration("success", 2*time.Second, 3)
	collector.RecordGeneration("success", time.Second, 1)
	collector.RecordGeneration("error", 500*time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.generationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.generationsTotal.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.imagesGenerated))
}

func TestCollector_RecordVariation(t *testing.T) {
	collector := NewCollector("test", nil, zap.NewNop())

	collector.RecordVariation("success", time.Second)
	collector.RecordVariation("rate_limited", 0)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.variationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.variationsTotal.WithLabelValues("rate_limited")))
}

func TestCollector_RecordExport(t *testing.T) {
	collector := NewCollector("test", nil, zap.NewNop())

	collector.RecordExport("success", 5)
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.exportsTotal.WithLabelValues("success")))
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector("datasetgen", nil, zap.NewNop())
	collector.RecordHTTPRequest("GET", "/status", 200, 10*time.Millisecond)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `datasetgen_http_requests_total{method="GET",path="/status",status="2xx"} 1`)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{409, "4xx"},
		{500, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.code), "code %d", tt.code)
	}
}
