package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_Observe(t *testing.T) {
	p := NewPrometheus()
	ctx := context.Background()
	p.Observe(ctx, "record_weights", true, time.Millisecond)
	p.Observe(ctx, "record_weights", true, time.Millisecond)
	p.Observe(ctx, "record_weights", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.operations.WithLabelValues("record_weights", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("record_weights", "error")))
}

func TestSince(t *testing.T) {
	p := NewPrometheus()
	ctx := context.Background()

	err := errors.New("boom")
	Since(ctx, p, "recommend", time.Now(), &err)
	Since(ctx, p, "recommend", time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("recommend", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("recommend", "ok")))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.Observe(context.Background(), "overview", true, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hatchery_operations_total{operation="overview",status="ok"} 1`)
}
