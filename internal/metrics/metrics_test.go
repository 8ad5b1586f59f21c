package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveModelCall(t *testing.T) {
	m := New()

	m.ObserveModelCall("extract", time.Now(), nil)
	m.ObserveModelCall("extract", time.Now(), errors.New("boom"))
	m.ObserveModelCall("extract", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("extract", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelCalls.WithLabelValues("extract", OutcomeError)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveModelCall("x", time.Now(), nil)
		m.ObserveFanoutTask("x", nil)
		m.ObserveScratch("upload", "write", 1)
		m.ObserveHTTP("/", "GET", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveFanoutTask("image", nil)
	m.ObserveScratch("generated", "write", 2)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fanout_tasks_total{outcome="success",stage="image"} 1`)
	assert.Contains(t, w.Body.String(), `scratch_file_operations_total{kind="generated",op="write"} 2`)
}
