package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TasksCreated("acme", 3)
		m.TaskTransition("COMPLETE_TASK")
		m.AuditRecorded("LOGIN")
		m.AllocationExhausted()
		m.PushJob("queued")
		m.PushEvent("dropped")
	})
}

func TestCounters(t *testing.T) {
	m := New(config.MetricsConfig{Namespace: "taskflow"})
	m.TasksCreated("acme", 3)
	m.AllocationExhausted()
	m.AllocationExhausted()
	m.PushJob("queued")

	assert.Equal(t, float64(3), testutil.ToFloat64(m.tasksCreated.WithLabelValues("acme")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.allocExhaust))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.pushJobs.WithLabelValues("queued")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(config.MetricsConfig{Namespace: "taskflow"})

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `taskflow_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.Contains(t, string(body), "taskflow_allocation_exhausted_total 0")
}
