package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of one process. All recording
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry     *prometheus.Registry
	namespace    string
	httpReqCnt   *prometheus.CounterVec
	httpDur      *prometheus.HistogramVec
	httpInfl     *prometheus.GaugeVec
	tasksCreated *prometheus.CounterVec
	taskTrans    *prometheus.CounterVec
	auditEntries *prometheus.CounterVec
	allocExhaust prometheus.Counter
	pushJobs     *prometheus.CounterVec
	pushEvents   *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	tasksCreated := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "tasks_created_total"}, []string{"company"})
	taskTrans := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "task_transitions_total"}, []string{"action"})
	auditEntries := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "audit_entries_total"}, []string{"action"})
	allocExhaust := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "allocation_exhausted_total", Help: "Task creations refused because the task code space is used up."})
	r.MustRegister(tasksCreated, taskTrans, auditEntries, allocExhaust)

	pushJobs := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "push_jobs_total"}, []string{"status"})
	pushEvents := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "push_events_total"}, []string{"status"})
	r.MustRegister(pushJobs, pushEvents)

	return &Metrics{
		registry:     r,
		namespace:    ns,
		httpReqCnt:   httpReqCnt,
		httpDur:      httpDur,
		httpInfl:     httpInfl,
		tasksCreated: tasksCreated,
		taskTrans:    taskTrans,
		auditEntries: auditEntries,
		allocExhaust: allocExhaust,
		pushJobs:     pushJobs,
		pushEvents:   pushEvents,
	}
}

func (m *Metrics) TasksCreated(company string, n int) {
	if m == nil {
		return
	}
	m.tasksCreated.WithLabelValues(company).Add(float64(n))
}

func (m *Metrics) TaskTransition(action string) {
	if m == nil {
		return
	}
	m.taskTrans.WithLabelValues(action).Inc()
}

func (m *Metrics) AuditRecorded(action string) {
	if m == nil {
		return
	}
	m.auditEntries.WithLabelValues(action).Inc()
}

// AllocationExhausted counts a refused allocation. Any increase is an
// operator alarm.
func (m *Metrics) AllocationExhausted() {
	if m == nil {
		return
	}
	m.allocExhaust.Inc()
}

// PushJob counts push delivery jobs by status: queued, failed, delivered
func (m *Metrics) PushJob(status string) {
	if m == nil {
		return
	}
	m.pushJobs.WithLabelValues(status).Inc()
}

// PushEvent counts dispatcher events by status: accepted, dropped, skipped, failed
func (m *Metrics) PushEvent(status string) {
	if m == nil {
		return
	}
	m.pushEvents.WithLabelValues(status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
