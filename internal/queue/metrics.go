package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors exported for the task queue.
// Registration is idempotent: constructing more than one Queue in a
// process (tests, mainly) reuses whatever collector is already
// registered instead of panicking.
type metrics struct {
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	pending      prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		tasksTotal: registerOrReuseCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediacore_queue_tasks_total",
			Help: "Total tasks executed by the queue, labeled by task name and outcome.",
		}, []string{"task", "outcome"})),
		taskDuration: registerOrReuseHistogramVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediacore_queue_task_duration_seconds",
			Help:    "Task execution duration in seconds, labeled by task name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"})),
		pending: registerOrReuseGauge(prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mediacore_queue_pending_tasks",
			Help: "Number of tasks currently queued or executing, across both lanes.",
		})),
	}
}

func (m *metrics) observe(task string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.tasksTotal.WithLabelValues(task, outcome).Inc()
	m.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func registerOrReuseCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}

func registerOrReuseHistogramVec(h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	return h
}

func registerOrReuseGauge(g prometheus.Gauge) prometheus.Gauge {
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
	}
	return g
}
