// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task outcomes recorded by ObserveTaskFinished.
const (
	OutcomeCompleted   = "completed"
	OutcomeFailed      = "failed"
	OutcomeInterrupted = "interrupted"
	OutcomeRejected    = "rejected"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	tasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zero",
			Subsystem: "task",
			Name:      "submitted_total",
			Help:      "Number of tasks accepted by the runner.",
		}, []string{"type"},
	)
	tasksFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zero",
			Subsystem: "task",
			Name:      "finished_total",
			Help:      "Number of tasks that left the queue, by outcome.",
		}, []string{"type", "outcome"},
	)
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zero",
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Time spent executing a task handler.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"type"},
	)
	tasksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zero",
			Subsystem: "task",
			Name:      "in_flight",
			Help:      "Tasks currently held by a worker.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zero",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served, by route pattern and status code.",
		}, []string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zero",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{tasksSubmitted, tasksFinished, taskDuration, tasksInFlight, httpRequests, httpDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// The helpers below no-op until Register has succeeded.

func IncTaskSubmitted(taskType string) {
	if regOK.Load() {
		tasksSubmitted.WithLabelValues(taskType).Inc()
	}
}

func ObserveTaskFinished(taskType, outcome string, seconds float64) {
	if !regOK.Load() {
		return
	}
	tasksFinished.WithLabelValues(taskType, outcome).Inc()
	if outcome != OutcomeRejected {
		taskDuration.WithLabelValues(taskType).Observe(seconds)
	}
}

func IncTasksInFlight() {
	if regOK.Load() {
		tasksInFlight.Inc()
	}
}

func DecTasksInFlight() {
	if regOK.Load() {
		tasksInFlight.Dec()
	}
}

func ObserveHTTPRequest(method, route string, code int, seconds float64) {
	if !regOK.Load() {
		return
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}
