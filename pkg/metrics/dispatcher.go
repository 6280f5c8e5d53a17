package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherMetrics records notification outbox drain outcomes.
type DispatcherMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	parked   *prometheus.CounterVec
}

// NewDispatcherMetrics registers the dispatcher metrics on the provided registerer.
func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	if reg == nil {
		return &DispatcherMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Duration of notification dispatch batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_success_total",
		Help: "Successfully dispatched notification events.",
	}, []string{"channel"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_failure_total",
		Help: "Failed notification dispatch attempts.",
	}, []string{"channel"})
	parked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_parked_total",
		Help: "Notification events parked after exhausting attempts.",
	}, []string{"channel"})
	reg.MustRegister(duration, success, failure, parked)
	return &DispatcherMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		parked:   parked,
	}
}

// ObserveDuration records the duration for the named channel.
func (d *DispatcherMetrics) ObserveDuration(channel string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named channel.
func (d *DispatcherMetrics) IncSuccess(channel string) {
	if d == nil || d.success == nil {
		return
	}
	d.success.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncFailure increments the failure counter for the named channel.
func (d *DispatcherMetrics) IncFailure(channel string) {
	if d == nil || d.failure == nil {
		return
	}
	d.failure.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncParked increments the parked counter for the named channel.
func (d *DispatcherMetrics) IncParked(channel string) {
	if d == nil || d.parked == nil {
		return
	}
	d.parked.WithLabelValues(normalizeLabel(channel)).Inc()
}
