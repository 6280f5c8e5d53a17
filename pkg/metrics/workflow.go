package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records status transition outcomes labeled by action.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Applied workflow transitions by action.",
	}, []string{"action"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transition_rejections_total",
		Help: "Transitions rejected by precondition checks.",
	}, []string{"action", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_transition_duration_seconds",
		Help:    "Duration of workflow transition handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	reg.MustRegister(transitions, rejections, duration)
	return &WorkflowMetrics{
		transitions: transitions,
		rejections:  rejections,
		duration:    duration,
	}
}

// IncApplied increments the applied-transition counter for the named action.
func (w *WorkflowMetrics) IncApplied(action string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncRejected increments the rejected-transition counter.
func (w *WorkflowMetrics) IncRejected(action, reason string) {
	if w == nil || w.rejections == nil {
		return
	}
	w.rejections.WithLabelValues(normalizeLabel(action), normalizeLabel(reason)).Inc()
}

// ObserveDuration records how long applying the action took.
func (w *WorkflowMetrics) ObserveDuration(action string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(action)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
