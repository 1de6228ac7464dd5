// Package metrics exposes lifecycle counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"beefsteak/internal/model"
)

const namespace = "beefsteak"

// Metrics counts task list lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	listsSubmitted *prometheus.CounterVec
	listsFinished  *prometheus.CounterVec
	tasksCompleted prometheus.Counter
	listsExpired   prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		listsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lists_submitted_total",
			Help:      "Task lists submitted, by owner kind.",
		}, []string{"owner"}),
		listsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lists_finished_total",
			Help:      "Task lists that reached a terminal status.",
		}, []string{"status"}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Tasks marked complete.",
		}),
		listsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lists_expired_total",
			Help:      "Pending task lists failed by the expiry sweeper.",
		}),
	}
	reg.MustRegister(m.listsSubmitted, m.listsFinished, m.tasksCompleted, m.listsExpired)
	return m
}

func (m *Metrics) ListSubmitted(owned bool) {
	if m == nil {
		return
	}
	owner := "guest"
	if owned {
		owner = "user"
	}
	m.listsSubmitted.WithLabelValues(owner).Inc()
}

func (m *Metrics) ListFinished(status model.ListStatus) {
	if m == nil {
		return
	}
	m.listsFinished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) TaskCompleted() {
	if m == nil {
		return
	}
	m.tasksCompleted.Inc()
}

func (m *Metrics) ListsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.listsExpired.Add(float64(n))
}
