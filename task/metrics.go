// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package task

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the coordinator's observable side effects on a
// successful terminal state: a completion counter and a duration
// histogram, both labelled by plugin id. Failures are never counted
// here — they are logged instead.
type Metrics struct {
	completed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the coordinator's metrics under namespace on
// registerer, in a register-or-fail pattern.
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completed_tasks_total",
			Help:      "Number of tasks that reached a successful terminal state.",
		}, []string{"plugin_id"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall-clock duration of successfully completed tasks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin_id"}),
	}
	if err := registerer.Register(m.completed); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observeSuccess(pluginID string, seconds float64) {
	if m == nil {
		return
	}
	m.completed.WithLabelValues(pluginID).Inc()
	m.duration.WithLabelValues(pluginID).Observe(seconds)
}
