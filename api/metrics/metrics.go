// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics owns the Prometheus registry plumbing shared by
// apiserver and metricsserver: a combinable Registry/Gatherer pair and
// the external-API-level request counters neither task.Metrics nor
// ratelimit.Limiter's own metrics cover.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registerer is an interface for registering prometheus metrics
type Registerer interface {
	prometheus.Registerer
}

// Registry is an interface for prometheus registry
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a new prometheus registry
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer combines the task coordinator's, the rate limiter's,
// and the external API's independently-registered metrics into one
// /metrics exposition.
type MultiGatherer interface {
	prometheus.Gatherer

	// Register adds a new gatherer to this multi-gatherer
	Register(string, prometheus.Gatherer) error
}

// multiGatherer implements MultiGatherer
type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer creates a new multi-gatherer
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{
		gatherers: make(map[string]prometheus.Gatherer),
	}
}

// Register adds a new gatherer
func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	mg.gatherers[name] = gatherer
	return nil
}

// Gather implements prometheus.Gatherer
func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		metrics, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, metrics...)
	}
	return result, nil
}

// APIMetrics counts external-API traffic: every /task, /sources,
// /health, and /helius/webhook call, labeled by route and outcome.
type APIMetrics interface {
	// RequestsTotal counts one external API request.
	RequestsTotal(route, status string)
	// WebhookEventsDispatched counts one Task dispatched from an
	// accepted webhook delivery.
	WebhookEventsDispatched()
}

// NewAPIMetrics registers APIMetrics' counters on registerer under namespace.
func NewAPIMetrics(namespace string, registerer prometheus.Registerer) (APIMetrics, error) {
	m := &apiMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Number of external API requests served.",
		}, []string{"route", "status"}),
		webhookEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_dispatched_total",
			Help:      "Number of Tasks dispatched from accepted webhook deliveries.",
		}),
	}

	if err := registerer.Register(m.requestsTotal); err != nil {
		return nil, err
	}
	if err := registerer.Register(m.webhookEventsTotal); err != nil {
		return nil, err
	}

	return m, nil
}

type apiMetrics struct {
	requestsTotal      *prometheus.CounterVec
	webhookEventsTotal prometheus.Counter
}

func (m *apiMetrics) RequestsTotal(route, status string) {
	m.requestsTotal.WithLabelValues(route, status).Inc()
}

func (m *apiMetrics) WebhookEventsDispatched() {
	m.webhookEventsTotal.Inc()
}
