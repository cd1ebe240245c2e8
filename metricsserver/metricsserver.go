// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metricsserver exposes GET /metrics, Prometheus text
// exposition, on its own port — deliberately separate from
// apiserver's external surface so a scrape target never shares a port
// (or its CORS policy) with user-facing routes.
package metricsserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/oracle/api/metrics"
)

// Server serves one combined Prometheus exposition over every
// gatherer registered with it.
type Server struct {
	gatherer metrics.MultiGatherer
}

// New constructs a Server over an empty MultiGatherer; call Register
// for each component's own registry (task.Metrics, ratelimit.Limiter,
// apiserver's APIMetrics) before Handler is ever served.
func New() *Server {
	return &Server{gatherer: metrics.NewMultiGatherer()}
}

// Register adds a named component's gatherer to the exposition. name
// is only used for Register's own bookkeeping; it does not appear on
// the wire.
func (s *Server) Register(name string, g prometheus.Gatherer) error {
	return s.gatherer.Register(name, g)
}

// Handler returns the /metrics HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}
