// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// NewLabeledGatherer wraps inner, injecting {labelName: labelValue}
// into every metric family it gathers. cmd/oracle-node wraps the
// registry it hands to metricsserver with this to tag every exposed
// series with this node's config.id, since a single
// Prometheus scrape target otherwise carries no node identity of its
// own.
func NewLabeledGatherer(inner prometheus.Gatherer, labelName, labelValue string) prometheus.Gatherer {
	return &labeledGatherer{inner: inner, labelName: labelName, labelValue: labelValue}
}

type labeledGatherer struct {
	inner      prometheus.Gatherer
	labelName  string
	labelValue string
}

func (g *labeledGatherer) Gather() ([]*dto.MetricFamily, error) {
	families, err := g.inner.Gather()
	if err != nil {
		return nil, err
	}
	label := &dto.LabelPair{Name: &g.labelName, Value: &g.labelValue}
	for _, family := range families {
		for _, m := range family.Metric {
			m.Label = append(m.Label, label)
		}
	}
	return families, nil
}
