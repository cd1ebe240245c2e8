// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewAPIMetricsRegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewAPIMetrics("oracle", reg)
	require.NoError(t, err)

	m.RequestsTotal("/task", "OK")
	m.WebhookEventsDispatched()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestMultiGathererCombinesRegisteredGatherers(t *testing.T) {
	regA := prometheus.NewRegistry()
	counterA := prometheus.NewCounter(prometheus.CounterOpts{Name: "a_total", Help: "a"})
	require.NoError(t, regA.Register(counterA))

	regB := prometheus.NewRegistry()
	counterB := prometheus.NewCounter(prometheus.CounterOpts{Name: "b_total", Help: "b"})
	require.NoError(t, regB.Register(counterB))

	mg := NewMultiGatherer()
	require.NoError(t, mg.Register("a", regA))
	require.NoError(t, mg.Register("b", regB))

	families, err := mg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)
}

func TestNewLabeledGathererInjectsConstantLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "c_total", Help: "c"})
	counter.Inc()
	require.NoError(t, reg.Register(counter))

	labeled := NewLabeledGatherer(reg, "node_id", "node-a")
	families, err := labeled.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Len(t, families[0].Metric, 1)
	labels := families[0].Metric[0].Label
	require.Len(t, labels, 1)
	require.Equal(t, "node_id", labels[0].GetName())
	require.Equal(t, "node-a", labels[0].GetValue())
}
