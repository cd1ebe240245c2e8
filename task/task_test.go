// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package task

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/plugin"
	"github.com/luxfi/oracle/registry"
)

type sumInput struct{ N int }
type sumPrepared struct{ N int }
type sumAggregated struct {
	Sum        int
	Signatures []string
}
type sumOutput struct{ Final int }

type sumHandler struct {
	id              string
	permanentBelow  int
	nonErrorAbove   int
	executeErr      error
}

func (h sumHandler) ID() string { return h.id }

func (h sumHandler) Prepare(_ context.Context, in sumInput) (sumPrepared, error) {
	if in.N < h.permanentBelow {
		return sumPrepared{}, oerrors.New(oerrors.KindPermanent, "n too small")
	}
	return sumPrepared{N: in.N}, nil
}

func (h sumHandler) Process(_ context.Context, records []plugin.PeerPrepare[sumPrepared]) (sumAggregated, error) {
	sum := 0
	for _, r := range records {
		sum += r.Prepared.N
	}
	if h.nonErrorAbove > 0 && sum > h.nonErrorAbove {
		return sumAggregated{}, oerrors.New(oerrors.KindNonError, "already processed")
	}
	return sumAggregated{Sum: sum}, nil
}

func (sumHandler) Validate(_ context.Context, agg sumAggregated, my sumPrepared) (sumAggregated, error) {
	agg.Signatures = append(agg.Signatures, "sig")
	return agg, nil
}

func (h sumHandler) Execute(_ context.Context, agg sumAggregated) (sumOutput, error) {
	if h.executeErr != nil {
		return sumOutput{}, h.executeErr
	}
	return sumOutput{Final: agg.Sum}, nil
}

type fakePeerClient struct {
	prepareFn  func(ctx context.Context, p config.Peer, pluginID string, input any) (any, error)
	validateFn func(ctx context.Context, p config.Peer, pluginID string, aggregated, preparedData any) (any, error)
}

func (f *fakePeerClient) Prepare(ctx context.Context, p config.Peer, pluginID string, input any) (any, error) {
	return f.prepareFn(ctx, p, pluginID, input)
}

func (f *fakePeerClient) Validate(ctx context.Context, p config.Peer, pluginID string, aggregated, preparedData any) (any, error) {
	return f.validateFn(ctx, p, pluginID, aggregated, preparedData)
}

func singleNodeConfig(minSigs int) *config.Config {
	timeout := int64(5000)
	return &config.Config{
		ID:                    "node-a",
		MinSignaturesRequired: minSigs,
		PeerTimeoutMs:         &timeout,
	}
}

func threeNodeConfig(minSigs int, peerTimeoutMs int64) *config.Config {
	return &config.Config{
		ID:                    "node-a",
		MinSignaturesRequired: minSigs,
		PeerTimeoutMs:         &peerTimeoutMs,
		Peers: []config.Peer{
			{ID: "node-b", PublicKey: hex.EncodeToString(bytes.Repeat([]byte{0xb1}, 33)), Address: "b:9000"},
			{ID: "node-c", PublicKey: hex.EncodeToString(bytes.Repeat([]byte{0xc1}, 33)), Address: "c:9000"},
		},
	}
}

func TestRunSingleNodeHappyPath(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum"}))

	co := New(singleNodeConfig(1), reg, &fakePeerClient{}, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 5})
	require.NoError(t, err)
	require.Equal(t, sumOutput{Final: 5}, out)
}

func TestRunThreeNodeHappyPath(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum"}))

	cfg := threeNodeConfig(3, 5000)
	client := &fakePeerClient{
		prepareFn: func(_ context.Context, p config.Peer, _ string, _ any) (any, error) {
			return sumPrepared{N: 1}, nil
		},
		validateFn: func(_ context.Context, _ config.Peer, _ string, aggregated, _ any) (any, error) {
			agg := aggregated.(sumAggregated)
			agg.Signatures = append(agg.Signatures, "peer-sig")
			return agg, nil
		},
	}

	co := New(cfg, reg, client, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.NoError(t, err)
	result := out.(sumOutput)
	require.Equal(t, 3, result.Final)
}

func TestRunInsufficientPeersWhenPeerUnreachable(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum"}))

	cfg := threeNodeConfig(3, 200)
	client := &fakePeerClient{
		prepareFn: func(_ context.Context, p config.Peer, _ string, _ any) (any, error) {
			if p.ID == "node-c" {
				return nil, errConnRefused
			}
			return sumPrepared{N: 1}, nil
		},
	}

	co := New(cfg, reg, client, []byte("local"), nil, nil)
	_, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.True(t, oerrors.Is(err, oerrors.KindInsufficientPeers))
}

func TestRunTwoOfThreeUnderPartitionSucceeds(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum"}))

	cfg := threeNodeConfig(2, 200)
	client := &fakePeerClient{
		prepareFn: func(_ context.Context, p config.Peer, _ string, _ any) (any, error) {
			if p.ID == "node-c" {
				return nil, errConnRefused
			}
			return sumPrepared{N: 1}, nil
		},
		validateFn: func(_ context.Context, _ config.Peer, _ string, aggregated, _ any) (any, error) {
			agg := aggregated.(sumAggregated)
			agg.Signatures = append(agg.Signatures, "peer-sig")
			return agg, nil
		},
	}

	co := New(cfg, reg, client, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.NoError(t, err)
	require.Equal(t, 2, out.(sumOutput).Final)
}

func TestRunPermanentErrorShortCircuits(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum", permanentBelow: 10}))

	co := New(singleNodeConfig(1), reg, &fakePeerClient{}, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestRunNonErrorAtProcessIsSuccessWithoutExecute(t *testing.T) {
	executed := false
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{
		id:            "sum",
		nonErrorAbove: 1,
		executeErr:    errConnRefused,
	}))
	_ = executed

	co := New(singleNodeConfig(1), reg, &fakePeerClient{}, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 2})
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestRunDuplicateSubmissionIsSuccess(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{
		id:         "sum",
		executeErr: &DuplicateSubmissionError{Err: errConnRefused},
	}))

	co := New(singleNodeConfig(1), reg, &fakePeerClient{}, []byte("local"), nil, nil)
	out, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestRunExecuteErrorPropagates(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{
		id:         "sum",
		executeErr: errConnRefused,
	}))

	co := New(singleNodeConfig(1), reg, &fakePeerClient{}, []byte("local"), nil, nil)
	_, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.True(t, oerrors.Is(err, oerrors.KindExecute))
}

func TestRunUnknownPluginReturnsNotFound(t *testing.T) {
	co := New(singleNodeConfig(1), registry.New(), &fakePeerClient{}, []byte("local"), nil, nil)
	_, err := co.Run(context.Background(), "missing", sumInput{})
	require.True(t, oerrors.Is(err, oerrors.KindNotFound))
}

func TestRunZeroPeerTimeoutRejectsAllPeerContribution(t *testing.T) {
	reg := registry.New()
	reg.Register(plugin.Erase[sumInput, sumPrepared, sumAggregated, sumOutput](sumHandler{id: "sum"}))

	cfg := threeNodeConfig(2, 0)
	slow := &fakePeerClient{
		prepareFn: func(ctx context.Context, _ config.Peer, _ string, _ any) (any, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return sumPrepared{N: 1}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	co := New(cfg, reg, slow, []byte("local"), nil, nil)
	_, err := co.Run(context.Background(), "sum", sumInput{N: 1})
	require.True(t, oerrors.Is(err, oerrors.KindInsufficientPeers))
}

var errConnRefused = &connRefusedError{}

type connRefusedError struct{}

func (*connRefusedError) Error() string { return "connection refused" }
