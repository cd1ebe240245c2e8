// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package listeners

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/source"
)

type fakeEVMSource struct {
	head uint64
	logs []source.Log
}

func (f *fakeEVMSource) HeadHeight(context.Context) (uint64, error) { return f.head, nil }
func (f *fakeEVMSource) LogsInRange(_ context.Context, from, to uint64) ([]source.Log, error) {
	var out []source.Log
	for _, l := range f.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			out = append(out, l)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	calls [][]any
	err   error
}

func (d *recordingDispatcher) Run(_ context.Context, _ string, input any) (any, error) {
	d.calls = append(d.calls, []any{input})
	return nil, d.err
}

func TestEVMLogListenerDispatchesOrderedWindow(t *testing.T) {
	src := &fakeEVMSource{
		head: 120,
		logs: []source.Log{
			{BlockNumber: 105, LogIndex: 1, TxHash: "b"},
			{BlockNumber: 105, LogIndex: 0, TxHash: "a"},
		},
	}
	disp := &recordingDispatcher{}
	cfg := config.ListenerConfig{BlockHeightIncrement: 1000, Lag: 10, BatchSize: 10, ThrottleOnSuccessMs: 1000}

	l := NewEVMLogListener("evm-1", src, disp, "evmforwarder", cfg, nil)
	next, err := l.Run(context.Background())
	require.NoError(t, err)
	require.Positive(t, next)
	require.Len(t, disp.calls, 1)

	batch, ok := disp.calls[0][0].([]source.Log)
	require.True(t, ok)
	require.Len(t, batch, 2)
	require.Equal(t, "a", batch[0].TxHash)
	require.Equal(t, "b", batch[1].TxHash)
}

func TestEVMLogListenerCaughtUpThrottles(t *testing.T) {
	src := &fakeEVMSource{head: 5}
	disp := &recordingDispatcher{}
	cfg := config.ListenerConfig{BlockHeightIncrement: 1000, Lag: 10, ThrottleOnSuccessMs: 5000}

	l := NewEVMLogListener("evm-1", src, disp, "evmforwarder", cfg, nil)
	_, err := l.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, disp.calls)
}

func TestEVMLogListenerDispatchFailureDoesNotAdvanceCursor(t *testing.T) {
	src := &fakeEVMSource{head: 120, logs: []source.Log{{BlockNumber: 105, LogIndex: 0, TxHash: "a"}}}
	disp := &recordingDispatcher{err: errors.New("boom")}
	cfg := config.ListenerConfig{BlockHeightIncrement: 1000, Lag: 10, BatchSize: 10, ThrottleOnSuccessMs: 1000}

	l := NewEVMLogListener("evm-1", src, disp, "evmforwarder", cfg, nil)
	_, err := l.Run(context.Background())
	require.NoError(t, err)

	cursor, ok := l.progress.Get("evm-1")
	require.True(t, ok)
	require.Equal(t, uint64(0), cursor)
}

type fakeSolanaSource struct {
	slot uint64
	sigs []source.SolanaSignature
}

func (f *fakeSolanaSource) CurrentSlot(context.Context) (uint64, error) { return f.slot, nil }
func (f *fakeSolanaSource) SignaturesSince(_ context.Context, _ string, since uint64) ([]source.SolanaSignature, error) {
	var out []source.SolanaSignature
	for _, s := range f.sigs {
		if s.Slot >= since {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestSolanaSigListenerDispatchesOrderedWindow(t *testing.T) {
	src := &fakeSolanaSource{
		slot: 1000,
		sigs: []source.SolanaSignature{
			{Signature: "two", Slot: 902},
			{Signature: "one", Slot: 901},
		},
	}
	disp := &recordingDispatcher{}
	cfg := config.ListenerConfig{BlockHeightIncrement: 1000, Lag: 10, BatchSize: 10, ThrottleOnSuccessMs: 1000}

	l := NewSolanaSigListener("sol-1", src, "programX", disp, "balanceupdater", cfg, nil)
	_, err := l.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, disp.calls, 1)

	batch, ok := disp.calls[0][0].([]source.SolanaSignature)
	require.True(t, ok)
	require.Len(t, batch, 2)
	require.Equal(t, "one", batch[0].Signature)
	require.Equal(t, "two", batch[1].Signature)
}

func TestSolanaSigListenerCaughtUpThrottles(t *testing.T) {
	src := &fakeSolanaSource{slot: 5}
	disp := &recordingDispatcher{}
	cfg := config.ListenerConfig{Lag: 10, ThrottleOnSuccessMs: 5000}

	l := NewSolanaSigListener("sol-1", src, "programX", disp, "balanceupdater", cfg, nil)
	_, err := l.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, disp.calls)
}
