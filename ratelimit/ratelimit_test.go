// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/oracle/oerrors"
)

func TestExecuteThrottledRunsFn(t *testing.T) {
	l, err := New("test", prometheus.NewRegistry())
	require.NoError(t, err)

	ctx := context.Background()
	got, err := ExecuteThrottled(ctx, l, "ethereum", 100, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestExecuteThrottledPropagatesFnError(t *testing.T) {
	l, err := New("test2", prometheus.NewRegistry())
	require.NoError(t, err)

	wantErr := errors.New("boom")
	_, err = ExecuteThrottled(context.Background(), l, "solana", 100, func(context.Context) (int, error) {
		return 0, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestExecuteThrottledCancelledContext(t *testing.T) {
	l, err := New("test3", prometheus.NewRegistry())
	require.NoError(t, err)

	// Exhaust the single-token bucket so the next call must wait.
	l.bucketFor("k", 1).Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ExecuteThrottled(ctx, l, "k", 1, func(context.Context) (int, error) {
		return 1, nil
	})
	require.Error(t, err)
	require.Equal(t, oerrors.KindThrottle, oerrors.KindOf(err))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := Retry(context.Background(), RetryOptions{
		Predicate:   func(error) bool { return true },
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		MaxAttempts: 3,
	}, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("429")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 2, attempts)
}

func TestRetryStopsOnNonRetryablePredicate(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryOptions{
		Predicate:   func(error) bool { return false },
		MaxAttempts: 5,
	}, func(context.Context) (string, error) {
		attempts++
		return "", errors.New("permanent")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := Retry(context.Background(), RetryOptions{
		Predicate:   func(error) bool { return true },
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		MaxAttempts: 3,
	}, func(context.Context) (string, error) {
		attempts++
		return "", errors.New("still failing")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}
