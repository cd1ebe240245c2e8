// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RetryOptions parameterizes the single retry combinator that replaces
// the ad-hoc try/catch wrapping the source system used in several
// places (rate-limiter retry-on-429, peer post, downstream chain submit
// with 409-as-success). The 409-as-success rule itself is documented
// and applied at exactly one place: task.Coordinator's Execute phase,
// not here.
type RetryOptions struct {
	// Predicate reports whether err is worth retrying.
	Predicate func(err error) bool
	// BaseDelay is the first backoff delay.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// MaxAttempts bounds the total number of tries, including the first.
	MaxAttempts int
}

// DefaultRetryOn429 matches the source's retryOn429 helper: exponential
// backoff doubling from 500ms to a 15s cap, one retry per call site.
func DefaultRetryOn429(isRateLimited func(err error) bool) RetryOptions {
	return RetryOptions{
		Predicate:   isRateLimited,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
		MaxAttempts: 2,
	}
}

// Retry runs fn, retrying per opts on failure. On exhaustion the last
// error propagates unchanged.
func Retry[T any](ctx context.Context, opts RetryOptions, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := opts.BaseDelay
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err
		if opts.Predicate != nil && !opts.Predicate(err) {
			return zero, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
	return zero, lastErr
}

// ThrottleOn429 lowers key's effective rate on the limiter to
// reducedLimit. The lower rate stays in force until SetRate is called
// again for key; ThrottleOn429 does not restore the previous rate.
func ThrottleOn429(l *Limiter, key string, reducedLimit int) {
	l.SetRate(key, rate.Limit(reducedLimit))
}
