// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ratelimit wraps fallible async operations in a per-identifier
// moving-window token bucket, as every source-chain RPC call in the
// listener scheduler must be. Callers queue rather than get dropped;
// the queue is process-memory only, bounded by application concurrency.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/luxfi/oracle/oerrors"
)

// Limiter owns one token bucket per key and the metrics describing
// queue depth and wait time across all keys.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter

	queueDepth *prometheus.GaugeVec
	waitTime   *prometheus.HistogramVec
}

// New constructs a Limiter, registering its metrics on registerer under
// namespace: construct, Register, return error.
func New(namespace string, registerer prometheus.Registerer) (*Limiter, error) {
	l := &Limiter{
		buckets: make(map[string]*rate.Limiter),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_queue_depth",
			Help:      "Current number of callers queued on a rate-limiter key.",
		}, []string{"key"}),
		waitTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratelimit_wait_seconds",
			Help:      "Time callers spent waiting for a rate-limiter token.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"key"}),
	}
	if err := registerer.Register(l.queueDepth); err != nil {
		return nil, fmt.Errorf("ratelimit: register queue depth gauge: %w", err)
	}
	if err := registerer.Register(l.waitTime); err != nil {
		return nil, fmt.Errorf("ratelimit: register wait histogram: %w", err)
	}
	return l, nil
}

func (l *Limiter) bucketFor(key string, limit int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(limit), limit)
		l.buckets[key] = b
	}
	return b
}

// SetRate adjusts key's effective rate; ThrottleOn429 uses it to
// throttle a key that is surfacing HTTP 429s. Retry does not call it.
func (l *Limiter) SetRate(key string, limit rate.Limit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		b.SetLimit(limit)
	}
}

// ExecuteThrottled runs fn once a token for key becomes available,
// queueing (not dropping) the caller meanwhile. limit is calls per
// second; it is only consulted the first time key is seen.
func ExecuteThrottled[T any](ctx context.Context, l *Limiter, key string, limit int, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	bucket := l.bucketFor(key, limit)

	start := time.Now()
	gauge := l.queueDepth.WithLabelValues(key)
	gauge.Inc()
	defer gauge.Dec()

	if err := bucket.Wait(ctx); err != nil {
		l.waitTime.WithLabelValues(key).Observe(time.Since(start).Seconds())
		return zero, oerrors.Wrap(oerrors.KindThrottle, key, err)
	}
	l.waitTime.WithLabelValues(key).Observe(time.Since(start).Seconds())

	val, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	return val, nil
}
