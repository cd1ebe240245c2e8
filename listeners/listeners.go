// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package listeners provides two illustrative scheduler.Listener
// implementations — an EVM log-range scanner and a Solana
// signature-since-slot scanner — built against the source package's
// adapter interfaces: bounded window, a small lag to tolerate reorgs,
// strictly ordered dispatch, and a cold-start progress marker kept in
// a TTL cache that each listener owns; listeners do not share a cache.
package listeners

import (
	"context"
	"time"

	"github.com/luxfi/oracle/cache"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/oraclelog"
)

// Dispatcher is the capability a listener needs to turn dispatched
// events into Tasks. task.Coordinator satisfies this directly.
type Dispatcher interface {
	Run(ctx context.Context, pluginID string, input any) (any, error)
}

// progressCache is the shared type both listeners use to persist their
// last processed height/slot cursor across invocations, keeping each
// listener idempotent with respect to its own progress marker.
type progressCache = cache.TTLCache[string, uint64]

func throttleNext(now time.Time, cfg config.ListenerConfig) int64 {
	return now.Add(time.Duration(cfg.ThrottleOnSuccessMs) * time.Millisecond).UnixMilli()
}

func nowFireImmediately(now time.Time) int64 {
	return now.UnixMilli()
}

// cacheTTL bounds how long a progress cursor survives without being
// refreshed; a listener that stops being scheduled for longer than
// this re-derives its starting point from the source's current head
// rather than trusting a stale cursor.
func cacheTTL(cfg config.ListenerConfig) time.Duration {
	if cfg.CacheTTLMs <= 0 {
		return time.Hour
	}
	return time.Duration(cfg.CacheTTLMs) * time.Millisecond
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func newLog(log *oraclelog.Logger) *oraclelog.Logger {
	if log == nil {
		return oraclelog.NewNop()
	}
	return log
}
