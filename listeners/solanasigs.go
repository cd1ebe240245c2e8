// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package listeners

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/oracle/cache"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/oraclelog"
	"github.com/luxfi/oracle/source"
)

// SolanaSigListener scans source.SolanaSource for signatures targeting
// a single program and dispatches each batch as a Task against
// pluginID.
type SolanaSigListener struct {
	id         string
	source     source.SolanaSource
	dispatcher Dispatcher
	programID  string
	pluginID   string
	cfg        config.ListenerConfig
	progress   *progressCache
	log        *oraclelog.Logger
	now        func() time.Time
}

// NewSolanaSigListener wires src against coordinator for one programID.
func NewSolanaSigListener(id string, src source.SolanaSource, programID string, dispatcher Dispatcher, pluginID string, cfg config.ListenerConfig, log *oraclelog.Logger) *SolanaSigListener {
	return &SolanaSigListener{
		id:         id,
		source:     src,
		dispatcher: dispatcher,
		programID:  programID,
		pluginID:   pluginID,
		cfg:        cfg,
		progress:   cache.New[string, uint64](),
		log:        newLog(log),
		now:        time.Now,
	}
}

func (l *SolanaSigListener) ID() string { return l.id }

// Run implements scheduler.Listener.
func (l *SolanaSigListener) Run(ctx context.Context) (int64, error) {
	now := l.now()

	head, err := l.source.CurrentSlot(ctx)
	if err != nil {
		return 0, err
	}
	if head < l.cfg.Lag {
		return throttleNext(now, l.cfg), nil
	}
	safeHead := head - l.cfg.Lag

	since, ok := l.progress.Get(l.id)
	if !ok {
		since = safeHead - minUint64(l.cfg.BlockHeightIncrement, safeHead)
	}
	if since >= safeHead {
		return throttleNext(now, l.cfg), nil
	}

	sigs, err := l.source.SignaturesSince(ctx, l.programID, since+1)
	if err != nil {
		return 0, err
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].Slot < sigs[j].Slot })

	// Bound per-invocation work the same way the EVM listener bounds
	// block ranges, so one call to a backlogged source can't starve
	// other listeners' fibers.
	maxSlot := since + l.cfg.BlockHeightIncrement
	if maxSlot > safeHead {
		maxSlot = safeHead
	}
	bounded := sigs[:0:0]
	for _, sig := range sigs {
		if sig.Slot > maxSlot {
			break
		}
		bounded = append(bounded, sig)
	}

	batchSize := l.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(bounded)
		if batchSize == 0 {
			batchSize = 1
		}
	}
	for i := 0; i < len(bounded); i += batchSize {
		j := i + batchSize
		if j > len(bounded) {
			j = len(bounded)
		}
		if _, err := l.dispatcher.Run(ctx, l.pluginID, bounded[i:j]); err != nil {
			l.log.Warn("solana signature dispatch failed", zap.String("listener_id", l.id), zap.Error(err))
			l.progress.Set(l.id, since, cacheTTL(l.cfg))
			return throttleNext(now, l.cfg), nil
		}
	}

	l.progress.Set(l.id, maxSlot, cacheTTL(l.cfg))
	if maxSlot >= safeHead {
		return throttleNext(now, l.cfg), nil
	}
	return nowFireImmediately(now), nil
}
