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

// EVMLogListener scans source.EVMSource for logs in bounded windows and
// dispatches each batch as a Task against pluginID.
type EVMLogListener struct {
	id         string
	source     source.EVMSource
	dispatcher Dispatcher
	pluginID   string
	cfg        config.ListenerConfig
	progress   *progressCache
	log        *oraclelog.Logger
	now        func() time.Time
}

// NewEVMLogListener wires src against coordinator, dispatching every
// batch of logs it finds in a window to pluginID.
func NewEVMLogListener(id string, src source.EVMSource, dispatcher Dispatcher, pluginID string, cfg config.ListenerConfig, log *oraclelog.Logger) *EVMLogListener {
	return &EVMLogListener{
		id:         id,
		source:     src,
		dispatcher: dispatcher,
		pluginID:   pluginID,
		cfg:        cfg,
		progress:   cache.New[string, uint64](),
		log:        newLog(log),
		now:        time.Now,
	}
}

func (l *EVMLogListener) ID() string { return l.id }

// Run implements scheduler.Listener.
func (l *EVMLogListener) Run(ctx context.Context) (int64, error) {
	now := l.now()

	head, err := l.source.HeadHeight(ctx)
	if err != nil {
		return 0, err
	}
	if head < l.cfg.Lag {
		return throttleNext(now, l.cfg), nil
	}
	safeHead := head - l.cfg.Lag

	start, ok := l.progress.Get(l.id)
	if !ok {
		// Cold start: backfill at most one window's worth of history
		// rather than replaying from genesis or skipping straight to
		// the tip with nothing processed.
		start = safeHead - minUint64(l.cfg.BlockHeightIncrement, safeHead)
	}
	if start >= safeHead {
		return throttleNext(now, l.cfg), nil
	}

	end := start + l.cfg.BlockHeightIncrement
	if end > safeHead {
		end = safeHead
	}

	logs, err := l.source.LogsInRange(ctx, start+1, end)
	if err != nil {
		return 0, err
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].LogIndex < logs[j].LogIndex
	})

	batchSize := l.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(logs)
		if batchSize == 0 {
			batchSize = 1
		}
	}
	for i := 0; i < len(logs); i += batchSize {
		j := i + batchSize
		if j > len(logs) {
			j = len(logs)
		}
		if _, err := l.dispatcher.Run(ctx, l.pluginID, logs[i:j]); err != nil {
			l.log.Warn("evm log dispatch failed", zap.String("listener_id", l.id), zap.Error(err))
			l.progress.Set(l.id, start, cacheTTL(l.cfg))
			return throttleNext(now, l.cfg), nil
		}
	}

	l.progress.Set(l.id, end, cacheTTL(l.cfg))
	if end >= safeHead {
		return throttleNext(now, l.cfg), nil
	}
	return nowFireImmediately(now), nil
}
