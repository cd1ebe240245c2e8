// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler runs one cooperative fiber per registered
// Listener. Each fiber owns its own schedule entry; there is no shared
// lock across listeners. Only the "per-listener fiber with a returned
// next-fire timestamp" model is implemented; an older
// round-robin-within-a-single-loop model is not ported.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/oraclelog"
	"github.com/luxfi/oracle/utils"
)

// Listener observes one external source and dispatches Tasks. Run
// returns the absolute millisecond timestamp (Unix epoch) it next
// wants to be invoked; a caught-up listener returns a far-future
// value to self-throttle, a backlogged one returns "now".
type Listener interface {
	ID() string
	Run(ctx context.Context) (nextFireAtMs int64, err error)
}

// schedule is one listener's mutable state. running is an atomic bool
// rather than a mutex-guarded field because exactly one fiber ever
// touches a given schedule; utils.AtomicBool covers single-writer
// flags checked from multiple call sites.
type schedule struct {
	listener     Listener
	nextFireAtMs *utils.AtomicInt
	running      *utils.AtomicBool
}

// idlePoll is how often a fiber checks whether its listener is due.
const idlePoll = 100 * time.Millisecond

// errorBackoff is the delay scheduled after a listener's Run panics or
// returns an error.
const errorBackoff = time.Minute

// Scheduler owns the full set of registered listeners' schedules.
type Scheduler struct {
	schedules []*schedule
	log       *oraclelog.Logger
	now       func() int64

	errsMu sync.Mutex
	errs   oerrors.Errs
}

// New constructs an empty Scheduler.
func New(log *oraclelog.Logger) *Scheduler {
	if log == nil {
		log = oraclelog.NewNop()
	}
	return &Scheduler{
		log: log,
		now: func() int64 { return time.Now().UnixMilli() },
	}
}

// Register adds l with an immediately-due schedule entry. Intended to
// be called before Start; registering after Start is safe but the new
// listener's fiber only begins once Start (or a subsequent call, if
// the caller chooses to support it) spawns it.
func (s *Scheduler) Register(l Listener) {
	s.schedules = append(s.schedules, &schedule{
		listener:     l,
		nextFireAtMs: utils.NewAtomicInt(s.now()),
		running:      utils.NewAtomicBool(false),
	})
}

// Start spawns one fiber per registered listener. It returns
// immediately; the fibers run until ctx is cancelled. Listeners are
// never cancelled individually — cancelling ctx is the only shutdown
// path; each fiber runs until process exit otherwise.
func (s *Scheduler) Start(ctx context.Context) {
	for _, sched := range s.schedules {
		go s.runFiber(ctx, sched)
	}
}

func (s *Scheduler) runFiber(ctx context.Context, sched *schedule) {
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maybeFire(ctx, sched)
		}
	}
}

func (s *Scheduler) maybeFire(ctx context.Context, sched *schedule) {
	if sched.running.Get() {
		return
	}
	if s.now() < sched.nextFireAtMs.Get() {
		return
	}
	sched.running.Set(true)
	go func() {
		defer sched.running.Set(false)
		next := s.runListenerSafely(ctx, sched.listener)
		sched.nextFireAtMs.Set(next)
	}()
}

// runListenerSafely invokes the listener, converting a panic into the
// same one-minute backoff an ordinary error produces. Either failure
// mode is also funneled into the scheduler's accumulated Errors, so a
// caller driving several listeners can inspect every failure across
// the whole fleet after the fact, not just the most recent one logged.
func (s *Scheduler) runListenerSafely(ctx context.Context, l Listener) (nextFireAtMs int64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("listener panicked", zap.String("listener_id", l.ID()), zap.Any("panic", r))
			s.recordErr(oerrors.Wrap(oerrors.KindListener, l.ID(), fmt.Errorf("panic: %v", r)))
			nextFireAtMs = s.now() + errorBackoff.Milliseconds()
		}
	}()

	next, err := l.Run(ctx)
	if err != nil {
		s.log.Warn("listener run failed", zap.String("listener_id", l.ID()), zap.Error(err))
		s.recordErr(oerrors.Wrap(oerrors.KindListener, l.ID(), err))
		return s.now() + errorBackoff.Milliseconds()
	}
	return next
}

// recordErr appends err to the scheduler's accumulated failure list.
func (s *Scheduler) recordErr(err error) {
	s.errsMu.Lock()
	defer s.errsMu.Unlock()
	s.errs.Add(err)
}

// Errors returns every failure accumulated across all listener fibers
// since the scheduler was started, or nil if none have failed.
func (s *Scheduler) Errors() error {
	s.errsMu.Lock()
	defer s.errsMu.Unlock()
	return s.errs.Err()
}
