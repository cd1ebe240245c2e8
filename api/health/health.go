// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package health aggregates named Checkers into one Report so
// GET /health can fail fast (503) on a dependency that stopped being
// true rather than always answering 200 unconditionally.
package health

import (
	"context"
	"time"
)

// Checker reports whether one dependency or invariant currently holds.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Check is one named checker's outcome.
type Check struct {
	Name     string        `json:"name"`
	Healthy  bool          `json:"healthy"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the combined outcome of every registered Checker.
type Report struct {
	Healthy  bool          `json:"healthy"`
	Checks   []Check       `json:"checks"`
	Duration time.Duration `json:"duration"`
}

// Aggregator runs every registered Checker and combines their results.
type Aggregator struct {
	checkers []Checker
	now      func() time.Time
}

// NewAggregator builds an Aggregator over checkers.
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{checkers: checkers, now: time.Now}
}

// Run executes every checker and returns the combined Report. A
// checker that errors or whose ctx expires counts as unhealthy; the
// rest still run to completion so one slow dependency doesn't mask the
// others' state.
func (a *Aggregator) Run(ctx context.Context) Report {
	start := a.now()
	report := Report{Healthy: true, Checks: make([]Check, 0, len(a.checkers))}

	for _, c := range a.checkers {
		checkStart := a.now()
		err := c.Check(ctx)
		check := Check{Name: c.Name(), Healthy: err == nil, Duration: a.now().Sub(checkStart)}
		if err != nil {
			check.Error = err.Error()
			report.Healthy = false
		}
		report.Checks = append(report.Checks, check)
	}

	report.Duration = a.now().Sub(start)
	return report
}

// CheckerFunc adapts a plain function to the Checker interface.
type CheckerFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckerFunc wraps fn as a named Checker.
func NewCheckerFunc(name string, fn func(context.Context) error) CheckerFunc {
	return CheckerFunc{name: name, fn: fn}
}

func (c CheckerFunc) Name() string                    { return c.name }
func (c CheckerFunc) Check(ctx context.Context) error { return c.fn(ctx) }
