// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oerrors defines the tagged error taxonomy shared by every
// boundary of the oracle network: plugins, the task coordinator, the
// peer RPC surface, and the listener scheduler.
package oerrors

import (
	"errors"
	"fmt"
)

// Kind tags an OracleError with the taxonomy from the coordination protocol.
type Kind string

const (
	// KindPlugin is an arbitrary plugin-internal failure.
	KindPlugin Kind = "plugin_error"
	// KindPrepare is a Prepare-phase plugin failure.
	KindPrepare Kind = "prepare_error"
	// KindProcess is a Process-phase plugin failure.
	KindProcess Kind = "process_error"
	// KindValidation is a Validate-phase plugin failure, or a signature
	// that failed verification at the /task/validate boundary.
	KindValidation Kind = "validation_error"
	// KindExecute is an Execute-phase plugin failure.
	KindExecute Kind = "execute_error"
	// KindPermanent marks an input the plugin considers structurally
	// un-processable. The coordinator converts this into a vacuous
	// success at Prepare.
	KindPermanent Kind = "permanent_error"
	// KindNonError marks "nothing to do" (e.g. already-processed
	// upstream). The coordinator converts this into success.
	KindNonError Kind = "non_error"
	// KindTimeout is a prepare fan-out deadline, or an RPC budget,
	// being exceeded.
	KindTimeout Kind = "timeout"
	// KindInsufficientPeers means too few prepares were collected to
	// meet quorum.
	KindInsufficientPeers Kind = "insufficient_peers"
	// KindThrottle is a rate-limiter failure.
	KindThrottle Kind = "throttle_error"
	// KindListener is a scheduler.Listener's Run call failing or
	// panicking.
	KindListener Kind = "listener_error"
	// KindUnsupportedContract is a listener dispatch mapping miss.
	KindUnsupportedContract Kind = "unsupported_contract_type"
	// KindNotFound is returned by the plugin registry for unknown ids.
	KindNotFound Kind = "not_found"
)

// OracleError is the tagged error carried across every phase boundary.
type OracleError struct {
	Kind    Kind
	Context string
	Err     error
}

// New constructs an OracleError of the given kind.
func New(kind Kind, context string) *OracleError {
	return &OracleError{Kind: kind, Context: context}
}

// Wrap tags an existing error with a kind, preserving it for errors.Is/As.
func Wrap(kind Kind, context string, err error) *OracleError {
	return &OracleError{Kind: kind, Context: context, Err: err}
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		if e.Context != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return string(e.Kind)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *OracleError with the same Kind, so
// callers can write errors.Is(err, oerrors.New(oerrors.KindTimeout, "")).
func (e *OracleError) Is(target error) bool {
	var o *OracleError
	if !errors.As(target, &o) {
		return false
	}
	return o.Kind == e.Kind
}

// KindOf extracts the Kind from err, or "" if err is not an OracleError.
func KindOf(err error) Kind {
	var o *OracleError
	if errors.As(err, &o) {
		return o.Kind
	}
	return ""
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Errs accumulates multiple errors. Used by the listener scheduler's
// panic/error funnel where several listeners may fail independently.
type Errs struct {
	errs []error
}

// Add appends err to the collection if non-nil.
func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.errs = append(e.errs, err)
}

// Errored reports whether any error has been added.
func (e *Errs) Errored() bool {
	return len(e.errs) > 0
}

// Err returns the accumulated errors as a single error, or nil.
func (e *Errs) Err() error {
	switch len(e.errs) {
	case 0:
		return nil
	case 1:
		return e.errs[0]
	default:
		return errors.Join(e.errs...)
	}
}
