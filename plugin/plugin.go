// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package plugin defines the polymorphic handler contract the task
// coordinator drives through Prepare, Process, Validate, and Execute.
// A concrete plugin is written against Handler, which is generic over
// its four associated types; the registry and coordinator only ever
// see the type-erased Plugin, the "erased trait object" the design
// notes call for once the handler leaves its own package.
package plugin

import (
	"context"

	"github.com/luxfi/oracle/oerrors"
)

// PeerPrepare is one contributor's prepared value as process sees it.
type PeerPrepare[P any] struct {
	PeerPublicKey []byte
	Prepared      P
}

// Handler is the strongly typed contract a concrete plugin implements.
// Input, Prepared, Aggregated, and Output are the plugin's own types;
// nothing here constrains their shape beyond being codec-encodable.
type Handler[In, Prepared, Aggregated, Out any] interface {
	// ID identifies the plugin in the registry and in config.plugins.<id>.
	ID() string

	// Prepare must be deterministic enough that honest nodes produce
	// equivalent Prepared values for the same input. Returning an
	// error tagged oerrors.KindPermanent short-circuits the task to a
	// vacuous success instead of fanning out to peers.
	Prepare(ctx context.Context, input In) (Prepared, error)

	// Process runs on the primary only, combining every contributed
	// Prepared value — local first, peers in arrival order — into one
	// Aggregated artifact. Returning oerrors.KindNonError reports the
	// task as a no-op success without invoking Execute.
	Process(ctx context.Context, records []PeerPrepare[Prepared]) (Aggregated, error)

	// Validate re-examines aggregated against the caller's own
	// preparation and returns aggregated with its signature appended.
	// Implementations must append, never replace, prior signatures.
	Validate(ctx context.Context, aggregated Aggregated, myPrepared Prepared) (Aggregated, error)

	// Execute runs on the primary only, submitting the final artifact
	// downstream. A duplicate-submission signal is the caller's
	// responsibility to surface as a recognizable error; the
	// coordinator treats an HTTP 409 specifically as success.
	Execute(ctx context.Context, aggregated Aggregated) (Out, error)
}

// Plugin is the type-erased form every Handler is registered as. The
// coordinator, peer server, and registry work exclusively in terms of
// Plugin so that a single process-wide map can hold handlers whose
// concrete associated types differ per plugin id.
type Plugin interface {
	ID() string
	Prepare(ctx context.Context, input any) (any, error)
	Process(ctx context.Context, records []PeerPrepare[any]) (any, error)
	Validate(ctx context.Context, aggregated any, myPrepared any) (any, error)
	Execute(ctx context.Context, aggregated any) (any, error)
}

// erased adapts a strongly typed Handler to the erased Plugin
// interface via runtime type assertions. The coordinator only ever
// feeds an erased plugin values it obtained from that same plugin, so
// a mismatched assertion indicates a coordinator bug, not bad input;
// it is reported as a plugin_error rather than allowed to panic.
type erased[In, Prepared, Aggregated, Out any] struct {
	h Handler[In, Prepared, Aggregated, Out]
}

// Erase wraps a strongly typed Handler as a type-erased Plugin, ready
// for registry.Register.
func Erase[In, Prepared, Aggregated, Out any](h Handler[In, Prepared, Aggregated, Out]) Plugin {
	return erased[In, Prepared, Aggregated, Out]{h: h}
}

func (e erased[In, Prepared, Aggregated, Out]) ID() string { return e.h.ID() }

func (e erased[In, Prepared, Aggregated, Out]) Prepare(ctx context.Context, input any) (any, error) {
	typed, ok := input.(In)
	if !ok {
		return nil, oerrors.New(oerrors.KindPlugin, e.h.ID()+": prepare: input type mismatch")
	}
	return e.h.Prepare(ctx, typed)
}

func (e erased[In, Prepared, Aggregated, Out]) Process(ctx context.Context, records []PeerPrepare[any]) (any, error) {
	typed := make([]PeerPrepare[Prepared], 0, len(records))
	for _, r := range records {
		p, ok := r.Prepared.(Prepared)
		if !ok {
			return nil, oerrors.New(oerrors.KindPlugin, e.h.ID()+": process: prepared type mismatch")
		}
		typed = append(typed, PeerPrepare[Prepared]{PeerPublicKey: r.PeerPublicKey, Prepared: p})
	}
	return e.h.Process(ctx, typed)
}

func (e erased[In, Prepared, Aggregated, Out]) Validate(ctx context.Context, aggregated, myPrepared any) (any, error) {
	aggTyped, ok := aggregated.(Aggregated)
	if !ok {
		return nil, oerrors.New(oerrors.KindPlugin, e.h.ID()+": validate: aggregated type mismatch")
	}
	prepTyped, ok := myPrepared.(Prepared)
	if !ok {
		return nil, oerrors.New(oerrors.KindPlugin, e.h.ID()+": validate: prepared type mismatch")
	}
	return e.h.Validate(ctx, aggTyped, prepTyped)
}

func (e erased[In, Prepared, Aggregated, Out]) Execute(ctx context.Context, aggregated any) (any, error) {
	typed, ok := aggregated.(Aggregated)
	if !ok {
		return nil, oerrors.New(oerrors.KindPlugin, e.h.ID()+": execute: aggregated type mismatch")
	}
	return e.h.Execute(ctx, typed)
}
