// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package task implements the four-phase coordination protocol —
// Prepare, Process, Validate, Execute — that binds a primary node to
// its peers. A Coordinator drives exactly one Task per Run call; it
// does not decide when to run, only how.
package task

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/oraclelog"
	"github.com/luxfi/oracle/plugin"
	"github.com/luxfi/oracle/registry"
)

// PeerClient is the transport capability the coordinator needs from
// the peer package. It is declared here, not imported from peer, so
// that peer.Client can satisfy it structurally without either package
// importing the other; peer.Client is the concrete implementation
// wired at startup.
type PeerClient interface {
	// Prepare posts a prepare request to p and returns its decoded
	// prepared value. The client itself verifies the peer's response
	// signature against p's configured public key before returning;
	// a failed verification is reported as an error, never silently
	// dropped.
	Prepare(ctx context.Context, p config.Peer, pluginID string, input any) (prepared any, err error)

	// Validate posts a validate request to p, forwarding the chain's
	// current aggregated value and the named contributing peer's
	// prepared value. The client signs preparedData with the local
	// node's own key before sending, since every inbound
	// /task/validate body must verify under the primary's public key
	// and only the relaying primary can produce that signature, and
	// returns the peer's new aggregated value with its signature
	// appended.
	Validate(ctx context.Context, p config.Peer, pluginID string, aggregated, preparedData any) (any, error)
}

// DuplicateSubmissionError marks an Execute failure the downstream
// chain reported as an already-applied duplicate (HTTP 409). Plugins
// whose Execute talks to a chain with 409-on-duplicate semantics
// should wrap that specific condition in this type; the coordinator
// treats it as success, exactly once, at this single call site.
type DuplicateSubmissionError struct {
	Err error
}

func (e *DuplicateSubmissionError) Error() string { return e.Err.Error() }
func (e *DuplicateSubmissionError) Unwrap() error { return e.Err }

// peerPrepareRecord is one contributor's prepare result as the
// coordinator tracks it internally, before erasure into
// plugin.PeerPrepare for Process.
type peerPrepareRecord struct {
	peerPublicKey []byte
	prepared      any
	// isLocal marks the coordinator's own contribution, which validate
	// skips when relaying to peers. Records keep only the public key and
	// the decoded prepared value; no encoded bytes or signatures.
	isLocal bool
}

// Coordinator drives Tasks for one node. It holds no per-task state
// between calls to Run; everything task-scoped lives on the stack of
// that call.
type Coordinator struct {
	cfg         *config.Config
	registry    *registry.Registry
	client      PeerClient
	localPubKey []byte
	metrics     *Metrics
	log         *oraclelog.Logger
	now         func() time.Time
}

// New constructs a Coordinator. localPubKey is this node's own
// 33-byte compressed public key, used to tag the local prepare record.
func New(cfg *config.Config, reg *registry.Registry, client PeerClient, localPubKey []byte, metrics *Metrics, log *oraclelog.Logger) *Coordinator {
	if log == nil {
		log = oraclelog.NewNop()
	}
	return &Coordinator{
		cfg:         cfg,
		registry:    reg,
		client:      client,
		localPubKey: localPubKey,
		metrics:     metrics,
		log:         log,
		now:         time.Now,
	}
}

// Run drives pluginID through all four phases for input and returns
// the plugin's Output on success. A nil error with a nil value can
// mean either a genuine Output-less success (permanent_error or
// non_error short-circuit) or a plugin whose Output is naturally nil;
// callers that need to distinguish should inspect the returned value.
func (c *Coordinator) Run(ctx context.Context, pluginID string, input any) (any, error) {
	startedAt := c.now()
	log := c.log.With(zap.String("plugin_id", pluginID))

	h, err := c.registry.Get(pluginID)
	if err != nil {
		log.Error("plugin lookup failed", zap.Error(err))
		return nil, err
	}

	records, localPrepared, shortCircuit, err := c.prepare(ctx, h, pluginID, input, log)
	if err != nil {
		log.Error("prepare phase failed", zap.String("phase", "prepare"), zap.Error(err))
		return nil, err
	}
	if shortCircuit {
		log.Info("task short-circuited at prepare", zap.String("phase", "prepare"))
		c.metrics.observeSuccess(pluginID, c.now().Sub(startedAt).Seconds())
		return nil, nil
	}

	aggregated, nonError, err := c.process(ctx, h, records)
	if err != nil {
		log.Error("process phase failed", zap.String("phase", "process"), zap.Error(err))
		return nil, err
	}
	if nonError {
		log.Info("task is a no-op", zap.String("phase", "process"))
		c.metrics.observeSuccess(pluginID, c.now().Sub(startedAt).Seconds())
		return nil, nil
	}

	finalAggregated, err := c.validate(ctx, h, pluginID, aggregated, localPrepared, records)
	if err != nil {
		log.Error("validate phase failed", zap.String("phase", "validate"), zap.Error(err))
		return nil, err
	}

	output, err := c.execute(ctx, h, finalAggregated)
	if err != nil {
		log.Error("execute phase failed", zap.String("phase", "execute"), zap.Error(err))
		return nil, err
	}

	c.metrics.observeSuccess(pluginID, c.now().Sub(startedAt).Seconds())
	return output, nil
}

// prepare runs Phase 1. shortCircuit reports a permanent_error vacuous
// success; records always carries the local contribution first when
// shortCircuit is false.
func (c *Coordinator) prepare(ctx context.Context, h plugin.Plugin, pluginID string, input any, log *oraclelog.Logger) (records []peerPrepareRecord, localPrepared any, shortCircuit bool, err error) {
	localPrepared, err = h.Prepare(ctx, input)
	if err != nil {
		if oerrors.Is(err, oerrors.KindPermanent) {
			return nil, nil, true, nil
		}
		return nil, nil, false, oerrors.Wrap(oerrors.KindPrepare, pluginID, err)
	}

	records = []peerPrepareRecord{{peerPublicKey: c.localPubKey, prepared: localPrepared, isLocal: true}}

	if len(c.cfg.Peers) == 0 {
		if len(records) < c.cfg.MinSignaturesRequired {
			return nil, nil, false, oerrors.New(oerrors.KindInsufficientPeers, pluginID)
		}
		return records, localPrepared, false, nil
	}

	timeout := c.cfg.PeerTimeout()
	var fanCtx context.Context
	var cancel context.CancelFunc
	if timeout <= 0 {
		// An explicit zero timeout means no peer contribution is ever
		// accepted: the fan-out context is already expired.
		fanCtx, cancel = context.WithTimeout(ctx, 0)
	} else {
		fanCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type peerResult struct {
		rec peerPrepareRecord
		ok  bool
	}
	results := make(chan peerResult, len(c.cfg.Peers))
	var wg sync.WaitGroup
	for _, p := range c.cfg.Peers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			prepared, perr := c.client.Prepare(fanCtx, p, pluginID, input)
			if perr != nil {
				log.Warn("peer prepare failed", zap.String("peer_id", p.ID), zap.Error(perr))
				results <- peerResult{ok: false}
				return
			}
			pubKey, derr := decodeHexPubKey(p.PublicKey)
			if derr != nil {
				results <- peerResult{ok: false}
				return
			}
			results <- peerResult{ok: true, rec: peerPrepareRecord{peerPublicKey: pubKey, prepared: prepared}}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.ok {
			records = append(records, r.rec)
		}
	}

	if len(records) < c.cfg.MinSignaturesRequired {
		return nil, nil, false, oerrors.New(oerrors.KindInsufficientPeers, pluginID)
	}
	return records, localPrepared, false, nil
}

// process runs Phase 2.
func (c *Coordinator) process(ctx context.Context, h plugin.Plugin, records []peerPrepareRecord) (aggregated any, nonError bool, err error) {
	erasedRecords := make([]plugin.PeerPrepare[any], 0, len(records))
	for _, r := range records {
		erasedRecords = append(erasedRecords, plugin.PeerPrepare[any]{PeerPublicKey: r.peerPublicKey, Prepared: r.prepared})
	}

	aggregated, err = h.Process(ctx, erasedRecords)
	if err != nil {
		if oerrors.Is(err, oerrors.KindNonError) {
			return nil, true, nil
		}
		return nil, false, oerrors.Wrap(oerrors.KindProcess, h.ID(), err)
	}
	return aggregated, false, nil
}

// validate runs Phase 3, serially: local first, then each contributing
// peer in config.Peers order, excluding self.
func (c *Coordinator) validate(ctx context.Context, h plugin.Plugin, pluginID string, aggregated, localPrepared any, records []peerPrepareRecord) (any, error) {
	current, err := h.Validate(ctx, aggregated, localPrepared)
	if err != nil {
		return nil, oerrors.Wrap(oerrors.KindValidation, pluginID, err)
	}

	contributed := make(map[string]peerPrepareRecord, len(records))
	for _, r := range records {
		if r.isLocal {
			continue
		}
		contributed[string(r.peerPublicKey)] = r
	}

	for _, p := range c.cfg.Peers {
		pubKey, derr := decodeHexPubKey(p.PublicKey)
		if derr != nil {
			continue
		}
		rec, ok := contributed[string(pubKey)]
		if !ok {
			continue
		}
		current, err = c.client.Validate(ctx, p, pluginID, current, rec.prepared)
		if err != nil {
			return nil, oerrors.Wrap(oerrors.KindValidation, pluginID, err)
		}
	}
	return current, nil
}

// execute runs Phase 4. A DuplicateSubmissionError anywhere in err's
// chain is treated as success, documented and implemented at exactly
// this one call site.
func (c *Coordinator) execute(ctx context.Context, h plugin.Plugin, aggregated any) (any, error) {
	output, err := h.Execute(ctx, aggregated)
	if err != nil {
		var dup *DuplicateSubmissionError
		if errors.As(err, &dup) {
			return nil, nil
		}
		return nil, oerrors.Wrap(oerrors.KindExecute, h.ID(), err)
	}
	return output, nil
}

// decodeHexPubKey decodes a config-supplied hex public key, matching
// the form peer.Client emits over the wire.
func decodeHexPubKey(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
