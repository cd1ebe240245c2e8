// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package evmforwarder is a minimal illustrative plugin: it takes a
// batch of EVM logs, canonicalizes them into one signed artifact, and
// forwards the artifact downstream once quorum signs off. It exists to
// exercise the coordinator and registry end to end; a real forwarder's
// business logic (decoding events, mapping them to a destination
// chain's call data) is out of scope.
package evmforwarder

import (
	"context"

	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/plugin"
	"github.com/luxfi/oracle/plugins"
	"github.com/luxfi/oracle/source"
	"github.com/luxfi/oracle/task"
)

// ID is the plugin's registry id and config.plugins key.
const ID = "evmforwarder"

// Handler implements plugin.Handler[[]source.Log, map[string]any,
// map[string]any, string].
type Handler struct {
	pubKey    []byte
	privKey   []byte
	submitter plugins.Submitter
}

// New constructs a Handler. pubKey/privKey are this node's own
// secp256k1 keypair, used to sign every Validate call it services.
func New(pubKey, privKey []byte, submitter plugins.Submitter) *Handler {
	return &Handler{pubKey: pubKey, privKey: privKey, submitter: submitter}
}

func (h *Handler) ID() string { return ID }

// Prepare canonicalizes logs into a deterministic map so that every
// honest peer's encode(Prepare(logs)) byte-string is identical.
func (h *Handler) Prepare(_ context.Context, logs []source.Log) (map[string]any, error) {
	if len(logs) == 0 {
		return nil, oerrors.New(oerrors.KindPermanent, "empty log batch")
	}
	events := make([]any, 0, len(logs))
	for _, l := range logs {
		topics := make([]any, 0, len(l.Topics))
		for _, t := range l.Topics {
			topics = append(topics, t)
		}
		events = append(events, map[string]any{
			"blockNumber": l.BlockNumber,
			"logIndex":    l.LogIndex,
			"txHash":      l.TxHash,
			"address":     l.Address,
			"topics":      topics,
			"data":        l.Data,
		})
	}
	return map[string]any{"events": events}, nil
}

// Process trusts the canonicalization property: every contributing
// peer observed the same source-chain state, so their Prepared values
// are byte-identical and the local (first) one stands for all.
func (h *Handler) Process(_ context.Context, records []plugin.PeerPrepare[map[string]any]) (map[string]any, error) {
	local := records[0].Prepared
	return plugins.NewArtifact("events", local["events"]), nil
}

// Validate appends this node's signature over encode(myPrepared) to
// aggregated's signer/signature lists.
func (h *Handler) Validate(_ context.Context, aggregated map[string]any, myPrepared map[string]any) (map[string]any, error) {
	return plugins.AppendSignature(aggregated, h.pubKey, h.privKey, myPrepared)
}

// Execute submits the fully-signed artifact downstream. A submitter
// that signals duplicate submission is surfaced as
// *task.DuplicateSubmissionError so the coordinator treats it as
// success.
func (h *Handler) Execute(_ context.Context, aggregated map[string]any) (string, error) {
	if err := h.submitter.Submit(aggregated); err != nil {
		if dup, ok := err.(*task.DuplicateSubmissionError); ok {
			return "", dup
		}
		return "", err
	}
	return "submitted", nil
}
