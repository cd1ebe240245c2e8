// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package balanceupdater is a minimal illustrative plugin applying a
// single account's balance delta downstream. It models the
// historically observed AccountLinker behavior of refusing to submit
// without at least two signatures — a plugin-level rule, not a
// protocol invariant the coordinator itself enforces.
package balanceupdater

import (
	"context"
	"fmt"

	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/plugin"
	"github.com/luxfi/oracle/plugins"
	"github.com/luxfi/oracle/source"
	"github.com/luxfi/oracle/task"
)

// ID is the plugin's registry id and config.plugins key.
const ID = "balanceupdater"

// minSignatures is the plugin-level quorum floor, independent of
// config.minSignaturesRequired.
const minSignatures = 2

// Handler implements plugin.Handler[[]source.SolanaSignature,
// map[string]any, map[string]any, string].
type Handler struct {
	pubKey    []byte
	privKey   []byte
	submitter plugins.Submitter
}

// New constructs a Handler.
func New(pubKey, privKey []byte, submitter plugins.Submitter) *Handler {
	return &Handler{pubKey: pubKey, privKey: privKey, submitter: submitter}
}

func (h *Handler) ID() string { return ID }

// Prepare canonicalizes the observed signatures into the delta this
// node believes the account should receive. Real delta computation
// (reading the account's on-chain state) is out of scope; it is
// modeled as one unit per signature observed.
func (h *Handler) Prepare(_ context.Context, sigs []source.SolanaSignature) (map[string]any, error) {
	if len(sigs) == 0 {
		return nil, oerrors.New(oerrors.KindPermanent, "empty signature batch")
	}
	refs := make([]any, 0, len(sigs))
	for _, s := range sigs {
		refs = append(refs, map[string]any{"signature": s.Signature, "slot": s.Slot})
	}
	return map[string]any{"deltas": refs, "amount": int64(len(sigs))}, nil
}

// Process trusts the canonicalization property, same as evmforwarder.
func (h *Handler) Process(_ context.Context, records []plugin.PeerPrepare[map[string]any]) (map[string]any, error) {
	local := records[0].Prepared
	artifact := plugins.NewArtifact("deltas", local["deltas"])
	artifact["amount"] = local["amount"]
	return artifact, nil
}

func (h *Handler) Validate(_ context.Context, aggregated map[string]any, myPrepared map[string]any) (map[string]any, error) {
	return plugins.AppendSignature(aggregated, h.pubKey, h.privKey, myPrepared)
}

// Execute refuses to submit an artifact carrying fewer than
// minSignatures signatures, independent of what quorum the
// coordinator's own prepare-phase check already required.
func (h *Handler) Execute(_ context.Context, aggregated map[string]any) (string, error) {
	if n := plugins.SignatureCount(aggregated); n < minSignatures {
		return "", oerrors.New(oerrors.KindExecute, fmt.Sprintf("balanceupdater: %d signatures, need %d", n, minSignatures))
	}
	if err := h.submitter.Submit(aggregated); err != nil {
		if dup, ok := err.(*task.DuplicateSubmissionError); ok {
			return "", dup
		}
		return "", err
	}
	return "submitted", nil
}
