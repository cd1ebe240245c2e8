// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package plugins holds the pieces evmforwarder and balanceupdater
// share: the signed-artifact shape every Aggregated value takes on the
// wire, and the downstream-submission seam both plugins' Execute calls
// through. Concrete plugin bodies are external collaborators per the
// coordination protocol; these two exist to exercise the registry and
// coordinator end to end, not to be production forwarders.
package plugins

import (
	"encoding/hex"
	"fmt"

	"github.com/luxfi/oracle/codec"
	"github.com/luxfi/oracle/crypto"
)

// Submitter abstracts the downstream abstraction-chain client an
// Execute call would post the final artifact to. A 409-style duplicate
// should be reported via task.DuplicateSubmissionError, which the
// coordinator treats as success at exactly one call site.
type Submitter interface {
	Submit(artifact map[string]any) error
}

// NewArtifact seeds an Aggregated value with its payload under key and
// an empty signer/signature list, ready for AppendSignature.
func NewArtifact(key string, payload any) map[string]any {
	return map[string]any{
		key:          payload,
		"signers":    []any{},
		"signatures": []any{},
	}
}

// AppendSignature signs encode(prepared) with priv and appends
// {peerPublicKey, signature} to artifact's signer/signature lists,
// never replacing what is already there: Validate must append, not
// replace, signatures.
func AppendSignature(artifact map[string]any, pub, priv []byte, prepared any) (map[string]any, error) {
	encoded, err := codec.Encode(prepared)
	if err != nil {
		return nil, fmt.Errorf("plugins: encode prepared value: %w", err)
	}
	sig, err := crypto.Sign(encoded, priv)
	if err != nil {
		return nil, fmt.Errorf("plugins: sign prepared value: %w", err)
	}

	signers, _ := artifact["signers"].([]any)
	signatures, _ := artifact["signatures"].([]any)

	out := make(map[string]any, len(artifact))
	for k, v := range artifact {
		out[k] = v
	}
	out["signers"] = append(append([]any{}, signers...), hex.EncodeToString(pub))
	out["signatures"] = append(append([]any{}, signatures...), hex.EncodeToString(sig))
	return out, nil
}

// SignatureCount reports how many entries artifact's signature list
// carries, for plugin-level quorum checks at Execute.
func SignatureCount(artifact map[string]any) int {
	signatures, _ := artifact["signatures"].([]any)
	return len(signatures)
}
