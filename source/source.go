// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package source declares the thin, illustrative external-collaborator
// interfaces a concrete listener needs: the current chain head, a
// bounded log query, and a Solana-style signature-since-slot query.
// Concrete RPC providers (Alchemy, Infura, QuickNode, Ankr, or a plain
// JSON-RPC endpoint per config.RPCSource) are non-goals; only the
// shape a listener depends on is specified here.
package source

import "context"

// Log is one EVM event log entry, ordered within a window by
// (BlockNumber, LogIndex) ascending.
type Log struct {
	BlockNumber uint64
	LogIndex    uint64
	TxHash      string
	Address     string
	Topics      []string
	Data        []byte
}

// EventID returns the stable dedup key for l: "txHash-logIndex".
func (l Log) EventID() string {
	return l.TxHash + "-" + itoa(l.LogIndex)
}

// EVMSource abstracts the calls an EVM-style listener needs.
type EVMSource interface {
	// HeadHeight returns the current indexed block height.
	HeadHeight(ctx context.Context) (uint64, error)
	// LogsInRange returns every log with BlockNumber in [from, to],
	// in no particular order; callers sort before dispatch.
	LogsInRange(ctx context.Context, from, to uint64) ([]Log, error)
}

// SolanaSignature is one transaction signature observed for a program,
// tagged with the slot it landed in for ordered dispatch.
type SolanaSignature struct {
	Signature string
	Slot      uint64
}

// EventID returns the stable dedup key for sig: the signature itself.
func (sig SolanaSignature) EventID() string {
	return sig.Signature
}

// SolanaSource abstracts the calls a Solana-style listener needs.
type SolanaSource interface {
	// CurrentSlot returns the chain's current slot.
	CurrentSlot(ctx context.Context) (uint64, error)
	// SignaturesSince returns signatures for programID observed at or
	// after sinceSlot, oldest first.
	SignaturesSince(ctx context.Context, programID string, sinceSlot uint64) ([]SolanaSignature, error)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
