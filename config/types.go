// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config models the static snapshot of peers, keys, ports,
// and per-source RPC lists every node loads at startup.
package config

import (
	"fmt"
	"time"

	"github.com/luxfi/oracle/set"
)

// Peer describes one statically-configured remote node. The local node
// is never present in its own peer list.
type Peer struct {
	ID        string `json:"id" yaml:"id"`
	PublicKey string `json:"publicKey" yaml:"publicKey"` // hex, 33-byte compressed
	Address   string `json:"address" yaml:"address"`     // host:port
	// Primary marks the one peer entry, among a secondary's
	// configured peers, that identifies the statically configured
	// primary. /task/validate handlers verify inbound signatures
	// against this peer's public key.
	Primary bool `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// RPCSource is one entry in config.rpc[sourceName][].
type RPCSource struct {
	Type   string `json:"type" yaml:"type"` // alchemy|infura|quicknode|ankr|json
	Chain  string `json:"chain,omitempty" yaml:"chain,omitempty"`
	APIKey string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
}

// AbstractionChain describes the downstream-chain endpoint.
type AbstractionChain struct {
	DirectoryNodeURLPool []string `json:"directoryNodeUrlPool" yaml:"directoryNodeUrlPool"`
	BlockchainRID        string   `json:"blockchainRid" yaml:"blockchainRid"`
}

// ListenerConfig tunes one registered listener.
type ListenerConfig struct {
	BlockHeightIncrement uint64 `json:"blockHeightIncrement" yaml:"blockHeightIncrement"`
	ThrottleOnSuccessMs  int64  `json:"throttleOnSuccessMs" yaml:"throttleOnSuccessMs"`
	BatchSize            int    `json:"batchSize" yaml:"batchSize"`
	CacheTTLMs           int64  `json:"cacheTtlMs" yaml:"cacheTtlMs"`
	Lag                  uint64 `json:"lag,omitempty" yaml:"lag,omitempty"`
}

// AuthConfig governs end-user signed auth envelope freshness.
type AuthConfig struct {
	SignatureMaxAgeMs int64 `json:"signatureMaxAgeMs" yaml:"signatureMaxAgeMs"`
}

// HeliusWebhookConfig carries the third-party webhook credentials.
type HeliusWebhookConfig struct {
	APIKey    string `json:"apiKey" yaml:"apiKey"`
	WebhookID string `json:"webhookId" yaml:"webhookId"`
	URL       string `json:"url" yaml:"url"`
	// Secret is the shared secret checked against the inbound
	// Authorization header, per SPEC_FULL.md's decision to accept a
	// single documented header name rather than the apiKey/authKey
	// alias split observed in the source.
	Secret string `json:"secret" yaml:"secret"`
}

// WebhooksConfig is the webhooks.* config block.
type WebhooksConfig struct {
	Helius HeliusWebhookConfig `json:"helius" yaml:"helius"`
}

// Config is the full static snapshot a node loads at startup.
type Config struct {
	ID          string `json:"id" yaml:"id"`
	PrivateKey  string `json:"privateKey" yaml:"privateKey"` // hex
	PublicKey   string `json:"publicKey" yaml:"publicKey"`   // hex
	Port        int    `json:"port" yaml:"port"`
	APIPort     int    `json:"apiPort" yaml:"apiPort"`
	MetricsPort int    `json:"metricsPort" yaml:"metricsPort"`
	Primary     bool   `json:"primary" yaml:"primary"`

	Peers []Peer `json:"peers" yaml:"peers"`
	// PeerTimeoutMs is a pointer so Load can tell "absent from the file"
	// (apply the 30s default) apart from an explicit 0, which means
	// "no peer contribution accepted."
	PeerTimeoutMs         *int64 `json:"peerTimeoutMs,omitempty" yaml:"peerTimeoutMs,omitempty"`
	MinSignaturesRequired int    `json:"minSignaturesRequired" yaml:"minSignaturesRequired"`

	RPC map[string][]RPCSource `json:"rpc" yaml:"rpc"`

	AbstractionChain AbstractionChain `json:"abstractionChain" yaml:"abstractionChain"`

	Plugins   map[string]map[string]any `json:"plugins" yaml:"plugins"`
	Listeners map[string]ListenerConfig `json:"listeners" yaml:"listeners"`

	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Webhooks WebhooksConfig `json:"webhooks" yaml:"webhooks"`
}

// DefaultPeerTimeoutMs is applied by Load when peerTimeoutMs is absent
// from the config file.
const DefaultPeerTimeoutMs int64 = 30000

// PeerTimeout returns PeerTimeoutMs as a time.Duration. An explicit 0
// (set via Load, never left nil) means no peer contribution is
// accepted.
func (c *Config) PeerTimeout() time.Duration {
	if c.PeerTimeoutMs == nil {
		return time.Duration(DefaultPeerTimeoutMs) * time.Millisecond
	}
	return time.Duration(*c.PeerTimeoutMs) * time.Millisecond
}

// Valid checks the structural invariants a config must satisfy, as an
// ordered switch of condition -> descriptive error.
func (c *Config) Valid() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("id must be set")
	case c.PrivateKey == "":
		return fmt.Errorf("privateKey must be set")
	case c.PublicKey == "":
		return fmt.Errorf("publicKey must be set")
	case c.Port <= 0:
		return fmt.Errorf("port = %d: fails the condition that: 0 < port", c.Port)
	case c.APIPort <= 0:
		return fmt.Errorf("apiPort = %d: fails the condition that: 0 < apiPort", c.APIPort)
	case c.MinSignaturesRequired <= 0:
		return fmt.Errorf("minSignaturesRequired = %d: fails the condition that: 0 < minSignaturesRequired", c.MinSignaturesRequired)
	}

	seenIDs := make(set.Set[string], len(c.Peers))
	seenKeys := make(set.Set[string], len(c.Peers))
	for _, p := range c.Peers {
		if p.ID == "" {
			return fmt.Errorf("peer with empty id")
		}
		if seenIDs.Contains(p.ID) {
			return fmt.Errorf("duplicate peer id %q", p.ID)
		}
		seenIDs.Add(p.ID)
		if p.PublicKey == "" {
			return fmt.Errorf("peer %q: publicKey must be set", p.ID)
		}
		if seenKeys.Contains(p.PublicKey) {
			return fmt.Errorf("peer %q: publicKey %q reused by another peer", p.ID, p.PublicKey)
		}
		seenKeys.Add(p.PublicKey)
		if p.Address == "" {
			return fmt.Errorf("peer %q: address must be set", p.ID)
		}
	}
	return nil
}
