// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
id: node-a
privateKey: "deadbeef"
publicKey: "02abc"
port: 9000
apiPort: 9001
primary: true
minSignaturesRequired: 2
peers:
  - id: node-b
    publicKey: "03def"
    address: "localhost:9010"
rpc:
  ethereum:
    - type: json
      url: "https://example.invalid/rpc"
listeners:
  evmlogs:
    blockHeightIncrement: 2000
    throttleOnSuccessMs: 15000
    batchSize: 25
    cacheTtlMs: 600000
`

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "node-a", cfg.ID)
	require.Len(t, cfg.Peers, 1)
	require.Equal(t, "node-b", cfg.Peers[0].ID)
	require.Equal(t, 30, int(cfg.PeerTimeout().Seconds()))
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	body := `{"id":"node-a","privateKey":"dead","publicKey":"02ab","port":1,"apiPort":2,"minSignaturesRequired":1,"peers":[]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "node-a", cfg.ID)
}

func TestValidRejectsMissingFields(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Valid())
}

func TestValidAllowsQuorumAboveClusterSize(t *testing.T) {
	// minSignaturesRequired above the configured peer count is a runtime
	// condition the coordinator rejects per task (insufficient_peers), not
	// a config-load-time error: a node may be reconfigured to add peers
	// later, and every task failing until then is the documented behavior.
	cfg := &Config{
		ID: "a", PrivateKey: "x", PublicKey: "y",
		Port: 1, APIPort: 2, MinSignaturesRequired: 3,
		Peers: []Peer{{ID: "b", PublicKey: "z", Address: "h:1"}},
	}
	require.NoError(t, cfg.Valid())
}

func TestValidRejectsDuplicatePeers(t *testing.T) {
	cfg := &Config{
		ID: "a", PrivateKey: "x", PublicKey: "y",
		Port: 1, APIPort: 2, MinSignaturesRequired: 1,
		Peers: []Peer{
			{ID: "b", PublicKey: "z", Address: "h:1"},
			{ID: "b", PublicKey: "z2", Address: "h:2"},
		},
	}
	err := cfg.Valid()
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestPeerTimeoutDefaultWhenNilFromZeroValueConfig(t *testing.T) {
	cfg := &Config{}
	require.Equal(t, int64(30), cfg.PeerTimeout().Milliseconds()/1000)
}

func TestPeerTimeoutExplicitZeroMeansNoPeerContribution(t *testing.T) {
	zero := int64(0)
	cfg := &Config{PeerTimeoutMs: &zero}
	require.Equal(t, time.Duration(0), cfg.PeerTimeout())
}

func TestLoadAppliesDefaultPeerTimeoutWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.PeerTimeoutMs)
	require.Equal(t, DefaultPeerTimeoutMs, *cfg.PeerTimeoutMs)
}

func TestLoadPreservesExplicitZeroPeerTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.yaml")
	body := sampleYAML + "\npeerTimeoutMs: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.PeerTimeoutMs)
	require.Equal(t, int64(0), *cfg.PeerTimeoutMs)
	require.Equal(t, time.Duration(0), cfg.PeerTimeout())
}
