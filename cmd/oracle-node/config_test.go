// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const validConfigJSON = `{
  "id": "node-a",
  "privateKey": "aa",
  "publicKey": "bb",
  "port": 9000,
  "apiPort": 9001,
  "metricsPort": 9002,
  "primary": true,
  "minSignaturesRequired": 1,
  "peers": [
    {"id": "node-b", "publicKey": "cc", "address": "127.0.0.1:9010"}
  ],
  "rpc": {},
  "abstractionChain": {"directoryNodeUrlPool": ["http://localhost:7777"], "blockchainRid": "deadbeef"},
  "plugins": {},
  "listeners": {}
}`

func TestRunConfigValidatePrintsSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(path, []byte(validConfigJSON), 0o600))

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runConfigValidate(cmd, path))

	got := out.String()
	require.Contains(t, got, "id=node-a")
	require.Contains(t, got, "peers=1")
	require.Contains(t, got, "minSignaturesRequired=1")
	require.Contains(t, got, "primary=true")
}

func TestRunConfigValidateRejectsMissingFile(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.Error(t, runConfigValidate(cmd, filepath.Join(t.TempDir(), "missing.json")))
}

func TestRunConfigValidateRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": ""}`), 0o600))

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.Error(t, runConfigValidate(cmd, path))
}
