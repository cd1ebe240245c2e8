// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/task"
)

// abstractionChainSubmitter posts a signed artifact to the first
// directory node in config.AbstractionChain.DirectoryNodeURLPool; the
// other pool entries are not tried. The downstream chain's own submission
// protocol (blockchain RID framing, retries across the pool) is out
// of scope; this exists only so the illustrative plugins' Execute has
// somewhere real to send their artifact.
type abstractionChainSubmitter struct {
	cfg        config.AbstractionChain
	httpClient *http.Client
}

func newAbstractionChainSubmitter(cfg config.AbstractionChain) *abstractionChainSubmitter {
	return &abstractionChainSubmitter{cfg: cfg, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (s *abstractionChainSubmitter) Submit(artifact map[string]any) error {
	if len(s.cfg.DirectoryNodeURLPool) == 0 {
		return fmt.Errorf("abstraction chain: no directory nodes configured")
	}
	body, err := json.Marshal(map[string]any{
		"blockchainRid": s.cfg.BlockchainRID,
		"artifact":      artifact,
	})
	if err != nil {
		return fmt.Errorf("abstraction chain: encode artifact: %w", err)
	}

	resp, err := s.httpClient.Post(s.cfg.DirectoryNodeURLPool[0], "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("abstraction chain: submit: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return &task.DuplicateSubmissionError{Err: fmt.Errorf("abstraction chain: already applied")}
	case resp.StatusCode >= 300:
		return fmt.Errorf("abstraction chain: status %d", resp.StatusCode)
	default:
		return nil
	}
}
