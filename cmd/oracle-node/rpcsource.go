// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/luxfi/oracle/ratelimit"
	"github.com/luxfi/oracle/source"
)

// jsonRPCClient is a minimal JSON-RPC 2.0 HTTP client. Concrete
// source-chain RPC providers (Alchemy, Infura, QuickNode, Ankr) are
// out of scope; this is the one config.RPCSource.Type == "json" case
// the illustrative listeners are wired against.
type jsonRPCClient struct {
	url        string
	httpClient *http.Client
}

func newJSONRPCClient(url string) *jsonRPCClient {
	return &jsonRPCClient{url: url, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *jsonRPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("jsonrpc: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("jsonrpc: %s: %s", method, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// evmJSONRPCSource implements source.EVMSource against a plain
// eth_blockNumber/eth_getLogs JSON-RPC endpoint.
type evmJSONRPCSource struct {
	client  *jsonRPCClient
	address string
	limiter *ratelimit.Limiter
	rateKey string
}

func newEVMJSONRPCSource(url, address string, limiter *ratelimit.Limiter, rateKey string) *evmJSONRPCSource {
	return &evmJSONRPCSource{client: newJSONRPCClient(url), address: address, limiter: limiter, rateKey: rateKey}
}

func (s *evmJSONRPCSource) HeadHeight(ctx context.Context) (uint64, error) {
	return ratelimit.ExecuteThrottled(ctx, s.limiter, s.rateKey, evmRPCRateLimit, func(ctx context.Context) (uint64, error) {
		var hexHeight string
		if err := s.client.call(ctx, "eth_blockNumber", nil, &hexHeight); err != nil {
			return 0, err
		}
		return parseHexUint(hexHeight)
	})
}

func (s *evmJSONRPCSource) LogsInRange(ctx context.Context, from, to uint64) ([]source.Log, error) {
	return ratelimit.ExecuteThrottled(ctx, s.limiter, s.rateKey, evmRPCRateLimit, func(ctx context.Context) ([]source.Log, error) {
		return s.logsInRange(ctx, from, to)
	})
}

// evmRPCRateLimit bounds calls per second for one limiter key (the
// listener name run.go passes as rateKey), not per distinct RPC URL.
const evmRPCRateLimit = 10

func (s *evmJSONRPCSource) logsInRange(ctx context.Context, from, to uint64) ([]source.Log, error) {
	var raw []struct {
		BlockNumber string   `json:"blockNumber"`
		LogIndex    string   `json:"logIndex"`
		TxHash      string   `json:"transactionHash"`
		Address     string   `json:"address"`
		Topics      []string `json:"topics"`
		Data        string   `json:"data"`
	}
	filter := map[string]any{
		"fromBlock": toHex(from),
		"toBlock":   toHex(to),
		"address":   s.address,
	}
	if err := s.client.call(ctx, "eth_getLogs", []any{filter}, &raw); err != nil {
		return nil, err
	}

	out := make([]source.Log, 0, len(raw))
	for _, r := range raw {
		blockNumber, err := parseHexUint(r.BlockNumber)
		if err != nil {
			continue
		}
		logIndex, err := parseHexUint(r.LogIndex)
		if err != nil {
			continue
		}
		out = append(out, source.Log{
			BlockNumber: blockNumber,
			LogIndex:    logIndex,
			TxHash:      r.TxHash,
			Address:     r.Address,
			Topics:      r.Topics,
			Data:        []byte(r.Data),
		})
	}
	return out, nil
}

// solanaJSONRPCSource implements source.SolanaSource against a plain
// getSlot/getSignaturesForAddress JSON-RPC endpoint.
type solanaJSONRPCSource struct {
	client  *jsonRPCClient
	limiter *ratelimit.Limiter
	rateKey string
}

func newSolanaJSONRPCSource(url string, limiter *ratelimit.Limiter, rateKey string) *solanaJSONRPCSource {
	return &solanaJSONRPCSource{client: newJSONRPCClient(url), limiter: limiter, rateKey: rateKey}
}

// solanaRPCRateLimit mirrors evmRPCRateLimit; Solana RPC providers
// apply similarly tight per-key limits on public endpoints.
const solanaRPCRateLimit = 10

func (s *solanaJSONRPCSource) CurrentSlot(ctx context.Context) (uint64, error) {
	return ratelimit.ExecuteThrottled(ctx, s.limiter, s.rateKey, solanaRPCRateLimit, func(ctx context.Context) (uint64, error) {
		var slot uint64
		if err := s.client.call(ctx, "getSlot", nil, &slot); err != nil {
			return 0, err
		}
		return slot, nil
	})
}

func (s *solanaJSONRPCSource) SignaturesSince(ctx context.Context, programID string, sinceSlot uint64) ([]source.SolanaSignature, error) {
	return ratelimit.ExecuteThrottled(ctx, s.limiter, s.rateKey, solanaRPCRateLimit, func(ctx context.Context) ([]source.SolanaSignature, error) {
		var raw []struct {
			Signature string `json:"signature"`
			Slot      uint64 `json:"slot"`
		}
		if err := s.client.call(ctx, "getSignaturesForAddress", []any{programID}, &raw); err != nil {
			return nil, err
		}
		out := make([]source.SolanaSignature, 0, len(raw))
		for _, r := range raw {
			if r.Slot >= sinceSlot {
				out = append(out, source.SolanaSignature{Signature: r.Signature, Slot: r.Slot})
			}
		}
		return out, nil
	})
}

func parseHexUint(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}

func toHex(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}
