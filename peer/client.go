// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package peer implements both sides of the peer RPC surface: Client
// fans a prepare/validate request out to one peer, and Server exposes
// the /task/prepare and /task/validate endpoints a peer answers with.
package peer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/luxfi/oracle/codec"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/crypto"
	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/oraclelog"
)

// prepareResponse mirrors the 200 body for /task/prepare.
type prepareResponse struct {
	EncodedData string `json:"encodedData"`
	Signature   string `json:"signature"`
}

// validateResponse mirrors the 200 body for /task/validate.
type validateResponse struct {
	EncodedData string `json:"encodedData"`
}

// errorResponse mirrors the {error, context} shape every non-2xx
// response carries.
type errorResponse struct {
	Error   string `json:"error"`
	Context string `json:"context"`
}

// Client is the task coordinator's outbound view of a peer. It
// implements task.PeerClient structurally.
type Client struct {
	httpClient   *http.Client
	localPrivKey []byte
	log          *oraclelog.Logger
}

// NewClient builds a Client that signs outbound /task/validate
// requests with localPrivKey, the calling (primary) node's own key.
func NewClient(httpClient *http.Client, localPrivKey []byte, log *oraclelog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = oraclelog.NewNop()
	}
	return &Client{httpClient: httpClient, localPrivKey: localPrivKey, log: log}
}

// Prepare posts a codec-encoded {pluginId, input} body to p's
// /task/prepare and returns the decoded prepared value, after
// verifying the peer's signature against p's own configured public
// key — a peer that cannot prove its response is its own is dropped
// exactly like an unreachable one.
func (c *Client) Prepare(ctx context.Context, p config.Peer, pluginID string, input any) (any, error) {
	body, err := codec.Encode(map[string]any{"pluginId": pluginID, "input": input})
	if err != nil {
		return nil, fmt.Errorf("peer: encode prepare request: %w", err)
	}

	resp, err := c.post(ctx, p.Address+"/task/prepare", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readPeerError(resp)
	}

	var out prepareResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("peer: decode prepare response: %w", err)
	}

	encodedData, err := hex.DecodeString(out.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("peer: prepare response encodedData: %w", err)
	}
	signature, err := hex.DecodeString(out.Signature)
	if err != nil {
		return nil, fmt.Errorf("peer: prepare response signature: %w", err)
	}

	peerPubKey, err := hex.DecodeString(p.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("peer: configured public key for %s: %w", p.ID, err)
	}
	if !crypto.Verify(encodedData, signature, peerPubKey) {
		return nil, oerrors.New(oerrors.KindValidation, "peer "+p.ID+": prepare response signature does not verify")
	}

	return codec.Decode(encodedData)
}

// Validate posts a codec-encoded {pluginId, input, preparedData,
// signature} body to p's /task/validate, where signature is this
// node's own signature over encode(preparedData) — the authorization
// the relaying primary must supply.
func (c *Client) Validate(ctx context.Context, p config.Peer, pluginID string, aggregated, preparedData any) (any, error) {
	encodedPrepared, err := codec.Encode(preparedData)
	if err != nil {
		return nil, fmt.Errorf("peer: encode preparedData: %w", err)
	}
	signature, err := crypto.Sign(encodedPrepared, c.localPrivKey)
	if err != nil {
		return nil, fmt.Errorf("peer: sign validate request: %w", err)
	}

	body, err := codec.Encode(map[string]any{
		"pluginId":     pluginID,
		"input":        aggregated,
		"preparedData": preparedData,
		"signature":    signature,
	})
	if err != nil {
		return nil, fmt.Errorf("peer: encode validate request: %w", err)
	}

	resp, err := c.post(ctx, p.Address+"/task/validate", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readPeerError(resp)
	}

	var out validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("peer: decode validate response: %w", err)
	}
	encodedData, err := hex.DecodeString(out.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("peer: validate response encodedData: %w", err)
	}
	return codec.Decode(encodedData)
}

// post issues the request. Bodies are binary (the deterministic
// canonicalization codec) labelled application/json — a historically
// fixed mislabelling the protocol must keep emitting for
// compatibility.
func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("peer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func readPeerError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
		return fmt.Errorf("peer: status %d: %s", resp.StatusCode, string(data))
	}
	return oerrors.Wrap(oerrors.Kind(e.Error), e.Context, fmt.Errorf("status %d", resp.StatusCode))
}
