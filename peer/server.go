// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/luxfi/oracle/codec"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/crypto"
	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/oraclelog"
	"github.com/luxfi/oracle/registry"
)

// Server exposes /task/prepare and /task/validate. Both endpoints are
// stateless; any node, primary or secondary, can serve either.
type Server struct {
	cfg      *config.Config
	registry *registry.Registry
	privKey  []byte
	log      *oraclelog.Logger
}

// NewServer builds a Server that signs its own /task/prepare responses
// with privKey, this node's own private key.
func NewServer(cfg *config.Config, reg *registry.Registry, privKey []byte, log *oraclelog.Logger) *Server {
	if log == nil {
		log = oraclelog.NewNop()
	}
	return &Server{cfg: cfg, registry: reg, privKey: privKey, log: log}
}

// Handler returns the routed HTTP handler for the peer surface.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/task/prepare", s.handlePrepare).Methods(http.MethodPost)
	r.HandleFunc("/task/validate", s.handleValidate).Methods(http.MethodPost)
	return r
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "read body")
		return
	}
	decoded, err := codec.Decode(body)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "decode body")
		return
	}
	req, ok := decoded.(map[string]any)
	if !ok {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "malformed request")
		return
	}
	pluginID, _ := req["pluginId"].(string)

	h, err := s.registry.Get(pluginID)
	if err != nil {
		writePeerError(w, http.StatusNotFound, oerrors.KindNotFound, pluginID)
		return
	}

	prepared, err := h.Prepare(r.Context(), req["input"])
	if err != nil {
		s.log.Warn("peer prepare failed", zap.String("plugin_id", pluginID), zap.Error(err))
		writePeerError(w, http.StatusInternalServerError, oerrors.KindOf(err), err.Error())
		return
	}

	encodedData, err := codec.Encode(prepared)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "encode prepared value")
		return
	}
	signature, err := crypto.Sign(encodedData, s.privKey)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "sign prepared value")
		return
	}

	writeJSON(w, http.StatusOK, prepareResponse{
		EncodedData: hex.EncodeToString(encodedData),
		Signature:   hex.EncodeToString(signature),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "read body")
		return
	}
	decoded, err := codec.Decode(body)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "decode body")
		return
	}
	req, ok := decoded.(map[string]any)
	if !ok {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "malformed request")
		return
	}

	pluginID, _ := req["pluginId"].(string)
	preparedData := req["preparedData"]
	signature, _ := req["signature"].([]byte)

	primaryPubKey, err := s.primaryPublicKey()
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindValidation, err.Error())
		return
	}

	encodedPrepared, err := codec.Encode(preparedData)
	if err != nil {
		writePeerError(w, http.StatusBadRequest, oerrors.KindValidation, "Invalid signature")
		return
	}
	if !crypto.Verify(encodedPrepared, signature, primaryPubKey) {
		writePeerError(w, http.StatusBadRequest, oerrors.KindValidation, "Invalid signature")
		return
	}

	h, err := s.registry.Get(pluginID)
	if err != nil {
		writePeerError(w, http.StatusNotFound, oerrors.KindNotFound, pluginID)
		return
	}

	newAggregated, err := h.Validate(r.Context(), req["input"], preparedData)
	if err != nil {
		s.log.Warn("peer validate failed", zap.String("plugin_id", pluginID), zap.Error(err))
		writePeerError(w, http.StatusInternalServerError, oerrors.KindOf(err), err.Error())
		return
	}

	encodedData, err := codec.Encode(newAggregated)
	if err != nil {
		writePeerError(w, http.StatusInternalServerError, oerrors.KindPlugin, "encode aggregated value")
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{EncodedData: hex.EncodeToString(encodedData)})
}

// primaryPublicKey resolves the trust anchor /task/validate verifies
// inbound signatures against: this node's own key if it is the
// primary, otherwise the peer entry flagged Primary in its peer list.
func (s *Server) primaryPublicKey() ([]byte, error) {
	if s.cfg.Primary {
		return hex.DecodeString(s.cfg.PublicKey)
	}
	for _, p := range s.cfg.Peers {
		if p.Primary {
			return hex.DecodeString(p.PublicKey)
		}
	}
	return nil, fmt.Errorf("no configured primary public key")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePeerError(w http.ResponseWriter, status int, kind oerrors.Kind, context string) {
	writeJSON(w, status, errorResponse{Error: string(kind), Context: context})
}
