// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api holds the wire-level response helpers apiserver uses:
// JSON writers matching the external
// API's exact success/error shapes, and the CORS header set every
// route applies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/luxfi/oracle/oerrors"
)

// ErrorBody is the shape every non-2xx external API response takes.
type ErrorBody struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}

// MessageBody is the shape GET /health returns on success.
type MessageBody struct {
	Message string `json:"message"`
}

// WriteJSON writes v as the JSON body with status, after SetCORS.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WritePlainOK writes the literal text "OK", the exact success body
// POST /task returns — no JSON envelope.
func WritePlainOK(w http.ResponseWriter) {
	SetCORS(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// WriteError writes err as an ErrorBody with the caller's status: the
// error field is err's oerrors.Kind (plugin_error if untagged) and the
// context field is err's full message.
func WriteError(w http.ResponseWriter, status int, err error) {
	kind := oerrors.KindOf(err)
	if kind == "" {
		kind = oerrors.KindPlugin
	}
	WriteJSON(w, status, ErrorBody{Error: string(kind), Context: err.Error()})
}

// SetCORS applies the module-wide CORS policy: allow any origin, no
// credentials, and the standard method/header allow-list an OPTIONS
// preflight echoes back.
func SetCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// HandleOptions answers an OPTIONS preflight with 204 and the CORS
// headers, matching every route in the external API surface.
func HandleOptions(w http.ResponseWriter, _ *http.Request) {
	SetCORS(w)
	w.WriteHeader(http.StatusNoContent)
}
