// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package apiserver exposes the external API: GET /health, GET
// /sources, POST /task, and POST /helius/webhook. It never talks to
// peers directly; every route either answers from local state or
// drives one task.Coordinator.Run call.
package apiserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/luxfi/oracle/api"
	"github.com/luxfi/oracle/api/health"
	"github.com/luxfi/oracle/api/metrics"
	"github.com/luxfi/oracle/cache"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/oraclelog"
)

// Dispatcher is the capability the /task and /helius/webhook routes
// need. task.Coordinator satisfies this directly.
type Dispatcher interface {
	Run(ctx context.Context, pluginID string, input any) (any, error)
}

// webhookDedupWindow bounds how long a (mint, userAccount) pair is
// suppressed after its first dispatch, absorbing bursts from a single
// on-chain event without a dedicated config knob.
const webhookDedupWindow = 60 * time.Second

// taskRequest is the body POST /task accepts.
type taskRequest struct {
	PluginID string `json:"pluginId"`
	Input    any    `json:"input"`
}

// heliusTransaction is the subset of a Helius enhanced-transaction
// webhook payload this route consumes.
type heliusTransaction struct {
	Signature      string               `json:"signature"`
	TokenTransfers []heliusTokenTransfer `json:"tokenTransfers"`
}

type heliusTokenTransfer struct {
	Mint            string  `json:"mint"`
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// Server wires the external API surface to a task dispatcher and this
// node's static config.
type Server struct {
	cfg             *config.Config
	dispatcher      Dispatcher
	webhookPluginID string
	trackedMints    map[string]struct{}
	dedup           *cache.TTLCache[string, bool]
	health          *health.Aggregator
	apiMetrics      metrics.APIMetrics
	log             *oraclelog.Logger
	now             func() time.Time
}

// New constructs a Server. webhookPluginID names the plugin
// POST /helius/webhook dispatches to; its tracked mints are read from
// cfg.Plugins[webhookPluginID]["trackedMints"].
func New(cfg *config.Config, dispatcher Dispatcher, webhookPluginID string, checker *health.Aggregator, apiMetrics metrics.APIMetrics, log *oraclelog.Logger) *Server {
	if log == nil {
		log = oraclelog.NewNop()
	}
	if checker == nil {
		checker = health.NewAggregator()
	}
	return &Server{
		cfg:             cfg,
		dispatcher:      dispatcher,
		webhookPluginID: webhookPluginID,
		trackedMints:    trackedMintsFrom(cfg, webhookPluginID),
		dedup:           cache.New[string, bool](),
		health:          checker,
		apiMetrics:      apiMetrics,
		log:             log,
		now:             time.Now,
	}
}

func trackedMintsFrom(cfg *config.Config, pluginID string) map[string]struct{} {
	out := make(map[string]struct{})
	raw, ok := cfg.Plugins[pluginID]["trackedMints"].([]any)
	if !ok {
		return out
	}
	for _, m := range raw {
		if s, ok := m.(string); ok {
			out[s] = struct{}{}
		}
	}
	return out
}

// Handler returns the routed HTTP handler for the external API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/sources", s.handleSources).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/task", s.handleTask).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/helius/webhook", s.handleWebhook).Methods(http.MethodPost, http.MethodOptions)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			api.HandleOptions(w, r)
			return
		}
		api.WriteError(w, http.StatusMethodNotAllowed, oerrors.New(oerrors.KindPlugin, "method not allowed"))
	})
	return r
}

func (s *Server) recordRequest(route string, status int) {
	if s.apiMetrics == nil {
		return
	}
	s.apiMetrics.RequestsTotal(route, http.StatusText(status))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		api.HandleOptions(w, r)
		return
	}
	report := s.health.Run(r.Context())
	if !report.Healthy {
		s.recordRequest("/health", http.StatusServiceUnavailable)
		api.WriteJSON(w, http.StatusServiceUnavailable, report)
		return
	}
	s.recordRequest("/health", http.StatusOK)
	api.WriteJSON(w, http.StatusOK, api.MessageBody{Message: "OK"})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		api.HandleOptions(w, r)
		return
	}
	names := make([]string, 0, len(s.cfg.RPC))
	for name := range s.cfg.RPC {
		names = append(names, name)
	}
	sort.Strings(names)
	s.recordRequest("/sources", http.StatusOK)
	api.WriteJSON(w, http.StatusOK, names)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		api.HandleOptions(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.recordRequest("/task", http.StatusInternalServerError)
		api.WriteError(w, http.StatusInternalServerError, oerrors.New(oerrors.KindPlugin, "read body"))
		return
	}
	var req taskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.recordRequest("/task", http.StatusInternalServerError)
		api.WriteError(w, http.StatusInternalServerError, oerrors.New(oerrors.KindPlugin, "malformed request"))
		return
	}

	if _, err := s.dispatcher.Run(r.Context(), req.PluginID, req.Input); err != nil {
		s.log.Warn("task dispatch failed", zap.String("plugin_id", req.PluginID), zap.Error(err))
		s.recordRequest("/task", http.StatusInternalServerError)
		api.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	s.recordRequest("/task", http.StatusOK)
	api.WritePlainOK(w)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		api.HandleOptions(w, r)
		return
	}
	if !s.authorizedWebhook(r) {
		s.recordRequest("/helius/webhook", http.StatusUnauthorized)
		api.WriteError(w, http.StatusUnauthorized, oerrors.New(oerrors.KindPlugin, "unauthorized"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.recordRequest("/helius/webhook", http.StatusInternalServerError)
		api.WriteError(w, http.StatusInternalServerError, oerrors.New(oerrors.KindPlugin, "read body"))
		return
	}
	var txs []heliusTransaction
	if err := json.Unmarshal(body, &txs); err != nil {
		s.recordRequest("/helius/webhook", http.StatusInternalServerError)
		api.WriteError(w, http.StatusInternalServerError, oerrors.New(oerrors.KindPlugin, "malformed payload"))
		return
	}

	for _, tx := range txs {
		for _, transfer := range tx.TokenTransfers {
			s.dispatchTransferIfNew(r.Context(), transfer)
		}
	}

	s.recordRequest("/helius/webhook", http.StatusOK)
	api.WritePlainOK(w)
}

// authorizedWebhook accepts only the single documented header form,
// "Authorization: Bearer <secret>" — the alternate apiKey/authKey
// aliases some Helius-adjacent integrations accept are rejected.
func (s *Server) authorizedWebhook(r *http.Request) bool {
	want := "Bearer " + s.cfg.Webhooks.Helius.Secret
	return s.cfg.Webhooks.Helius.Secret != "" && r.Header.Get("Authorization") == want
}

func (s *Server) dispatchTransferIfNew(ctx context.Context, transfer heliusTokenTransfer) {
	if _, tracked := s.trackedMints[transfer.Mint]; !tracked {
		return
	}
	userAccount := transfer.ToUserAccount
	if userAccount == "" {
		userAccount = transfer.FromUserAccount
	}
	key := transfer.Mint + "|" + userAccount
	if s.dedup.Has(key) {
		return
	}
	s.dedup.Set(key, true, webhookDedupWindow)

	if _, err := s.dispatcher.Run(ctx, s.webhookPluginID, transfer); err != nil {
		s.log.Warn("webhook task dispatch failed",
			zap.String("mint", transfer.Mint), zap.String("user_account", userAccount), zap.Error(err))
		return
	}
	if s.apiMetrics != nil {
		s.apiMetrics.WebhookEventsDispatched()
	}
}
