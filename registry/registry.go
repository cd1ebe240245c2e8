// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry is the process-wide plugin-id to plugin-handler
// lookup. Listeners and the API surface name plugins by id rather than
// importing their packages directly, which breaks the otherwise
// circular "listener imports the plugin it feeds" relation.
package registry

import (
	"sync"

	"github.com/luxfi/oracle/oerrors"
	"github.com/luxfi/oracle/plugin"
)

// Registry is an explicitly constructed plugin lookup, built at
// startup and read-only thereafter. A package-level default instance
// is also exposed for callers happy with a single process-wide table.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]plugin.Plugin
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]plugin.Plugin)}
}

// Register adds h under h.ID(). Intended to be called only during
// startup wiring; Get is safe to call concurrently with Register, but
// the coordinator assumes the set of registered ids is stable once
// the node starts serving traffic.
func (r *Registry) Register(h plugin.Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.ID()] = h
}

// Get returns the handler registered under id, or a NotFound error.
func (r *Registry) Get(id string) (plugin.Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	if !ok {
		return nil, oerrors.New(oerrors.KindNotFound, "plugin "+id)
	}
	return h, nil
}

// IDs returns the currently registered plugin ids, in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	return ids
}

// Default is a process-wide registry for callers that do not construct
// their own; cmd/oracle-node builds its own with New instead.
var Default = New()

// Register adds h to Default.
func Register(h plugin.Plugin) { Default.Register(h) }

// Get looks up id in Default.
func Get(id string) (plugin.Plugin, error) { return Default.Get(id) }
