package prefs

import (
	"sync"
	"time"

	"session-hub/internal/domain"
)

// registryEntry tracks one scope's store and when it was last touched.
type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one preference store per browsing scope and evicts
// stores that have been idle past the TTL. An evicted scope simply
// re-hydrates to the default on next use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	storage func(scope string) domain.Storage
	idleTTL time.Duration
}

// NewRegistry creates a registry backed by the given per-scope storage
// lookup, evicting stores after the idle TTL.
func NewRegistry(storage func(scope string) domain.Storage, idleTTL time.Duration) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		storage: storage,
		idleTTL: idleTTL,
	}
	go r.cleanupLoop()
	return r
}

// Acquire returns the store for scope, creating it on first use.
func (r *Registry) Acquire(scope string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, found := r.entries[scope]; found {
		e.lastSeen = time.Now()
		return e.store
	}

	e := &registryEntry{store: New(r.storage(scope)), lastSeen: time.Now()}
	r.entries[scope] = e
	return e.store
}

// cleanup removes stores idle past the TTL.
func (r *Registry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for scope, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.entries, scope)
		}
	}
}

// cleanupLoop runs periodic cleanup of idle stores.
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		r.cleanup()
	}
}
