package session

import (
	"sync"
	"time"
)

// Factory builds a store for one viewer, bound to their session cookie.
// An empty cookie yields an anonymous viewer that resolves unauthenticated.
type Factory func(sessionCookie string) *Store

// registryEntry tracks one viewer's store and when it was last touched.
type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry owns one session store per browsing scope, creating stores on
// demand and closing the ones that have been idle past the TTL.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	factory Factory
	idleTTL time.Duration
}

// NewRegistry creates a registry with the given store factory and idle TTL.
func NewRegistry(factory Factory, idleTTL time.Duration) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		factory: factory,
		idleTTL: idleTTL,
	}
	go r.cleanupLoop()
	return r
}

// Acquire returns the store for scope, creating it on first use. The
// session cookie is only consulted at creation; a viewer whose cookie
// changes gets a fresh scope from the handler layer.
func (r *Registry) Acquire(scope, sessionCookie string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, found := r.entries[scope]; found {
		e.lastSeen = time.Now()
		return e.store
	}

	e := &registryEntry{store: r.factory(sessionCookie), lastSeen: time.Now()}
	r.entries[scope] = e
	return e.store
}

// cleanup closes and removes stores idle past the TTL.
func (r *Registry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for scope, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTTL {
			e.store.Close()
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
