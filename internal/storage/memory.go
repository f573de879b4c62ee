package storage

import (
	"sync"
	"time"

	"session-hub/internal/domain"
)

// Memory is an in-memory implementation of domain.Storage. One instance
// backs one browsing scope (the server-side analog of a tab's storage).
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty storage medium.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Get returns the value for key or domain.ErrKeyNotFound.
func (m *Memory) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.entries[key]
	if !found {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

// Set stores value under key, overwriting any existing entry.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Clear drops every entry, simulating the medium being wiped externally.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]string)
}

// scopeEntry tracks one scope's storage and when it was last touched.
type scopeEntry struct {
	store    *Memory
	lastSeen time.Time
}

// Scopes hands out one storage medium per browsing scope and evicts media
// that have been idle longer than the configured TTL.
type Scopes struct {
	mu      sync.Mutex
	entries map[string]*scopeEntry
	idleTTL time.Duration
}

// NewScopes creates a scope registry with the given idle TTL.
func NewScopes(idleTTL time.Duration) *Scopes {
	s := &Scopes{
		entries: make(map[string]*scopeEntry),
		idleTTL: idleTTL,
	}
	go s.cleanupLoop()
	return s
}

// Acquire returns the storage for scope, creating it on first use.
func (s *Scopes) Acquire(scope string) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, found := s.entries[scope]; found {
		e.lastSeen = time.Now()
		return e.store
	}

	e := &scopeEntry{store: NewMemory(), lastSeen: time.Now()}
	s.entries[scope] = e
	return e.store
}

// cleanup removes scopes idle past the TTL.
func (s *Scopes) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for scope, e := range s.entries {
		if now.Sub(e.lastSeen) > s.idleTTL {
			delete(s.entries, scope)
		}
	}
}

// cleanupLoop runs periodic cleanup of idle scopes.
func (s *Scopes) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanup()
	}
}
