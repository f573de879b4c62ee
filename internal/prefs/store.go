package prefs

import (
	"sync"

	"session-hub/internal/domain"
)

// themeKey is the single key the store uses in its storage medium.
const themeKey = "theme.preference"

// Store holds one viewer's theme preference as an explicit tri-state.
// The in-memory value is authoritative; persistence is best-effort.
type Store struct {
	mu       sync.Mutex
	store    domain.Storage
	value    domain.ThemePreference
	hydrated bool
}

// New creates a store whose value is Unresolved until Hydrate runs.
func New(store domain.Storage) *Store {
	return &Store{store: store, value: domain.ThemeUnresolved}
}

// Hydrate runs the one-time post-boot read. A persisted preference is
// adopted as-is. When nothing is persisted, first-time viewers get Light
// regardless of systemDark: the platform's dark signal is computed and
// passed in, but deliberately never auto-applied (product policy).
// Calls after the first are no-ops.
func (s *Store) Hydrate(systemDark bool) domain.ThemePreference {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return s.value
	}
	s.hydrated = true

	if raw, err := s.store.Get(themeKey); err == nil {
		if pref := domain.ThemePreference(raw); pref.Concrete() {
			s.value = pref
			return s.value
		}
	}

	_ = systemDark
	s.value = domain.ThemeLight
	return s.value
}

// Get returns the current preference. Unresolved before hydration.
func (s *Store) Get() domain.ThemePreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set adopts pref immediately and persists it. Only concrete values are
// accepted; persisting Unresolved is never attempted. Persistence failures
// are silent: the in-memory value already changed.
func (s *Store) Set(pref domain.ThemePreference) {
	if !pref.Concrete() {
		return
	}

	s.mu.Lock()
	s.value = pref
	s.hydrated = true
	s.mu.Unlock()

	_ = s.store.Set(themeKey, string(pref))
}
