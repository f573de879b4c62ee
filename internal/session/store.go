// Package session owns identity and role-profile resolution for one viewer.
//
// The store is a small state machine: Pending, Unauthenticated, or Resolved
// with an identity and an optional profile. Every identity-change event bumps
// a generation counter; a profile fetch may only commit its result while its
// generation is still current. Without that guard a slow fetch for a
// just-signed-out viewer could resurrect a stale authenticated state.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"session-hub/internal/cache"
	"session-hub/internal/domain"
)

// profileKeyPrefix namespaces profile entries inside the viewer's cache.
const profileKeyPrefix = "profile."

// signOutTimeout bounds the fire-and-forget provider sign-out call.
const signOutTimeout = 5 * time.Second

// Subscriber receives a state snapshot on every committed transition.
type Subscriber func(domain.SessionState)

// Store resolves and tracks one viewer's session state.
type Store struct {
	provider domain.IdentityProvider
	profiles *cache.Ephemeral
	logger   *slog.Logger

	mu      sync.Mutex
	state   domain.SessionState
	gen     uint64
	subs    map[int]Subscriber
	nextSub int
	closed  bool

	providerUnsub func()
	flight        singleflight.Group
}

// New creates a store and starts resolution: it registers for identity
// change notifications and requests the current identity once. The returned
// store reports Loading until a terminal outcome is reached.
func New(provider domain.IdentityProvider, profiles *cache.Ephemeral, logger *slog.Logger) *Store {
	s := &Store{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		state:    domain.SessionState{Loading: true},
		subs:     make(map[int]Subscriber),
	}
	s.providerUnsub = provider.OnIdentityChange(s.handleIdentity)
	go s.bootstrap()
	return s
}

// State returns the current snapshot.
func (s *Store) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for committed state transitions and returns its
// unsubscribe func. The store never cancels subscribers on its own; it is
// the subscriber's duty to unsubscribe once detached.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SignOut invokes the provider's sign-out without blocking on it and resets
// state synchronously to the unauthenticated terminal state. The UI must
// never hang on sign-out confirmation, whatever the provider's timing.
func (s *Store) SignOut(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), signOutTimeout)
		defer cancel()
		if err := s.provider.SignOut(ctx); err != nil {
			s.logger.Warn("provider sign-out failed", "error", err)
		}
	}()

	s.mu.Lock()
	s.gen++
	s.state = domain.Unauthenticated()
	state, subs := s.state, s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, state)
}

// Close detaches the store from provider notifications. In-flight
// resolutions may still run but can no longer commit.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.mu.Unlock()

	if s.providerUnsub != nil {
		s.providerUnsub()
	}
}

// bootstrap performs the one-time initial identity request. A provider that
// is unreachable at boot resolves to the unauthenticated terminal state
// rather than leaving the viewer loading forever.
func (s *Store) bootstrap() {
	identity, err := s.provider.CurrentIdentity(context.Background())
	if err != nil {
		s.logger.Warn("identity bootstrap failed, treating viewer as unauthenticated", "error", err)
		s.handleIdentity(nil)
		return
	}
	s.handleIdentity(identity)
}

// handleIdentity is the single entry point for identity-change events, from
// bootstrap and from provider notifications alike. Each call supersedes any
// in-flight resolution for a prior identity.
func (s *Store) handleIdentity(identity *domain.Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen

	if identity == nil {
		s.state = domain.Unauthenticated()
		state, subs := s.state, s.snapshotSubsLocked()
		s.mu.Unlock()
		notify(subs, state)
		return
	}

	s.state = domain.SessionState{Loading: true, Identity: identity}
	state, subs := s.state, s.snapshotSubsLocked()
	s.mu.Unlock()
	notify(subs, state)

	go s.resolveProfile(gen, identity)
}

// resolveProfile fetches the profile and commits the terminal state for its
// generation. A failed fetch still terminates: identity stays, profile is
// nil, and every role-gated check downstream fails closed.
func (s *Store) resolveProfile(gen uint64, identity *domain.Identity) {
	profile := s.lookupProfile(context.Background(), identity)
	s.commit(gen, domain.SessionState{
		Loading:  false,
		Identity: identity,
		Profile:  profile,
	})
}

// lookupProfile reads through the viewer's ephemeral cache and dedupes
// concurrent fetches for the same identity.
func (s *Store) lookupProfile(ctx context.Context, identity *domain.Identity) *domain.Profile {
	key := profileKeyPrefix + identity.UserID

	var cached domain.Profile
	if s.profiles.GetInto(key, &cached) {
		return &cached
	}

	result, err, _ := s.flight.Do(key, func() (any, error) {
		return s.provider.FetchProfile(ctx, identity)
	})
	if err != nil {
		s.logger.Warn("profile fetch failed, viewer has no role",
			"user_id", identity.UserID,
			"error", err)
		return nil
	}

	profile := result.(*domain.Profile)
	s.profiles.Set(key, profile)
	return profile
}

// commit applies a resolution outcome unless a newer identity-change event
// superseded it.
func (s *Store) commit(gen uint64, state domain.SessionState) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale session resolution", "generation", gen)
		return
	}
	s.state = state
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	notify(subs, state)
}

// snapshotSubsLocked copies the subscriber set so notifications run without
// holding the store lock. Callers must hold mu.
func (s *Store) snapshotSubsLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []Subscriber, state domain.SessionState) {
	for _, fn := range subs {
		fn(state)
	}
}
