package domain

import "context"

// IdentityProvider is the consumed identity capability, bound to one viewer.
type IdentityProvider interface {
	// CurrentIdentity returns the viewer's identity, or (nil, nil) when the
	// viewer has no session. Errors indicate provider connectivity problems.
	CurrentIdentity(ctx context.Context) (*Identity, error)

	// FetchProfile resolves the application profile for an identity.
	// Failure is recoverable: the caller degrades to a nil profile.
	FetchProfile(ctx context.Context, identity *Identity) (*Profile, error)

	// OnIdentityChange registers fn for sign-in/sign-out/refresh notifications
	// (nil identity means "no session"). The returned func unregisters fn.
	OnIdentityChange(fn func(*Identity)) (unsubscribe func())

	// SignOut terminates the viewer's session at the provider. Callers must
	// not block UI-visible state on its completion.
	SignOut(ctx context.Context) error
}

// Storage is the tab-scoped key/value persistence medium behind the
// ephemeral cache and the preference store. The medium may be cleared
// externally at any time; callers treat any failure as an ordinary miss.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
