package domain

import "errors"

// Session resolution errors.
var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProfileFetch        = errors.New("profile fetch failed")
)

// Storage errors. Consumers of the ephemeral cache never see these; they
// exist so storage implementations have something precise to return.
var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Token errors.
var (
	ErrTokenGeneration = errors.New("token generation failed")
	ErrTokenSecretWeak = errors.New("viewer token secret too weak")
)

// Labeling errors.
var (
	ErrUnknownStatusDomain = errors.New("unknown status domain")
)
