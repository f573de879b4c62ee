// Package guard turns session state plus a required-role constraint into a
// render-or-redirect decision. Unauthenticated and role-mismatch outcomes are
// control flow, not errors.
package guard

import "session-hub/internal/domain"

// Redirect targets.
const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Outcome classifies a decision.
type Outcome int

const (
	// RenderLoading: session resolution has not finished; show a placeholder.
	RenderLoading Outcome = iota
	// Render: the viewer may see the protected view.
	Render
	// Redirect: send the viewer elsewhere, carrying their origin along.
	Redirect
)

// Decision is the outcome of one access check. For Redirect outcomes Path is
// the target and From the viewer's original location, threaded through so a
// post-login flow can return them there. Navigation itself is the caller's
// side effect, never this package's.
type Decision struct {
	Outcome Outcome
	Path    string
	From    string
}

// Decide gates a protected view on the current session state.
//
// A nil or empty required set means any authenticated viewer passes. A
// viewer whose profile is nil fails every role-gated check (fail-closed: a
// profile-less identity has no role, it is never admin-equivalent). A single
// required role and a one-element set produce identical outcomes.
func Decide(state domain.SessionState, required []domain.Role, location string) Decision {
	if state.Loading {
		return Decision{Outcome: RenderLoading}
	}

	if state.Identity == nil {
		return Decision{Outcome: Redirect, Path: LoginPath, From: location}
	}

	if len(required) > 0 && !roleMatches(state, required) {
		return Decision{Outcome: Redirect, Path: UnauthorizedPath, From: location}
	}

	return Decision{Outcome: Render}
}

func roleMatches(state domain.SessionState, required []domain.Role) bool {
	if state.Profile == nil {
		return false
	}
	for _, r := range required {
		if state.Profile.Role == r {
			return true
		}
	}
	return false
}
