package domain

import "time"

// Role classifies a profile's permission class. The set is closed but
// extensible: new roles are added here and in the label tables, nowhere else.
type Role string

const (
	RoleExpert  Role = "expert"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// ValidRoles lists every role the platform knows about.
var ValidRoles = []Role{RoleExpert, RoleCompany, RoleAdmin}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Identity is the authenticated subject as reported by the identity
// provider. Opaque beyond the id/session reference; owned by the provider.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
	CreatedAt time.Time
}

// Profile is the application-level user record keyed to an Identity.
// Nil when profile resolution failed or has not completed.
type Profile struct {
	Role        Role
	DisplayName string
	Attributes  map[string]string
}

// SessionState is the snapshot every consumer sees.
//
// Invariant: Loading == false implies both the identity and the profile
// resolution attempts have completed. A non-nil Identity with a nil Profile
// after resolution means the profile fetch failed; downstream authorization
// treats that viewer as having no role.
type SessionState struct {
	Loading  bool
	Identity *Identity
	Profile  *Profile
}

// Unauthenticated is the terminal state for a viewer with no session.
func Unauthenticated() SessionState {
	return SessionState{Loading: false}
}

// Authenticated reports whether the state carries a resolved identity.
func (s SessionState) Authenticated() bool {
	return !s.Loading && s.Identity != nil
}

// Role returns the viewer's role, or the empty role when the viewer is
// unauthenticated, still resolving, or has no profile.
func (s SessionState) Role() Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}
