package token

import (
	"time"

	"session-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLength guards against trivially brute-forceable HMAC secrets.
const minSecretLength = 32

// JWTConfig holds viewer token generation configuration.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// viewerClaims are the claims downstream services receive about the viewer.
type viewerClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Sid   string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTIssuer signs short-lived viewer tokens for downstream services.
type JWTIssuer struct {
	cfg JWTConfig
}

// NewJWTIssuer creates an issuer, rejecting weak secrets.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, domain.ErrTokenSecretWeak
	}
	return &JWTIssuer{cfg: cfg}, nil
}

// IssueViewerToken signs a token for a resolved viewer. A nil profile
// yields a token without a role claim; downstream consumers fail closed on
// it the same way the access guard does.
func (j *JWTIssuer) IssueViewerToken(identity *domain.Identity, profile *domain.Profile) (string, error) {
	role := ""
	if profile != nil {
		role = string(profile.Role)
	}

	now := time.Now()
	claims := viewerClaims{
		Email: identity.Email,
		Role:  role,
		Sid:   identity.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Audience:  jwt.ClaimStrings{j.cfg.Audience},
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.Secret))
}
