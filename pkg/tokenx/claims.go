package tokenx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campuskit/portalauth/pkg/idx"
)

// Default credential TTLs. The portal favours days-scale access credentials;
// refresh credentials live four times as long.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 4 * DefaultAccessTTL
)

// Kind distinguishes access credentials from refresh credentials. Both use
// the same encoding; the refresh endpoint must never accept an access
// credential in place of a refresh one.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims are the signed payload of a portal credential. Additive changes
// only, to preserve compatibility with already-issued credentials.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the identity at issuance time. Display convenience only;
	// authorization always re-resolves the identity.
	Email string `json:"email,omitempty"`

	// Role of the identity at issuance time (student, faculty, admin).
	Role string `json:"role,omitempty"`

	// Use marks the credential kind ("access" or "refresh").
	Use Kind `json:"use,omitempty"`
}

// NewClaims builds minimally-correct claims for a credential of the given kind.
func NewClaims(
	subject, email, role string,
	kind Kind,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Email: email,
		Role:  role,
		Use:   kind,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if !slices.Contains(c.Audience, expected) {
		return ErrAudience
	}

	return nil
}

// ValidateKind ensures a credential is used for the purpose it was issued.
func (c *Claims) ValidateKind(expected Kind) error {
	if c.Use != expected {
		return ErrKind
	}
	return nil
}

// ValidateExpiry ensures the credential hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
