// Package tokenx encodes and decodes the portal's signed, expiring
// credentials. A credential is an HS256 JWT carrying the identity id, email
// and role, plus issuer/audience fields that must round-trip on decode so a
// credential minted for one deployment cannot be replayed against another.
//
// Decode is a pure function of the credential, the shared secret and the
// current time. It keeps no state, so decoding the same credential twice
// always yields the same result.
package tokenx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("tokenx: malformed credential")
	ErrInvalidSig  = errors.New("tokenx: invalid signature")
	ErrIssuer      = errors.New("tokenx: issuer mismatch")
	ErrAudience    = errors.New("tokenx: audience mismatch")
	ErrKind        = errors.New("tokenx: wrong credential kind")
	ErrExpired     = errors.New("tokenx: credential expired")
	ErrNotYetValid = errors.New("tokenx: credential not yet valid")
)

// Codec signs and verifies portal credentials with a shared HS256 secret.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
}

// New builds a Codec. The secret must not be empty; issuer and audience are
// stamped into every issued credential and enforced on decode.
func New(secret []byte, issuer, audience string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokenx: empty signing secret")
	}
	return &Codec{secret: secret, issuer: issuer, audience: audience}, nil
}

// Issue signs a credential of the given kind for the identity.
func (c *Codec) Issue(subject, email, role string, kind Kind, ttl time.Duration) (string, error) {
	claims := NewClaims(subject, email, role, kind, ttl, c.issuer, c.audience, time.Now().UTC())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode verifies the signature, issuer, audience, kind and expiry of a
// credential and returns its claims.
//
// Failure ordering matters to callers: anything that indicates tampering or
// cross-application reuse (bad signature, wrong issuer/audience/kind)
// surfaces before expiry, so an attacker cannot distinguish a forged
// credential from a merely stale one by probing with expired forgeries.
func (c *Codec) Decode(token string, kind Kind) (Claims, error) {
	var claims Claims

	// Claims validation is done explicitly below so that we control the
	// error taxonomy and the validation order.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSig
		}
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(c.audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateKind(kind); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(time.Now().UTC()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// IsTampered reports whether a decode error indicates a forged or misrouted
// credential rather than ordinary expiry. Tampering must force logout on the
// client side without attempting a refresh.
func IsTampered(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrInvalidSig) ||
		errors.Is(err, ErrIssuer) ||
		errors.Is(err, ErrAudience) ||
		errors.Is(err, ErrKind)
}
