package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/campuskit/portalauth/pkg/slogx"
	"github.com/campuskit/portalauth/pkg/tokenx"
)

// Wire-level error codes for the 401/403 taxonomy. Shared with the client
// SDK, which keys its refresh decision off them: expiry is recoverable via
// refresh, tampering is not.
const (
	ErrorCodeMissingCredential   = "missing_credential"
	ErrorCodeMalformedCredential = "malformed_credential"
	ErrorCodeExpiredCredential   = "expired_credential"
	ErrorCodeUnknownIdentity     = "unknown_or_inactive_identity"
	ErrorCodeAuthnRequired       = "authentication_required"
	ErrorCodeInsufficientRole    = "insufficient_role"
)

// Identity is the resolved caller attached to the request context. Kept
// generic so this package does not depend on the service's domain types.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	Role        string
	Active      bool
}

// ErrIdentityNotFound is returned by resolvers when no identity exists for
// the given id.
var ErrIdentityNotFound = errors.New("httpx: identity not found")

// IdentityResolver looks up the current state of an identity. The
// authenticator calls it on every request, not just at issuance, so role
// changes and deactivation take effect on the very next request.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id string) (Identity, error)
}

// IdentityResolverFunc adapts a function to the IdentityResolver interface.
type IdentityResolverFunc func(ctx context.Context, id string) (Identity, error)

func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, id string) (Identity, error) {
	return f(ctx, id)
}

// Authn verifies the bearer credential, resolves the identity and attaches
// it to the request context. Any failure terminates the request with a 401
// carrying one of the taxonomy codes above.
func Authn(codec *tokenx.Codec, resolver IdentityResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, code, desc := authenticate(r, codec, resolver)
			if code != "" {
				writeBearerError(w, code, desc)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthnOptional runs the same pipeline but never terminates the request: a
// rejection simply means no identity is attached. Used by endpoints that
// personalize output for authenticated callers but remain reachable
// anonymously.
func AuthnOptional(codec *tokenx.Codec, resolver IdentityResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, code, _ := authenticate(r, codec, resolver)
			if code == "" {
				r = r.WithContext(ContextWithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate runs the ExtractHeader -> Decode -> ResolveIdentity pipeline.
// It returns a zero code on success, otherwise the taxonomy code and a
// human-readable description.
func authenticate(
	r *http.Request,
	codec *tokenx.Codec,
	resolver IdentityResolver,
) (Identity, string, string) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return Identity{}, ErrorCodeMissingCredential, "missing bearer credential"
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

	claims, err := codec.Decode(raw, tokenx.KindAccess)
	if err != nil {
		if errors.Is(err, tokenx.ErrExpired) {
			log.Debug("access credential expired", "err", err)
			return Identity{}, ErrorCodeExpiredCredential, "credential expired"
		}
		// Bad signature or cross-application reuse looks like tampering,
		// which is worth more noise than ordinary expiry.
		log.Warn("access credential rejected", "err", err)
		return Identity{}, ErrorCodeMalformedCredential, "credential invalid"
	}

	identity, err := resolver.ResolveIdentity(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			log.Warn("credential for unknown identity", "identity_id", claims.Subject)
			return Identity{}, ErrorCodeUnknownIdentity, "unknown or inactive identity"
		}
		log.Error("identity resolution failed", "identity_id", claims.Subject, "err", err)
		return Identity{}, ErrorCodeUnknownIdentity, "unknown or inactive identity"
	}

	if !identity.Active {
		log.Warn("credential for inactive identity", "identity_id", identity.ID)
		return Identity{}, ErrorCodeUnknownIdentity, "unknown or inactive identity"
	}

	return identity, "", ""
}

// RFC 6750-compliant error response for bearer auth, with the JSON envelope
// the SDK parses.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	NoCache(w)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
