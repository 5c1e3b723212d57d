package httpx

import (
	"net/http"
	"strings"
)

// Authorize is the pure role check: membership of identity.Role in the
// allowed set. It reports the taxonomy code on rejection so callers can
// distinguish "log in first" from "access truly denied".
func Authorize(identity Identity, present bool, allowedRoles ...string) (string, bool) {
	if !present {
		return ErrorCodeAuthnRequired, false
	}
	for _, role := range allowedRoles {
		if identity.Role == role {
			return "", true
		}
	}
	return ErrorCodeInsufficientRole, false
}

// RequireRole rejects requests whose resolved identity does not hold one of
// the listed roles. No identity attached yields 401 authentication_required;
// an identity with the wrong role yields 403 insufficient_role. Callers need
// the distinction: one means re-login, the other means access denied.
func RequireRole(allowedRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())

			code, allowed := Authorize(identity, ok, allowedRoles...)
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			writeRoleError(w, code, allowedRoles...)
		})
	}
}

// RequireOwnerOrRole composes the role check with resource ownership:
// the request passes when the identity holds one of the elevated roles OR
// owns the resource (ownerID extracted per request). Used for
// "owner-or-elevated-role" endpoints.
func RequireOwnerOrRole(ownerID func(*http.Request) string, elevatedRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeRoleError(w, ErrorCodeAuthnRequired, elevatedRoles...)
				return
			}

			if _, allowed := Authorize(identity, true, elevatedRoles...); allowed {
				next.ServeHTTP(w, r)
				return
			}

			if owner := ownerID(r); owner != "" && owner == identity.ID {
				next.ServeHTTP(w, r)
				return
			}

			writeRoleError(w, ErrorCodeInsufficientRole, elevatedRoles...)
		})
	}
}

func writeRoleError(w http.ResponseWriter, code string, required ...string) {
	status := http.StatusForbidden
	desc := "insufficient role"
	if code == ErrorCodeAuthnRequired {
		status = http.StatusUnauthorized
		desc = "authentication required"
	}

	w.Header().Set("WWW-Authenticate",
		`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
