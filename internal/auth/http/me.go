package http

import (
	"net/http"

	"github.com/campuskit/portalauth/pkg/httpx"
	"github.com/campuskit/portalauth/pkg/portalsdk"
)

// MeHandler serves GET /auth/me. The authenticator has already resolved the
// identity, so this is a straight projection of the context value.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := httpx.IdentityFromContext(r.Context())
		if !ok {
			// Only reachable if the route is mounted without Authn.
			portalsdk.ErrInvalidCredentials.WriteError(w)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, portalsdk.IdentitySummary{
			ID:          identity.ID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			Role:        identity.Role,
		})
	}
}
