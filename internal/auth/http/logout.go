package http

import (
	"net/http"

	"github.com/campuskit/portalauth/internal/auth/service"
	"github.com/campuskit/portalauth/pkg/httpx"
	"github.com/campuskit/portalauth/pkg/portalsdk"
)

// LogoutHandler serves POST /auth/logout. Credentials are stateless, so
// logout is an audit record rather than a revocation; the client clears its
// local session regardless of whether this call lands.
type LogoutHandler struct {
	SessionService *service.SessionService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		portalsdk.ErrInvalidCredentials.WriteError(w)
		return
	}

	h.SessionService.Logout(r.Context(), identity.ID)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{})
}
