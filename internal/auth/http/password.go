package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campuskit/portalauth/internal/auth/service"
	"github.com/campuskit/portalauth/pkg/httpx"
	"github.com/campuskit/portalauth/pkg/portalsdk"
	"github.com/campuskit/portalauth/pkg/slogx"
)

// PasswordHandler serves POST /auth/password for the authenticated identity.
type PasswordHandler struct {
	SessionService *service.SessionService
}

func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		portalsdk.ErrInvalidCredentials.WriteError(w)
		return
	}

	var req portalsdk.PasswordChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.SessionService.ChangePassword(r.Context(), identity.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrWeakPassword):
		portalsdk.ErrWeakPassword.WriteError(w)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		portalsdk.ErrInvalidCredentials.WriteError(w)
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("password change failed", "error", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{})
}
