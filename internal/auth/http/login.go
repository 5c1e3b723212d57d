package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campuskit/portalauth/internal/auth/service"
	"github.com/campuskit/portalauth/pkg/httpx"
	"github.com/campuskit/portalauth/pkg/portalsdk"
	"github.com/campuskit/portalauth/pkg/slogx"
)

// LoginHandler serves POST /auth/login. Accepts a JSON body with email and
// password; returns a credential pair plus the identity snapshot.
type LoginHandler struct {
	SessionService *service.SessionService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req portalsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, identity, err := h.SessionService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			portalsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed", "error", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	summary := identity.Summary()
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn / time.Second),
		Identity: &portalsdk.IdentitySummary{
			ID:          summary.ID,
			Email:       summary.Email,
			DisplayName: summary.DisplayName,
			Role:        string(summary.Role),
		},
	})
}
