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

// RefreshHandler serves POST /auth/refresh: the credential exchange
// endpoint. A valid refresh credential buys a brand-new pair minted from the
// identity's current directory state. Expired, malformed and
// inactive-identity refreshes are all rejected with the same answer.
type RefreshHandler struct {
	SessionService *service.SessionService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req portalsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		portalsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		portalsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, _, err := h.SessionService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			portalsdk.ErrInvalidRefresh.WriteError(w)
			return
		}
		log.Error("refresh failed", "error", err)
		portalsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn / time.Second),
	})
}
