package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/campuskit/portalauth/internal/auth/service"
	"github.com/campuskit/portalauth/internal/auth/store"
	"github.com/campuskit/portalauth/pkg/httpx"
	"github.com/campuskit/portalauth/pkg/slogx"
	"github.com/campuskit/portalauth/pkg/tokenx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *tokenx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	SessionService   *service.SessionService
	DirectoryService *service.DirectoryService
}

func NewRouter(codec *tokenx.Codec, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	resolver := r.DirectoryService.Resolver()

	// POST /auth/login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/refresh - unauthenticated (the refresh credential is the
	// proof), moderate rate limit by IP since well-behaved clients coalesce
	// refreshes
	refreshHandler := &RefreshHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /auth/me - authenticated, lenient rate limit by identity
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(MeHandler(),
			httpx.Authn(r.codec, resolver),
			httpx.RateLimitByIdentity(httpx.LenientLimit),
		),
	)

	// POST /auth/logout - authenticated, moderate rate limit by identity
	logoutHandler := &LogoutHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(logoutHandler,
			httpx.Authn(r.codec, resolver),
			httpx.RateLimitByIdentity(httpx.ModerateLimit),
		),
	)

	// POST /auth/password - authenticated, strict rate limit by identity
	// (current-password verification is a brute-force surface)
	passwordHandler := &PasswordHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /auth/password",
		httpx.Chain(passwordHandler,
			httpx.Authn(r.codec, resolver),
			httpx.RateLimitByIdentity(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
