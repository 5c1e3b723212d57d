package portalsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultRefreshTimeout bounds a single refresh exchange. A hung exchange is
// treated like a failed one so the coordinator can never wedge the session.
const DefaultRefreshTimeout = 15 * time.Second

// Client reaches the portal auth service. It provides unauthenticated
// operations and creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// RefreshTimeout bounds refresh exchanges for sessions created by
	// this client. Zero means DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// NewClient creates a portal auth client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges email and password for an authenticated Session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return newSession(c, &resp), nil
}

// NewSessionFromTokens rebuilds a Session from previously stored
// credentials, e.g. after an application restart. The pair is used as-is;
// if the access credential has already expired the first request will repair
// it through the normal refresh path.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string, identity *IdentitySummary) *Session {
	s := newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identity:     identity,
	})
	return s
}

// Exchange calls the credential exchange endpoint directly. Most callers
// should rely on the Session's coordinated refresh instead.
func (c *Client) Exchange(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLiveness checks the service liveness probe.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/livez", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReadiness checks the service readiness probe.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/readyz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) refreshTimeout() time.Duration {
	if c.RefreshTimeout > 0 {
		return c.RefreshTimeout
	}
	return DefaultRefreshTimeout
}
