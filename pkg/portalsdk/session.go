package portalsdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Session holds the current credential pair and identity snapshot. It is
// created on successful login, replaced-in-place on refresh and destroyed on
// logout, refresh failure or inactivity expiry. At most one Session should
// exist per client.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	identity     *IdentitySummary

	coordinator *RefreshCoordinator
	idle        *IdleMonitor
}

func newSession(client *Client, resp *TokenResponse) *Session {
	s := &Session{
		client:       client,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
		identity:     resp.Identity,
	}
	s.coordinator = NewRefreshCoordinator(s, client.refreshTimeout())
	return s
}

// AccessToken returns the current access credential.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh credential.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Identity returns the identity snapshot captured at login, or nil after
// logout. The snapshot is display convenience; the server re-resolves the
// identity on every request.
func (s *Session) Identity() *IdentitySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Authenticated reports whether the session currently holds credentials.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken != ""
}

// Coordinator exposes the session's refresh coordinator, mainly so tests and
// instrumentation can observe it.
func (s *Session) Coordinator() *RefreshCoordinator {
	return s.coordinator
}

// update replaces the credential pair after a successful refresh.
func (s *Session) update(resp *TokenResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	if resp.Identity != nil {
		s.identity = resp.Identity
	}
}

// Clear destroys the local session state. Idempotent.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.identity = nil
}

// Me fetches the current identity summary from the server.
func (s *Session) Me(ctx context.Context) (*IdentitySummary, error) {
	var summary IdentitySummary
	if err := s.do(ctx, http.MethodGet, "/auth/me", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ChangePassword rotates the account password.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	body := PasswordChangeRequest{CurrentPassword: current, NewPassword: next}
	return s.do(ctx, http.MethodPost, "/auth/password", body, nil)
}

// Logout tells the server the session is over and clears local state. The
// local session is cleared even when the server call fails; being logged out
// locally never depends on network success.
func (s *Session) Logout(ctx context.Context) error {
	token := s.AccessToken()
	s.stopIdleMonitor()
	s.Clear()

	if token == "" {
		return nil
	}
	return s.client.roundTrip(ctx, http.MethodPost, "/auth/logout", nil, token, nil)
}

// LogoutBestEffort is the fire-and-forget variant for shutdown paths. It
// clears local state immediately and delivers the server notification on a
// short leash, ignoring failure.
func (s *Session) LogoutBestEffort() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Logout(ctx)
}

// do wraps an authenticated request with the one-retry refresh rule: a
// recoverable rejection triggers exactly one coordinated refresh and one
// replay. A second failure of the replayed request surfaces directly.
func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	token := s.AccessToken()
	if token == "" {
		return ErrNotAuthenticated
	}

	err := s.client.roundTrip(ctx, method, path, body, token, out)
	if err == nil {
		return nil
	}

	if isTamperedCredential(err) {
		// Tampering is unrecoverable: no refresh attempt.
		s.forceLogout()
		return err
	}

	if !isRefreshTrigger(err) {
		return err
	}

	newToken, refreshErr := s.coordinator.Refresh(ctx)
	if refreshErr != nil {
		return refreshErr
	}

	// Replay once with the fresh credential. Whatever happens now is the
	// final answer for this request.
	return s.client.roundTrip(ctx, method, path, body, newToken, out)
}

// forceLogout clears the session without a server round-trip. Used on
// tampered credentials and refresh failure.
func (s *Session) forceLogout() {
	s.stopIdleMonitor()
	s.Clear()
}

// InstallIdleMonitor attaches an inactivity monitor to this session and
// starts it. The monitor clears the session and makes a best-effort server
// logout when it expires, additionally invoking the monitor's own OnExpire
// callback. Installing a monitor replaces (and stops) any previous one;
// a new session never inherits a running monitor implicitly.
func (s *Session) InstallIdleMonitor(m *IdleMonitor) {
	s.mu.Lock()
	previous := s.idle
	s.idle = m
	s.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}

	m.start(func() {
		s.LogoutBestEffort()
	})
}

// Touch records user activity, resetting the inactivity countdown.
func (s *Session) Touch() {
	s.mu.RLock()
	m := s.idle
	s.mu.RUnlock()
	if m != nil {
		m.Touch()
	}
}

func (s *Session) stopIdleMonitor() {
	s.mu.Lock()
	m := s.idle
	s.idle = nil
	s.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}
