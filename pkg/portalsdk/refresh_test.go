package portalsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// authServer is a minimal credential exchange server for coordinator tests.
// It accepts requests bearing currentAccess, returns expired_credential for
// anything else, and rotates the pair on each successful refresh.
type authServer struct {
	t *testing.T

	mu            sync.Mutex
	currentAccess string
	refreshCalls  atomic.Int64
	refreshDelay  time.Duration
	rejectRefresh bool
	protectedHits atomic.Int64
}

func (s *authServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		if s.refreshDelay > 0 {
			time.Sleep(s.refreshDelay)
		}

		if s.rejectRefresh {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             ErrorCodeInvalidRefresh,
				"error_description": "refresh credential rejected",
			})
			return
		}

		s.mu.Lock()
		s.currentAccess = "access-" + time.Now().Format("150405.000000000")
		access := s.currentAccess
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  access,
			RefreshToken: "refresh-rotated",
			TokenType:    "Bearer",
			ExpiresIn:    60,
		})
	})

	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		s.protectedHits.Add(1)

		s.mu.Lock()
		access := s.currentAccess
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+access {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             ErrorCodeExpiredCredential,
				"error_description": "credential expired",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	})

	return mux
}

func newCoordinatorFixture(t *testing.T) (*authServer, *Session) {
	t.Helper()

	srv := &authServer{t: t, currentAccess: "access-fresh"}
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	client := NewClient(ts.URL)
	session := client.NewSessionFromTokens("access-stale", "refresh-valid", nil)
	return srv, session
}

func TestRefreshSingleFlight(t *testing.T) {
	srv, session := newCoordinatorFixture(t)
	// A small exchange delay keeps the window open long enough for every
	// goroutine's rejection to arrive while the exchange is in flight.
	srv.refreshDelay = 100 * time.Millisecond

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	// All goroutines carry the stale credential, so each observes an
	// expiry rejection and enters the refresh path at nearly the same
	// moment.
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out map[string]string
			errs[i] = session.do(context.Background(), http.MethodGet, "/protected", nil, &out)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d should complete after the shared refresh", i)
	}

	require.EqualValues(t, 1, srv.refreshCalls.Load(), "exactly one exchange call must reach the server")
	require.EqualValues(t, 1, session.Coordinator().Exchanges())
}

func TestRefreshForcedLogoutOnBadRefresh(t *testing.T) {
	srv, session := newCoordinatorFixture(t)
	srv.rejectRefresh = true
	srv.refreshDelay = 100 * time.Millisecond

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out map[string]string
			errs[i] = session.do(context.Background(), http.MethodGet, "/protected", nil, &out)
		}()
	}
	wg.Wait()

	// Every request fails terminally; none is replayed with a retried
	// refresh.
	for i, err := range errs {
		require.ErrorIs(t, err, ErrSessionExpired, "request %d must fail terminally", i)
	}
	require.EqualValues(t, 1, srv.refreshCalls.Load())

	require.False(t, session.Authenticated(), "forced logout must clear the session")
	require.Empty(t, session.RefreshToken())
}

func TestRefreshTimeoutForcesLogout(t *testing.T) {
	srv, session := newCoordinatorFixture(t)
	srv.refreshDelay = 300 * time.Millisecond
	session.client.HTTPClient.Timeout = time.Second
	session.coordinator.timeout = 50 * time.Millisecond

	var out map[string]string
	err := session.do(context.Background(), http.MethodGet, "/protected", nil, &out)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.False(t, session.Authenticated())
}

func TestOneRetryPerRequest(t *testing.T) {
	// A server that refreshes successfully but rejects every protected
	// request as expired, whatever credential it carries. Without the
	// one-retry rule this would loop forever.
	var calls authServer

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		calls.refreshCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			TokenType:    "Bearer",
			ExpiresIn:    60,
		})
	})
	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		calls.protectedHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             ErrorCodeExpiredCredential,
			"error_description": "credential expired",
		})
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewClient(ts.URL)
	session := client.NewSessionFromTokens("access-stale", "refresh-valid", nil)

	var out map[string]string
	err := session.do(context.Background(), http.MethodGet, "/protected", nil, &out)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrorCodeExpiredCredential, apiErr.Code)

	require.EqualValues(t, 1, calls.refreshCalls.Load(), "second failure must not re-enter the refresh cycle")
	require.EqualValues(t, 2, calls.protectedHits.Load(), "original request plus exactly one replay")
}

func TestTamperedCredentialForcesLogoutWithoutRefresh(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             ErrorCodeMalformedCredential,
			"error_description": "credential invalid",
		})
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	session := NewClient(ts.URL).NewSessionFromTokens("tampered", "refresh-valid", nil)

	var out map[string]string
	err := session.do(context.Background(), http.MethodGet, "/protected", nil, &out)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrorCodeMalformedCredential, apiErr.Code)

	require.Zero(t, refreshCalls.Load(), "tampering must never trigger a refresh attempt")
	require.False(t, session.Authenticated())
}

func TestWaiterQueuePreservesArrivalOrder(t *testing.T) {
	srv, session := newCoordinatorFixture(t)
	srv.refreshDelay = 200 * time.Millisecond
	c := session.Coordinator()

	// Start the in-flight exchange.
	go func() { _, _ = c.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.inFlight
	}, time.Second, 5*time.Millisecond)

	// Queue waiters one at a time so arrival order is unambiguous, and
	// keep a copy of each channel in that order.
	var arrived []chan refreshResult
	for i := range 4 {
		go func() { _, _ = c.Refresh(context.Background()) }()
		require.Eventually(t, func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if len(c.waiters) != i+1 {
				return false
			}
			arrived = append(arrived[:i], c.waiters[i])
			return true
		}, time.Second, time.Millisecond)
	}

	// The queue the drain loop walks front-to-back is exactly the
	// arrival sequence.
	c.mu.Lock()
	require.Len(t, c.waiters, 4)
	for i := range arrived {
		require.True(t, c.waiters[i] == arrived[i], "waiter %d out of arrival order", i)
	}
	c.mu.Unlock()

	require.Eventually(t, func() bool {
		return c.Exchanges() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWaiterCancellation(t *testing.T) {
	srv, session := newCoordinatorFixture(t)
	srv.refreshDelay = 150 * time.Millisecond

	// First goroutine starts the exchange.
	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = session.Coordinator().Refresh(context.Background())
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the exchange get in flight

	// Second caller queues as a waiter, then cancels.
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := session.Coordinator().Refresh(ctx)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	// The exchange still completes and the session ends up refreshed.
	require.Eventually(t, func() bool {
		return session.Coordinator().Exchanges() == 1
	}, time.Second, 10*time.Millisecond)
	require.True(t, session.Authenticated())
}
