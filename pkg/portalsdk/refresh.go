package portalsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// refreshResult is what the single in-flight exchange delivers to every
// waiting request.
type refreshResult struct {
	token string
	err   error
}

// RefreshCoordinator single-flights credential refresh. However many
// requests observe an expired credential at once, exactly one exchange call
// reaches the server; the rest queue as waiters and receive the shared
// outcome in arrival order.
//
// The inFlight flag is set before the exchange goes out and cleared only
// after every waiter has been handed the result, so a request arriving in
// between can never start a second exchange. A failed or timed-out exchange
// clears the session and delivers ErrSessionExpired to all waiters: the
// forced logout path. Waiters are never silently retried.
type RefreshCoordinator struct {
	session *Session
	timeout time.Duration

	mu       sync.Mutex
	inFlight bool
	waiters  []chan refreshResult

	// exchanges counts completed exchange calls. Tests use it to assert
	// the single-flight property.
	exchanges int
}

// NewRefreshCoordinator creates a coordinator bound to one session.
func NewRefreshCoordinator(session *Session, timeout time.Duration) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &RefreshCoordinator{session: session, timeout: timeout}
}

// Refresh returns a fresh access credential, either by performing the
// exchange itself or by waiting on the one already in flight. On failure the
// session has been cleared and the error is terminal for the calling
// request.
//
// A caller cancelled while waiting is removed from the queue and never
// replayed; the in-flight exchange still completes and releases everyone
// else.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.inFlight {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			c.removeWaiter(ch)
			return "", ctx.Err()
		}
	}

	c.inFlight = true
	refreshToken := c.session.RefreshToken()
	c.mu.Unlock()

	res := c.exchange(refreshToken)

	// Take the waiter list and clear inFlight in one critical section;
	// new arrivals from here on start their own exchange.
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.exchanges++
	c.mu.Unlock()

	// FIFO drain. Buffered channels make delivery non-blocking even for
	// waiters that were cancelled after the list was taken.
	for _, ch := range waiters {
		ch <- res
	}

	return res.token, res.err
}

// Exchanges reports how many exchange calls have completed.
func (c *RefreshCoordinator) Exchanges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exchanges
}

// exchange performs the one network call. The timeout is deliberately
// independent of any single caller's context, because the outcome is shared
// by every waiter; a hung exchange is converted to forced logout rather
// than left to wedge the coordinator.
func (c *RefreshCoordinator) exchange(refreshToken string) refreshResult {
	if refreshToken == "" {
		c.session.forceLogout()
		return refreshResult{err: ErrSessionExpired}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.session.client.Exchange(ctx, refreshToken)
	if err != nil {
		c.session.forceLogout()
		return refreshResult{err: fmt.Errorf("%w: %w", ErrSessionExpired, err)}
	}

	c.session.update(resp)
	return refreshResult{token: resp.AccessToken}
}

func (c *RefreshCoordinator) removeWaiter(ch chan refreshResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}
