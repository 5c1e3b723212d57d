/*
Package portalsdk provides a client SDK for the campus portal authentication
service.

# Overview

The package is organized around two main types:

  - Client: unauthenticated operations (login, refresh, health) and session creation
  - Session: authenticated operations with coordinated credential refresh

Create a Client to reach public endpoints and log in:

	client := portalsdk.NewClient("https://auth.campus.example")

	session, err := client.Login(ctx, "alice@example.edu", "password")
	if err != nil {
		log.Fatal(err)
	}

Use the Session for authenticated operations:

	me, err := session.Me(ctx)

	err = session.ChangePassword(ctx, current, next)

	err = session.Logout(ctx)

# Coordinated Refresh

Every authenticated request is wrapped: when the server rejects the access
credential as expired, the session exchanges its refresh credential for a new
pair and replays the request once. Concurrent requests that hit expiry at the
same time are single-flighted through a RefreshCoordinator: exactly one
exchange call goes out, and every queued request waits for its outcome in
arrival order. A failed or timed-out exchange clears the session (forced
logout); waiting requests receive a terminal error and are never replayed.

The one-retry rule is strict: a request replayed after a successful refresh
that fails again with the same error class surfaces that failure to the
caller instead of re-entering the refresh cycle.

# Inactivity

An IdleMonitor can be installed per session. It expires the session exactly
once after a configurable idle window with no observed activity, clears the
local credential pair and makes a best-effort logout call to the server:

	monitor := portalsdk.NewIdleMonitor(portalsdk.IdleConfig{
		Window: 5 * time.Minute,
		OnExpire: func() {
			// surface "logged out" to the UI
		},
	})
	session.InstallIdleMonitor(monitor)

Call Touch on any user activity to reset the countdown.

# Thread Safety

Sessions are safe for concurrent use. Multiple goroutines can share one
Session; refresh coordination guarantees a single outstanding exchange.
*/
package portalsdk
