package domain

import "time"

// AuthEventKind enumerates the auditable authentication transitions.
type AuthEventKind string

const (
	AuthEventLoginSuccess    AuthEventKind = "auth.login.success"
	AuthEventLoginFailure    AuthEventKind = "auth.login.failure"
	AuthEventRefreshSuccess  AuthEventKind = "auth.refresh.success"
	AuthEventRefreshRejected AuthEventKind = "auth.refresh.rejected"
	AuthEventLogout          AuthEventKind = "auth.logout"
	AuthEventPasswordChanged AuthEventKind = "auth.password.changed"
)

// AuthEvent is the persisted audit record for an authentication transition.
// Tamper-shaped failures (bad signature, cross-application reuse) are worth
// distinguishing from ordinary expiry when reviewing these.
type AuthEvent struct {
	ID         string
	IdentityID string // empty when the identity could not be established
	Kind       AuthEventKind
	Detail     string
	CreatedAt  time.Time
}
