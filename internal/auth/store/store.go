package store

import (
	"context"
	"errors"

	"github.com/campuskit/portalauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Identities() Identities
	AuthEvents() AuthEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Identities is the user directory. The authenticator treats it as a
// read-only per-request lookup; writes happen through admin tooling and the
// password-change endpoint.
type Identities interface {
	// GetByID resolves an identity by id. This is the mandatory
	// per-request lookup: callers must check Active themselves.
	GetByID(ctx context.Context, id string) (domain.Identity, error)

	// GetByEmail is used during login.
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)

	// Create inserts a new identity (id is provided by app via ULID).
	Create(ctx context.Context, identity domain.Identity) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// SetActive flips the active flag and bumps updated_at.
	SetActive(ctx context.Context, id string, active bool) error

	// SetRole changes the role and bumps updated_at.
	SetRole(ctx context.Context, id string, role domain.Role) error

	// IsEmpty returns true if there are no identities.
	IsEmpty(ctx context.Context) (bool, error)
}

// AuthEvents is the append-only audit trail for authentication transitions.
type AuthEvents interface {
	// Record appends an event.
	Record(ctx context.Context, event domain.AuthEvent) error

	// ListByIdentity returns events for one identity, newest first.
	ListByIdentity(ctx context.Context, identityID string, limit int) ([]domain.AuthEvent, error)

	// DeleteOlderThan is housekeeping for the audit table.
	DeleteOlderThan(ctx context.Context, cutoffDays int) error
}
