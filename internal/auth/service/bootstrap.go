package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/campuskit/portalauth/internal/auth/domain"
	"github.com/campuskit/portalauth/internal/auth/store"
	"github.com/campuskit/portalauth/pkg/cryptox"
	"github.com/campuskit/portalauth/pkg/idx"
	"github.com/campuskit/portalauth/pkg/slogx"
)

var ErrBootstrapAlready = errors.New("directory already seeded")

// BootstrapService seeds the first admin identity into an empty directory so
// a fresh deployment is usable without poking the database by hand.
type BootstrapService struct {
	Store store.Store
}

// IsBootstrapped reports whether the directory already has at least one identity.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Identities().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// EnsureAdmin creates the initial admin identity when the directory is
// empty. A non-empty directory is left untouched.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, email, password, displayName string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.Identity{}, err
	} else if bootstrapped {
		return domain.Identity{}, ErrBootstrapAlready
	}

	if len(password) < MinPasswordLength {
		return domain.Identity{}, ErrWeakPassword
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		l.Error("failed to hash bootstrap admin password", slog.Any("error", err))
		return domain.Identity{}, err
	}

	identity := domain.Identity{
		ID:           idx.New().String(),
		Email:        strings.TrimSpace(strings.ToLower(email)),
		DisplayName:  displayName,
		Role:         domain.RoleAdmin,
		Active:       true,
		PasswordHash: passHash,
	}

	if err := s.Store.Identities().Create(ctx, identity); err != nil {
		return domain.Identity{}, err
	}

	l.Info("seeded bootstrap admin",
		slog.String("identity_id", identity.ID),
		slog.String("email", identity.Email),
	)
	return identity, nil
}
