package service

import (
	"context"
	"errors"

	"github.com/campuskit/portalauth/internal/auth/domain"
	"github.com/campuskit/portalauth/internal/auth/store"
	"github.com/campuskit/portalauth/pkg/httpx"
)

// DirectoryService is the read side of the user directory.
type DirectoryService struct {
	Store store.Store
}

// GetByID fetches an identity by id.
func (s *DirectoryService) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	return s.Store.Identities().GetByID(ctx, id)
}

// RecentEvents returns the newest audit events for an identity.
func (s *DirectoryService) RecentEvents(ctx context.Context, identityID string, limit int) ([]domain.AuthEvent, error) {
	return s.Store.AuthEvents().ListByIdentity(ctx, identityID, limit)
}

// Resolver adapts the directory to the authenticator's per-request lookup.
// store.ErrNotFound is translated so the middleware never needs to know
// about this package's storage layer.
func (s *DirectoryService) Resolver() httpx.IdentityResolver {
	return httpx.IdentityResolverFunc(func(ctx context.Context, id string) (httpx.Identity, error) {
		identity, err := s.Store.Identities().GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return httpx.Identity{}, httpx.ErrIdentityNotFound
			}
			return httpx.Identity{}, err
		}
		return httpx.Identity{
			ID:          identity.ID,
			Email:       identity.Email,
			DisplayName: identity.DisplayName,
			Role:        string(identity.Role),
			Active:      identity.Active,
		}, nil
	})
}
