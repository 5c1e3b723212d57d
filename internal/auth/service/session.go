package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/campuskit/portalauth/internal/auth/domain"
	"github.com/campuskit/portalauth/internal/auth/store"
	"github.com/campuskit/portalauth/pkg/cryptox"
	"github.com/campuskit/portalauth/pkg/idx"
	"github.com/campuskit/portalauth/pkg/slogx"
	"github.com/campuskit/portalauth/pkg/tokenx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_credential")
	ErrIdentityInactive   = errors.New("identity_inactive")
	ErrWeakPassword       = errors.New("weak_password")
)

// MinPasswordLength applies to new passwords only; existing hashes are
// grandfathered.
const MinPasswordLength = 10

// SessionService implements the credential exchange operations: login,
// refresh and the stateless logout. Refresh is deliberately stateless on the
// server: a refresh credential proves itself by signature and expiry alone,
// and revocation happens through the identity's active flag, which is
// re-checked on every exchange.
type SessionService struct {
	Codec      *tokenx.Codec
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login exchanges email and password for a credential pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.CredentialPair, domain.Identity, error) {
	l := slogx.FromContext(ctx)
	email = strings.TrimSpace(strings.ToLower(email))

	identity, err := s.Store.Identities().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so enumeration via timing is harder.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			s.record(ctx, "", domain.AuthEventLoginFailure, "unknown email")
			return nil, domain.Identity{}, ErrInvalidCredentials
		}
		return nil, domain.Identity{}, err
	}

	if err := cryptox.VerifyPassword(password, identity.PasswordHash); err != nil {
		l.Info("login rejected", slog.String("identity_id", identity.ID))
		s.record(ctx, identity.ID, domain.AuthEventLoginFailure, "password mismatch")
		return nil, domain.Identity{}, ErrInvalidCredentials
	}

	if !identity.Active {
		l.Warn("login for deactivated identity", slog.String("identity_id", identity.ID))
		s.record(ctx, identity.ID, domain.AuthEventLoginFailure, "identity inactive")
		return nil, domain.Identity{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, domain.Identity{}, err
	}

	s.record(ctx, identity.ID, domain.AuthEventLoginSuccess, "")
	return pair, identity, nil
}

// Refresh exchanges a valid refresh credential for a brand-new pair. The
// identity is re-resolved from the directory so deactivation and role
// changes take effect here, not just at login. An access credential
// presented in place of a refresh one is rejected outright.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.CredentialPair, domain.Identity, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(refreshToken, tokenx.KindRefresh)
	if err != nil {
		if tokenx.IsTampered(err) {
			l.Warn("refresh credential rejected", slog.Any("error", err))
		} else {
			l.Debug("refresh credential expired", slog.Any("error", err))
		}
		s.record(ctx, "", domain.AuthEventRefreshRejected, err.Error())
		return nil, domain.Identity{}, ErrInvalidRefresh
	}

	identity, err := s.Store.Identities().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.record(ctx, claims.Subject, domain.AuthEventRefreshRejected, "unknown identity")
			return nil, domain.Identity{}, ErrInvalidRefresh
		}
		return nil, domain.Identity{}, err
	}

	if !identity.Active {
		l.Warn("refresh for deactivated identity", slog.String("identity_id", identity.ID))
		s.record(ctx, identity.ID, domain.AuthEventRefreshRejected, "identity inactive")
		return nil, domain.Identity{}, ErrInvalidRefresh
	}

	// The new pair is minted from the identity's current state, not from
	// the old claims, so a role change propagates on the next refresh.
	pair, err := s.issuePair(identity)
	if err != nil {
		return nil, domain.Identity{}, err
	}

	s.record(ctx, identity.ID, domain.AuthEventRefreshSuccess, "")
	return pair, identity, nil
}

// Logout records the end of a session. Credentials are stateless so there is
// nothing to revoke server-side; the client discards its pair and the audit
// trail notes the intent.
func (s *SessionService) Logout(ctx context.Context, identityID string) {
	s.record(ctx, identityID, domain.AuthEventLogout, "")
}

// ChangePassword verifies the current password before accepting the new one.
func (s *SessionService) ChangePassword(ctx context.Context, identityID, current, next string) error {
	l := slogx.FromContext(ctx)

	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}

	identity, err := s.Store.Identities().GetByID(ctx, identityID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(current, identity.PasswordHash); err != nil {
		l.Info("password change rejected", slog.String("identity_id", identityID))
		return ErrInvalidCredentials
	}

	newHash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}

	if err := s.Store.Identities().UpdatePasswordHash(ctx, identityID, newHash); err != nil {
		return err
	}

	s.record(ctx, identityID, domain.AuthEventPasswordChanged, "")
	return nil
}

func (s *SessionService) issuePair(identity domain.Identity) (*domain.CredentialPair, error) {
	access, err := s.Codec.Issue(identity.ID, identity.Email, string(identity.Role), tokenx.KindAccess, s.AccessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Codec.Issue(identity.ID, identity.Email, string(identity.Role), tokenx.KindRefresh, s.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &domain.CredentialPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// record appends an audit event. Audit failures are logged but never fail
// the operation they describe.
func (s *SessionService) record(ctx context.Context, identityID string, kind domain.AuthEventKind, detail string) {
	event := domain.AuthEvent{
		ID:         idx.New().String(),
		IdentityID: identityID,
		Kind:       kind,
		Detail:     detail,
	}
	if err := s.Store.AuthEvents().Record(ctx, event); err != nil {
		slogx.FromContext(ctx).Error("failed to record auth event",
			slog.String("kind", string(kind)), slog.Any("error", err))
	}
}
