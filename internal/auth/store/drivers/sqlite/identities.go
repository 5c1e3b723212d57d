package sqlite

import (
	"context"
	"strings"

	"github.com/campuskit/portalauth/internal/auth/domain"
	"github.com/campuskit/portalauth/internal/auth/store"
)

type identitiesRepo struct {
	db dbtx
}

const identityColumns = `id, email, display_name, role, active, password_hash, created_at, updated_at`

func (r *identitiesRepo) scanIdentity(row interface{ Scan(...any) error }) (domain.Identity, error) {
	var (
		i       domain.Identity
		roleStr string
	)
	err := row.Scan(
		&i.ID, &i.Email, &i.DisplayName, &roleStr, &i.Active,
		&i.PasswordHash, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}

	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return domain.Identity{}, err
	}
	i.Role = role
	return i, nil
}

func (r *identitiesRepo) GetByID(ctx context.Context, id string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return r.scanIdentity(row)
}

func (r *identitiesRepo) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
	return r.scanIdentity(row)
}

func (r *identitiesRepo) Create(ctx context.Context, identity domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, display_name, role, active, password_hash)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		identity.ID,
		strings.ToLower(strings.TrimSpace(identity.Email)),
		identity.DisplayName,
		string(identity.Role),
		identity.Active,
		identity.PasswordHash,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	return r.exec(ctx,
		`UPDATE identities SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, id)
}

func (r *identitiesRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx,
		`UPDATE identities SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
}

func (r *identitiesRepo) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.exec(ctx,
		`UPDATE identities SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(role), id)
}

func (r *identitiesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// exec runs an UPDATE that must touch exactly one row.
func (r *identitiesRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
