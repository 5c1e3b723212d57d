package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campuskit/portalauth/internal/auth/domain"
)

type authEventsRepo struct {
	db dbtx
}

func (r *authEventsRepo) Record(ctx context.Context, event domain.AuthEvent) error {
	identityID := sql.NullString{String: event.IdentityID, Valid: event.IdentityID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (id, identity_id, kind, detail) VALUES (?, ?, ?, ?)`,
		event.ID, identityID, string(event.Kind), event.Detail,
	)
	return err
}

func (r *authEventsRepo) ListByIdentity(
	ctx context.Context,
	identityID string,
	limit int,
) ([]domain.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, identity_id, kind, detail, created_at
		 FROM auth_events
		 WHERE identity_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		identityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuthEvent
	for rows.Next() {
		var (
			e    domain.AuthEvent
			idnt sql.NullString
			kind string
		)
		if err := rows.Scan(&e.ID, &idnt, &kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.IdentityID = idnt.String
		e.Kind = domain.AuthEventKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *authEventsRepo) DeleteOlderThan(ctx context.Context, cutoffDays int) error {
	if cutoffDays < 0 {
		cutoffDays = 0
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_events WHERE created_at < datetime('now', ?)`,
		// sqlite modifier, e.g. "-90 days"
		fmt.Sprintf("-%d days", cutoffDays),
	)
	return err
}
