package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/srgjo27/car_rental/internal/core/domain"
)

// AuditRepository only inserts; booking_audit_log has no update or delete path.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	query := `
	INSERT INTO booking_audit_log (id, action, actor, resource_id, outcome, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var reason sql.NullString
	if entry.Reason != domain.ReasonNone {
		reason = sql.NullString{String: string(entry.Reason), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Action, entry.Actor, entry.ResourceID, entry.Outcome, reason, entry.Timestamp)
	if err != nil {
		return errors.Wrap(err, "failed to insert audit entry")
	}

	return nil
}

func (r *AuditRepository) ListByResource(ctx context.Context, resourceID string) ([]domain.AuditLogEntry, error) {
	query := `
	SELECT id, action, actor, resource_id, outcome, reason, created_at
	FROM booking_audit_log
	WHERE resource_id = $1
	ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query audit entries")
	}

	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.ResourceID, &e.Outcome, &reason, &e.Timestamp); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}

		e.Reason = domain.FailureReason(reason.String)
		entries = append(entries, e)
	}

	return entries, errors.Wrap(rows.Err(), "failed to iterate audit entries")
}
