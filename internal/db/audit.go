package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"escalation-service/internal/models"
)

func insertAudit(ctx context.Context, tx pgx.Tx, entry models.AuditEntry) error {
	query := `
        INSERT INTO escalation_audit (id, escalation_id, actor_id, action, notes, previous_status, new_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.Exec(ctx, query,
		entry.ID, entry.EscalationID, entry.ActorID, entry.Action,
		nullable(entry.Notes), entry.PrevStatus, entry.NewStatus, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// AuditTrail returns the ordered history of one escalation.
func (d *DB) AuditTrail(ctx context.Context, escalationID string) ([]models.AuditEntry, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT id, escalation_id, actor_id, action, notes, previous_status, new_status, created_at
        FROM escalation_audit
        WHERE escalation_id = $1
        ORDER BY created_at, id`, escalationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail for %s: %w", escalationID, err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		var notes *string
		if err := rows.Scan(&e.ID, &e.EscalationID, &e.ActorID, &e.Action, &notes, &e.PrevStatus, &e.NewStatus, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if notes != nil {
			e.Notes = *notes
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
