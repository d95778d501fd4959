package db

import (
	"context"
	"fmt"
	"time"

	"escalation-service/internal/models"
)

// ListOverdue returns incomplete obligations past their current due date.
func (d *DB) ListOverdue(ctx context.Context, now time.Time) ([]models.Obligation, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT id, client_id, description, original_due_date, current_due_date, completed_at
        FROM obligations
        WHERE completed_at IS NULL AND current_due_date < $1
        ORDER BY current_due_date`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue obligations: %w", err)
	}
	defer rows.Close()

	var obligations []models.Obligation
	for rows.Next() {
		var ob models.Obligation
		var clientID, description *string
		if err := rows.Scan(&ob.ID, &clientID, &description, &ob.OriginalDue, &ob.CurrentDue, &ob.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		if clientID != nil {
			ob.ClientID = *clientID
		}
		if description != nil {
			ob.Description = *description
		}
		obligations = append(obligations, ob)
	}
	return obligations, rows.Err()
}
