package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"escalation-service/internal/engine"
	"escalation-service/internal/models"
)

const escalationColumns = `id, service_request_id, client_id, escalation_type, escalation_level,
        priority, status, assigned_to, reason, resolution, sla_breach_minutes,
        original_due_date, current_due_date, escalated_at, acknowledged_at, resolved_at, version`

// Create inserts the escalation and its initial audit entry in one
// transaction.
func (d *DB) Create(ctx context.Context, esc models.Escalation, entry models.AuditEntry) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO escalations (` + escalationColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = tx.Exec(ctx, query,
		esc.ID, esc.ServiceRequestID, nullable(esc.ClientID), esc.Type, esc.Level,
		esc.Priority, esc.Status, nullable(esc.AssignedTo), esc.Reason, nullable(esc.Resolution),
		esc.SLABreachMinutes, esc.OriginalDueDate, esc.CurrentDueDate,
		esc.EscalatedAt, esc.AcknowledgedAt, esc.ResolvedAt, esc.Version)
	if err != nil {
		return fmt.Errorf("failed to create escalation: %w", err)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit escalation create: %w", err)
	}
	return nil
}

// Update commits the record and one audit entry only when the stored version
// still equals expectedVersion; otherwise nothing is written and
// engine.ErrStaleVersion is returned.
func (d *DB) Update(ctx context.Context, esc models.Escalation, expectedVersion int, entry models.AuditEntry) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE escalations
        SET escalation_level = $1, priority = $2, status = $3, assigned_to = $4,
            resolution = $5, sla_breach_minutes = $6, current_due_date = $7,
            acknowledged_at = $8, resolved_at = $9, version = $10
        WHERE id = $11 AND version = $12`
	result, err := tx.Exec(ctx, query,
		esc.Level, esc.Priority, esc.Status, nullable(esc.AssignedTo),
		nullable(esc.Resolution), esc.SLABreachMinutes, esc.CurrentDueDate,
		esc.AcknowledgedAt, esc.ResolvedAt, esc.Version,
		esc.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update escalation: %w", err)
	}
	if result.RowsAffected() == 0 {
		var v int
		err := tx.QueryRow(ctx, `SELECT version FROM escalations WHERE id = $1`, esc.ID).Scan(&v)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("escalation %s: %w", esc.ID, engine.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check escalation version: %w", err)
		}
		return fmt.Errorf("escalation %s at version %d, expected %d: %w", esc.ID, v, expectedVersion, engine.ErrStaleVersion)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit escalation update: %w", err)
	}
	return nil
}

// Get returns one escalation by id.
func (d *DB) Get(ctx context.Context, id string) (models.Escalation, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+escalationColumns+` FROM escalations WHERE id = $1`, id)
	esc, err := scanEscalation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Escalation{}, fmt.Errorf("escalation %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return models.Escalation{}, fmt.Errorf("failed to get escalation %s: %w", id, err)
	}
	return esc, nil
}

// List returns escalations matching the filter, newest first.
func (d *DB) List(ctx context.Context, f engine.Filter) ([]models.Escalation, error) {
	var conds []string
	var args []interface{}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("escalation_type = $%d", len(args)))
	}
	query := `SELECT ` + escalationColumns + ` FROM escalations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY escalated_at DESC, id"

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalations: %w", err)
	}
	defer rows.Close()

	var escalations []models.Escalation
	for rows.Next() {
		esc, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		escalations = append(escalations, esc)
	}
	return escalations, rows.Err()
}

// FindOpenBreach returns the open sla_breach escalation for a service
// request, or engine.ErrNotFound.
func (d *DB) FindOpenBreach(ctx context.Context, serviceRequestID string) (models.Escalation, error) {
	row := d.Pool.QueryRow(ctx, `
        SELECT `+escalationColumns+`
        FROM escalations
        WHERE service_request_id = $1 AND escalation_type = $2 AND status NOT IN ($3, $4)
        ORDER BY escalated_at DESC
        LIMIT 1`,
		serviceRequestID, models.TypeSLABreach, models.StatusResolved, models.StatusClosed)
	esc, err := scanEscalation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Escalation{}, fmt.Errorf("open breach for %s: %w", serviceRequestID, engine.ErrNotFound)
	}
	if err != nil {
		return models.Escalation{}, fmt.Errorf("failed to find open breach for %s: %w", serviceRequestID, err)
	}
	return esc, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEscalation(row rowScanner) (models.Escalation, error) {
	var esc models.Escalation
	var clientID, assignedTo, resolution *string
	err := row.Scan(
		&esc.ID, &esc.ServiceRequestID, &clientID, &esc.Type, &esc.Level,
		&esc.Priority, &esc.Status, &assignedTo, &esc.Reason, &resolution,
		&esc.SLABreachMinutes, &esc.OriginalDueDate, &esc.CurrentDueDate,
		&esc.EscalatedAt, &esc.AcknowledgedAt, &esc.ResolvedAt, &esc.Version,
	)
	if err != nil {
		return models.Escalation{}, err
	}
	if clientID != nil {
		esc.ClientID = *clientID
	}
	if assignedTo != nil {
		esc.AssignedTo = *assignedTo
	}
	if resolution != nil {
		esc.Resolution = *resolution
	}
	return esc, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
