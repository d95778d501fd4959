package db

import (
	"context"
	"fmt"

	"escalation-service/internal/models"
)

// ListMembers returns the team roster the workload registry is seeded from.
// Active workloads are reconstructed from open assigned escalations so a
// restart does not lose counts.
func (d *DB) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := d.Pool.Query(ctx, `
        SELECT m.id, m.name, m.role, m.max_capacity, m.unavailable,
               COUNT(e.id) FILTER (WHERE e.status NOT IN ($1, $2)) AS active_workload
        FROM team_members m
        LEFT JOIN escalations e ON e.assigned_to = m.id
        GROUP BY m.id, m.name, m.role, m.max_capacity, m.unavailable
        ORDER BY m.id`,
		models.StatusResolved, models.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		var role *string
		if err := rows.Scan(&m.ID, &m.Name, &role, &m.MaxCapacity, &m.Unavailable, &m.ActiveWorkload); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		if role != nil {
			m.Role = *role
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
