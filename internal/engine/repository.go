package engine

import (
	"context"
	"time"

	"escalation-service/internal/models"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status   models.Status
	Priority models.Priority
	Type     models.EscalationType
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e models.Escalation) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Priority != "" && e.Priority != f.Priority {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return true
}

// EscalationRepository is the durable store for escalation records and their
// audit trail. Create and Update commit the record together with exactly one
// audit entry, atomically: either both land or neither does. Update only
// commits when the stored version still equals expectedVersion and returns
// ErrStaleVersion otherwise.
type EscalationRepository interface {
	Create(ctx context.Context, esc models.Escalation, entry models.AuditEntry) error
	Update(ctx context.Context, esc models.Escalation, expectedVersion int, entry models.AuditEntry) error
	Get(ctx context.Context, id string) (models.Escalation, error)
	List(ctx context.Context, f Filter) ([]models.Escalation, error)
	// FindOpenBreach returns the open sla_breach escalation for a service
	// request, or ErrNotFound. Keeps the scanner idempotent.
	FindOpenBreach(ctx context.Context, serviceRequestID string) (models.Escalation, error)
	AuditTrail(ctx context.Context, escalationID string) ([]models.AuditEntry, error)
}

// MemberRepository supplies the team roster the workload registry is seeded
// from.
type MemberRepository interface {
	ListMembers(ctx context.Context) ([]models.TeamMember, error)
}

// ObligationSource is the read-only view of the external scheduling system
// the breach scanner polls.
type ObligationSource interface {
	ListOverdue(ctx context.Context, now time.Time) ([]models.Obligation, error)
}
