package models

import "time"

// AuditAction identifies what a lifecycle transition did.
type AuditAction string

const (
	ActionCreated          AuditAction = "created"
	ActionAcknowledged     AuditAction = "acknowledged"
	ActionStarted          AuditAction = "started"
	ActionReassigned       AuditAction = "reassigned"
	ActionResolved         AuditAction = "resolved"
	ActionClosed           AuditAction = "closed"
	ActionEscalated        AuditAction = "escalated"
	ActionBreachUpdated    AuditAction = "breach_updated"
	ActionPriorityOverride AuditAction = "priority_override"
)

// AuditEntry is one immutable line of an escalation's history. Entries are
// append-only; folding them in order from the initial pending state
// reconstructs the current record.
type AuditEntry struct {
	ID           string      `json:"id"`
	EscalationID string      `json:"escalation_id"`
	ActorID      string      `json:"actor_id"`
	Action       AuditAction `json:"action"`
	Notes        string      `json:"notes,omitempty"`
	PrevStatus   Status      `json:"previous_status"`
	NewStatus    Status      `json:"new_status"`
	CreatedAt    time.Time   `json:"created_at"`
}
