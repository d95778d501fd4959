package models

import "time"

// EscalationType categorizes what triggered an escalation.
type EscalationType string

const (
	TypeSLABreach           EscalationType = "sla_breach"
	TypeClientComplaint     EscalationType = "client_complaint"
	TypeQualityIssue        EscalationType = "quality_issue"
	TypeResourceUnavailable EscalationType = "resource_unavailable"
	TypeDependencyBlocked   EscalationType = "dependency_blocked"
	TypeManual              EscalationType = "manual"
)

// Valid reports whether t is one of the known escalation types.
func (t EscalationType) Valid() bool {
	switch t {
	case TypeSLABreach, TypeClientComplaint, TypeQualityIssue,
		TypeResourceUnavailable, TypeDependencyBlocked, TypeManual:
		return true
	}
	return false
}

// Priority is the derived urgency tier of an escalation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Valid reports whether p is one of the known priority tiers.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Outranks reports whether p is strictly more urgent than other.
func (p Priority) Outranks(other Priority) bool {
	return priorityRank[p] > priorityRank[other]
}

// Status is the lifecycle state of an escalation.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusResolved     Status = "resolved"
	StatusClosed       Status = "closed"
)

// Terminal reports whether no further business transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Escalation is the central record of the engine. It is created by the breach
// scanner or by a manual request, mutated only through lifecycle transitions,
// and carries an optimistic version counter so concurrent writers can be
// detected instead of overwriting each other.
type Escalation struct {
	ID               string         `json:"id"`
	ServiceRequestID string         `json:"service_request_id"`
	ClientID         string         `json:"client_id,omitempty"`
	Type             EscalationType `json:"escalation_type"`
	Level            int            `json:"escalation_level"`
	Priority         Priority       `json:"priority"`
	Status           Status         `json:"status"`
	AssignedTo       string         `json:"assigned_to,omitempty"`
	Reason           string         `json:"reason"`
	Resolution       string         `json:"resolution,omitempty"`
	SLABreachMinutes *int64         `json:"sla_breach_minutes,omitempty"`
	OriginalDueDate  *time.Time     `json:"original_due_date,omitempty"`
	CurrentDueDate   *time.Time     `json:"current_due_date,omitempty"`
	EscalatedAt      time.Time      `json:"escalated_at"`
	AcknowledgedAt   *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	Version          int            `json:"version"`
}

// Open reports whether the escalation is still in the active pool.
func (e Escalation) Open() bool {
	return !e.Status.Terminal()
}
