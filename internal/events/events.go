package events

import (
	"escalation-service/internal/models"
)

// Event names published to external consumers.
const (
	EscalationCreated    = "escalation.created"
	EscalationBreached   = "escalation.breached"
	EscalationAcked      = "escalation.acknowledged"
	EscalationStarted    = "escalation.started"
	EscalationReassigned = "escalation.reassigned"
	EscalationResolved   = "escalation.resolved"
	EscalationClosed     = "escalation.closed"
	EscalationEscalated  = "escalation.escalated"
	PriorityOverridden   = "escalation.priority_overridden"
)

// Event is emitted after every successfully committed transition. It carries
// the full audit entry plus a snapshot of the record so consumers never need
// a read-back.
type Event struct {
	Name       string            `json:"name"`
	Escalation models.Escalation `json:"escalation"`
	Audit      models.AuditEntry `json:"audit"`
}

// Sink receives engine events. Delivery is out of scope for the engine:
// implementations publish to Kafka, fan out to dashboards, or drop events in
// tests. Publish must not block transitions; failures are logged, not
// surfaced to the actor.
type Sink interface {
	Publish(ev Event)
}

// Fanout sends each event to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(ev Event) {
	for _, s := range f {
		s.Publish(ev)
	}
}

// Discard is the sink used when no broker or dashboard is wired.
type Discard struct{}

func (Discard) Publish(Event) {}

// NameFor maps an audit action to the outbound event name.
func NameFor(action models.AuditAction) string {
	switch action {
	case models.ActionCreated:
		return EscalationCreated
	case models.ActionBreachUpdated:
		return EscalationBreached
	case models.ActionAcknowledged:
		return EscalationAcked
	case models.ActionStarted:
		return EscalationStarted
	case models.ActionReassigned:
		return EscalationReassigned
	case models.ActionResolved:
		return EscalationResolved
	case models.ActionClosed:
		return EscalationClosed
	case models.ActionEscalated:
		return EscalationEscalated
	case models.ActionPriorityOverride:
		return PriorityOverridden
	default:
		return string(action)
	}
}
