package models

import "time"

// Obligation is a due-dated unit of work owned by the external scheduling
// system. The engine only reads obligations; it never mutates them.
type Obligation struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id,omitempty"`
	Description string     `json:"description,omitempty"`
	OriginalDue time.Time  `json:"original_due_date"`
	CurrentDue  time.Time  `json:"current_due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Overdue reports whether the obligation has breached its SLA as of now.
func (o Obligation) Overdue(now time.Time) bool {
	return o.CompletedAt == nil && o.CurrentDue.Before(now)
}

// BreachMinutes returns how many whole minutes the obligation is past due.
func (o Obligation) BreachMinutes(now time.Time) int64 {
	if !o.CurrentDue.Before(now) {
		return 0
	}
	return int64(now.Sub(o.CurrentDue) / time.Minute)
}
