package engine

import (
	"time"

	"escalation-service/internal/models"
)

// dueSoonWindow is how close to the due date a blocked item counts as urgent.
const dueSoonWindow = 24 * time.Hour

// criticalBreachMinutes marks a breach of a full day or more as critical.
const criticalBreachMinutes = 1440

// Classify maps escalation attributes to a priority tier. Rules are checked
// in order and the first match wins: breach severity and repeat-complaint
// signals dominate category defaults.
//
// breachMinutes is nil when the escalation was not triggered by an SLA
// breach; dueDate is nil when the underlying obligation has no due date.
func Classify(t models.EscalationType, breachMinutes *int64, level int, dueDate *time.Time, now time.Time) models.Priority {
	if t == models.TypeClientComplaint && level >= 2 {
		return models.PriorityCritical
	}
	if breachMinutes != nil {
		if *breachMinutes >= criticalBreachMinutes {
			return models.PriorityCritical
		}
		if *breachMinutes >= 1 {
			return models.PriorityHigh
		}
	}
	if t == models.TypeResourceUnavailable || t == models.TypeDependencyBlocked {
		if dueDate != nil && dueDate.Before(now.Add(dueSoonWindow)) {
			return models.PriorityHigh
		}
		return models.PriorityMedium
	}
	if t == models.TypeQualityIssue {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// Reclassify recomputes an escalation's priority and only ever moves it up.
// Downgrades require an explicit human override, which is recorded as its own
// audit action.
func Reclassify(e models.Escalation, now time.Time) models.Priority {
	p := Classify(e.Type, e.SLABreachMinutes, e.Level, e.CurrentDueDate, now)
	if p.Outranks(e.Priority) {
		return p
	}
	return e.Priority
}
