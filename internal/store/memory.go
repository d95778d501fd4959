// Package store provides the in-memory escalation repository, used by tests
// and when the service runs without a database DSN.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"escalation-service/internal/engine"
	"escalation-service/internal/models"
)

// Memory keeps escalations, their audit trail and obligations behind one
// mutex. Record and audit writes happen under the same critical section, so a
// transition commit is all-or-nothing exactly like the Postgres transaction.
type Memory struct {
	mu          sync.Mutex
	escalations map[string]models.Escalation
	audit       map[string][]models.AuditEntry
	obligations map[string]models.Obligation
}

// NewMemory builds an empty store.
func NewMemory() *Memory {
	return &Memory{
		escalations: make(map[string]models.Escalation),
		audit:       make(map[string][]models.AuditEntry),
		obligations: make(map[string]models.Obligation),
	}
}

// Create stores a new escalation with its initial audit entry.
func (m *Memory) Create(ctx context.Context, esc models.Escalation, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.escalations[esc.ID]; exists {
		return fmt.Errorf("escalation %s already exists", esc.ID)
	}
	m.escalations[esc.ID] = esc
	m.audit[esc.ID] = append(m.audit[esc.ID], entry)
	return nil
}

// Update commits a mutated record and one audit entry if the stored version
// still matches expectedVersion.
func (m *Memory) Update(ctx context.Context, esc models.Escalation, expectedVersion int, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.escalations[esc.ID]
	if !ok {
		return fmt.Errorf("escalation %s: %w", esc.ID, engine.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("escalation %s at version %d, expected %d: %w",
			esc.ID, current.Version, expectedVersion, engine.ErrStaleVersion)
	}
	m.escalations[esc.ID] = esc
	m.audit[esc.ID] = append(m.audit[esc.ID], entry)
	return nil
}

// Get returns one escalation by id.
func (m *Memory) Get(ctx context.Context, id string) (models.Escalation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	esc, ok := m.escalations[id]
	if !ok {
		return models.Escalation{}, fmt.Errorf("escalation %s: %w", id, engine.ErrNotFound)
	}
	return esc, nil
}

// List returns matching escalations, newest first.
func (m *Memory) List(ctx context.Context, f engine.Filter) ([]models.Escalation, error) {
	m.mu.Lock()
	out := make([]models.Escalation, 0, len(m.escalations))
	for _, esc := range m.escalations {
		if f.Matches(esc) {
			out = append(out, esc)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EscalatedAt.Equal(out[j].EscalatedAt) {
			return out[i].EscalatedAt.After(out[j].EscalatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindOpenBreach returns the open sla_breach escalation for a service
// request, or engine.ErrNotFound.
func (m *Memory) FindOpenBreach(ctx context.Context, serviceRequestID string) (models.Escalation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, esc := range m.escalations {
		if esc.ServiceRequestID == serviceRequestID && esc.Type == models.TypeSLABreach && esc.Open() {
			return esc, nil
		}
	}
	return models.Escalation{}, fmt.Errorf("open breach for %s: %w", serviceRequestID, engine.ErrNotFound)
}

// AuditTrail returns the ordered history of one escalation.
func (m *Memory) AuditTrail(ctx context.Context, escalationID string) ([]models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.audit[escalationID]
	out := make([]models.AuditEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// PutObligation registers or replaces an obligation; the demo mode and tests
// use it in place of the external scheduling system.
func (m *Memory) PutObligation(ob models.Obligation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obligations[ob.ID] = ob
}

// ListOverdue returns obligations past their current due date.
func (m *Memory) ListOverdue(ctx context.Context, now time.Time) ([]models.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Obligation
	for _, ob := range m.obligations {
		if ob.Overdue(now) {
			out = append(out, ob)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
