package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"escalation-service/internal/engine"
	"escalation-service/internal/models"
)

func seed(t *testing.T, m *Memory, id string, esc models.Escalation) models.Escalation {
	t.Helper()
	esc.ID = id
	if esc.EscalatedAt.IsZero() {
		esc.EscalatedAt = time.Now().UTC()
	}
	entry := models.AuditEntry{EscalationID: id, Action: models.ActionCreated, ActorID: "tester"}
	require.NoError(t, m.Create(context.Background(), esc, entry))
	return esc
}

func TestUpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	esc := seed(t, m, "esc-1", models.Escalation{Status: models.StatusPending})

	first := esc
	first.Status = models.StatusAcknowledged
	first.Version = esc.Version + 1
	entry := models.AuditEntry{EscalationID: esc.ID, Action: models.ActionAcknowledged}
	require.NoError(t, m.Update(ctx, first, esc.Version, entry))

	// A writer holding the original snapshot loses the race.
	second := esc
	second.Status = models.StatusAcknowledged
	second.Version = esc.Version + 1
	err := m.Update(ctx, second, esc.Version, entry)
	require.ErrorIs(t, err, engine.ErrStaleVersion)

	got, err := m.Get(ctx, esc.ID)
	require.NoError(t, err)
	require.Equal(t, first.Version, got.Version)

	trail, err := m.AuditTrail(ctx, esc.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), models.Escalation{ID: "missing"}, 1, models.AuditEntry{})
	require.ErrorIs(t, err, engine.ErrNotFound)

	_, err = m.Get(context.Background(), "missing")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestListFiltersAndOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	seed(t, m, "old", models.Escalation{
		Type:        models.TypeQualityIssue,
		Status:      models.StatusPending,
		EscalatedAt: base,
	})
	seed(t, m, "new", models.Escalation{
		Type:        models.TypeSLABreach,
		Status:      models.StatusPending,
		EscalatedAt: base.Add(time.Hour),
	})
	seed(t, m, "closed", models.Escalation{
		Type:        models.TypeSLABreach,
		Status:      models.StatusClosed,
		EscalatedAt: base.Add(2 * time.Hour),
	})

	all, err := m.List(ctx, engine.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "closed", all[0].ID)
	require.Equal(t, "new", all[1].ID)
	require.Equal(t, "old", all[2].ID)

	got, err := m.List(ctx, engine.Filter{Status: models.StatusPending, Type: models.TypeSLABreach})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new", got[0].ID)
}

func TestFindOpenBreachIgnoresTerminalRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m, "resolved", models.Escalation{
		ServiceRequestID: "sr-1",
		Type:             models.TypeSLABreach,
		Status:           models.StatusResolved,
	})
	_, err := m.FindOpenBreach(ctx, "sr-1")
	require.ErrorIs(t, err, engine.ErrNotFound)

	open := seed(t, m, "open", models.Escalation{
		ServiceRequestID: "sr-1",
		Type:             models.TypeSLABreach,
		Status:           models.StatusPending,
	})
	got, err := m.FindOpenBreach(ctx, "sr-1")
	require.NoError(t, err)
	require.Equal(t, open.ID, got.ID)

	// Complaints for the same request never count as the open breach.
	_, err = m.FindOpenBreach(ctx, "sr-2")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func TestAuditTrailReturnsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m, "esc-1", models.Escalation{Status: models.StatusPending})

	trail, err := m.AuditTrail(ctx, "esc-1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	trail[0].Action = models.ActionClosed

	again, err := m.AuditTrail(ctx, "esc-1")
	require.NoError(t, err)
	require.Equal(t, models.ActionCreated, again[0].Action)
}

func TestListOverdueSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	done := past
	m.PutObligation(models.Obligation{ID: "a", OriginalDue: past, CurrentDue: past})
	m.PutObligation(models.Obligation{ID: "b", OriginalDue: past, CurrentDue: past, CompletedAt: &done})
	m.PutObligation(models.Obligation{ID: "c", OriginalDue: past, CurrentDue: now.Add(time.Hour)})

	overdue, err := m.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "a", overdue[0].ID)
}
