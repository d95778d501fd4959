package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"escalation-service/internal/events"
	"escalation-service/internal/metrics"
	"escalation-service/internal/models"
)

// ErrInvalidArgument rejects malformed input (empty reason, unknown type)
// before any guard runs.
var ErrInvalidArgument = errors.New("invalid argument")

// ScannerActor is the actor id recorded on scanner-driven transitions.
const ScannerActor = "system:scanner"

// Engine owns every escalation mutation. Each operation reads the record,
// checks its guard, commits the new state together with exactly one audit
// entry under the record's optimistic version, and only then adjusts the
// workload registry and emits the outbound event. A failed guard or a lost
// version race leaves record, registry and audit untouched.
type Engine struct {
	repo     EscalationRepository
	registry *Registry
	sink     events.Sink
	logger   *logrus.Logger

	// Now is the clock; swapped in tests.
	Now func() time.Time
}

// New constructs the engine.
func New(repo EscalationRepository, registry *Registry, sink events.Sink, logger *logrus.Logger) *Engine {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Engine{
		repo:     repo,
		registry: registry,
		sink:     sink,
		logger:   logger,
		Now:      time.Now,
	}
}

// CreateRequest carries everything needed to open an escalation.
type CreateRequest struct {
	ServiceRequestID string
	ClientID         string
	Type             models.EscalationType
	Reason           string
	Actor            string
	// Priority, when set, is an explicit manual override; otherwise the
	// classifier derives it.
	Priority         models.Priority
	OriginalDueDate  *time.Time
	CurrentDueDate   *time.Time
	SLABreachMinutes *int64
}

// Create opens a new escalation in pending state, unassigned.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (models.Escalation, error) {
	if req.Reason == "" {
		return models.Escalation{}, fmt.Errorf("reason is required: %w", ErrInvalidArgument)
	}
	if !req.Type.Valid() {
		return models.Escalation{}, fmt.Errorf("unknown escalation type %q: %w", req.Type, ErrInvalidArgument)
	}
	if req.SLABreachMinutes != nil && *req.SLABreachMinutes < 0 {
		return models.Escalation{}, fmt.Errorf("negative breach minutes: %w", ErrInvalidArgument)
	}

	now := e.Now()
	esc := models.Escalation{
		ID:               uuid.New().String(),
		ServiceRequestID: req.ServiceRequestID,
		ClientID:         req.ClientID,
		Type:             req.Type,
		Level:            1,
		Status:           models.StatusPending,
		Reason:           req.Reason,
		SLABreachMinutes: req.SLABreachMinutes,
		OriginalDueDate:  req.OriginalDueDate,
		CurrentDueDate:   req.CurrentDueDate,
		EscalatedAt:      now,
		Version:          1,
	}
	if req.Priority != "" {
		if !req.Priority.Valid() {
			return models.Escalation{}, fmt.Errorf("unknown priority %q: %w", req.Priority, ErrInvalidArgument)
		}
		esc.Priority = req.Priority
	} else {
		esc.Priority = Classify(esc.Type, esc.SLABreachMinutes, esc.Level, esc.CurrentDueDate, now)
	}

	entry := e.entryFor(esc, models.ActionCreated, req.Actor, req.Reason, models.StatusPending)
	if err := e.repo.Create(ctx, esc, entry); err != nil {
		return models.Escalation{}, fmt.Errorf("create escalation: %w", err)
	}

	metrics.EscalationsCreated.WithLabelValues(string(esc.Type)).Inc()
	metrics.TransitionsApplied.WithLabelValues(string(models.ActionCreated)).Inc()
	e.sink.Publish(events.Event{Name: events.NameFor(models.ActionCreated), Escalation: esc, Audit: entry})
	e.logger.Infof("Escalation %s created (type=%s priority=%s)", esc.ID, esc.Type, esc.Priority)
	return esc, nil
}

// Acknowledge moves a pending escalation to acknowledged. If unassigned it
// routes to the least-loaded available member and reserves that member's
// capacity atomically with the status write; when every member is full the
// escalation stays pending and ErrNoCapacity is surfaced as an operational
// signal.
func (e *Engine) Acknowledge(ctx context.Context, id, actor, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status != models.StatusPending {
		return models.Escalation{}, fmt.Errorf("acknowledge from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	now := e.Now()

	var reserved string
	if esc.AssignedTo == "" {
		assignee, res, err := e.routeAndReserve(esc.AssignedTo)
		if err != nil {
			return models.Escalation{}, err
		}
		esc.AssignedTo = assignee
		reserved = res.MemberID
	}

	esc.Status = models.StatusAcknowledged
	esc.AcknowledgedAt = &now
	out, err := e.commit(ctx, esc, models.ActionAcknowledged, actor, notes, prev)
	if err != nil {
		if reserved != "" {
			e.registry.Release(reserved)
		}
		return models.Escalation{}, err
	}
	return out, nil
}

// StartProgress moves an acknowledged escalation to in_progress. Calling it
// on an escalation already in progress is a no-op, not a transition, so no
// audit entry is written.
func (e *Engine) StartProgress(ctx context.Context, id, actor, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status == models.StatusInProgress {
		return esc, nil
	}
	if esc.Status != models.StatusAcknowledged {
		return models.Escalation{}, fmt.Errorf("start progress from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	esc.Status = models.StatusInProgress
	return e.commit(ctx, esc, models.ActionStarted, actor, notes, prev)
}

// Reassign hands an acknowledged or in-progress escalation to a specific
// member. The target's capacity is reserved before the status write and the
// previous holder is released only after the commit succeeds, so a lost
// version race or a full target leaves both workloads untouched. Taking over
// acknowledged work implies the new owner is acting on it, so the record
// moves to in_progress.
func (e *Engine) Reassign(ctx context.Context, id, actor, target, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status != models.StatusAcknowledged && esc.Status != models.StatusInProgress {
		return models.Escalation{}, fmt.Errorf("reassign from %s: %w", esc.Status, ErrInvalidTransition)
	}
	if target == "" || target == esc.AssignedTo {
		return models.Escalation{}, fmt.Errorf("reassign target %q: %w", target, ErrInvalidArgument)
	}

	res, err := e.registry.Reserve(target)
	if err != nil {
		return models.Escalation{}, err
	}

	prev := esc.Status
	previousHolder := esc.AssignedTo
	esc.AssignedTo = target
	esc.Status = models.StatusInProgress
	out, err := e.commit(ctx, esc, models.ActionReassigned, actor, notes, prev)
	if err != nil {
		e.registry.Release(res.MemberID)
		return models.Escalation{}, err
	}
	if previousHolder != "" {
		e.registry.Release(previousHolder)
	}
	return out, nil
}

// Resolve completes an acknowledged or in-progress escalation. The assignee
// leaves the active pool once the commit succeeds.
func (e *Engine) Resolve(ctx context.Context, id, actor, resolution, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if resolution == "" {
		return models.Escalation{}, fmt.Errorf("resolve %s: %w", id, ErrMissingResolution)
	}
	if esc.Status != models.StatusAcknowledged && esc.Status != models.StatusInProgress {
		return models.Escalation{}, fmt.Errorf("resolve from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	now := e.Now()
	esc.Status = models.StatusResolved
	esc.Resolution = resolution
	esc.ResolvedAt = &now
	out, err := e.commit(ctx, esc, models.ActionResolved, actor, notes, prev)
	if err != nil {
		return models.Escalation{}, err
	}
	if out.AssignedTo != "" {
		e.registry.Release(out.AssignedTo)
	}
	return out, nil
}

// Close makes a resolved escalation terminal.
func (e *Engine) Close(ctx context.Context, id, actor, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status != models.StatusResolved {
		return models.Escalation{}, fmt.Errorf("close from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	esc.Status = models.StatusClosed
	return e.commit(ctx, esc, models.ActionClosed, actor, notes, prev)
}

// EscalateFurther bumps the escalation level on any non-terminal record and
// re-runs the classifier. Priority only ever moves up here; downgrades go
// through OverridePriority.
func (e *Engine) EscalateFurther(ctx context.Context, id, actor, notes string) (models.Escalation, error) {
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status.Terminal() {
		return models.Escalation{}, fmt.Errorf("escalate from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	esc.Level++
	esc.Priority = Reclassify(esc, e.Now())
	return e.commit(ctx, esc, models.ActionEscalated, actor, notes, prev)
}

// OverridePriority lets a human set any priority, including a downgrade. The
// override is its own audit action so it is never mistaken for classifier
// output.
func (e *Engine) OverridePriority(ctx context.Context, id, actor string, p models.Priority, notes string) (models.Escalation, error) {
	if !p.Valid() {
		return models.Escalation{}, fmt.Errorf("unknown priority %q: %w", p, ErrInvalidArgument)
	}
	esc, err := e.repo.Get(ctx, id)
	if err != nil {
		return models.Escalation{}, err
	}
	if esc.Status.Terminal() {
		return models.Escalation{}, fmt.Errorf("override priority from %s: %w", esc.Status, ErrInvalidTransition)
	}

	prev := esc.Status
	esc.Priority = p
	return e.commit(ctx, esc, models.ActionPriorityOverride, actor, notes, prev)
}

// RecordBreach is the scanner entry point for one overdue obligation. The
// first sighting opens an sla_breach escalation; later sightings update the
// breach minutes on the existing open record and re-classify upward, so
// re-scanning never duplicates.
func (e *Engine) RecordBreach(ctx context.Context, ob models.Obligation) (models.Escalation, error) {
	now := e.Now()
	minutes := ob.BreachMinutes(now)

	existing, err := e.repo.FindOpenBreach(ctx, ob.ID)
	switch {
	case err == nil:
		prev := existing.Status
		existing.SLABreachMinutes = &minutes
		existing.Priority = Reclassify(existing, now)
		return e.commit(ctx, existing, models.ActionBreachUpdated, ScannerActor,
			fmt.Sprintf("breach now %d minutes", minutes), prev)
	case errors.Is(err, ErrNotFound):
		metrics.BreachesDetected.Inc()
		return e.Create(ctx, CreateRequest{
			ServiceRequestID: ob.ID,
			ClientID:         ob.ClientID,
			Type:             models.TypeSLABreach,
			Reason:           fmt.Sprintf("SLA breached by %d minutes", minutes),
			Actor:            ScannerActor,
			OriginalDueDate:  &ob.OriginalDue,
			CurrentDueDate:   &ob.CurrentDue,
			SLABreachMinutes: &minutes,
		})
	default:
		return models.Escalation{}, err
	}
}

// Get returns one escalation.
func (e *Engine) Get(ctx context.Context, id string) (models.Escalation, error) {
	return e.repo.Get(ctx, id)
}

// List returns escalations matching the filter.
func (e *Engine) List(ctx context.Context, f Filter) ([]models.Escalation, error) {
	return e.repo.List(ctx, f)
}

// AuditTrail returns the ordered history of one escalation.
func (e *Engine) AuditTrail(ctx context.Context, id string) ([]models.AuditEntry, error) {
	if _, err := e.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return e.repo.AuditTrail(ctx, id)
}

// TeamSnapshot returns the current workload view of every member.
func (e *Engine) TeamSnapshot() []models.TeamMember {
	return e.registry.Snapshot()
}

// routeAndReserve picks a member off a registry snapshot and reserves them.
// The snapshot may be stale by commit time, so a full member is excluded and
// selection retried until someone is reserved or candidates run out.
func (e *Engine) routeAndReserve(exclude string) (string, Reservation, error) {
	excluded := []string{}
	if exclude != "" {
		excluded = append(excluded, exclude)
	}
	for {
		assignee, err := Route(e.registry.Snapshot(), excluded...)
		if err != nil {
			metrics.RoutingExhausted.Inc()
			e.logger.Warnf("No routing capacity (excluded %d members)", len(excluded))
			return "", Reservation{}, err
		}
		res, err := e.registry.Reserve(assignee)
		if err == nil {
			return assignee, res, nil
		}
		excluded = append(excluded, assignee)
	}
}

// commit writes the mutated record plus its single audit entry under the
// record's previous version, then emits metrics and the outbound event.
func (e *Engine) commit(ctx context.Context, esc models.Escalation, action models.AuditAction, actor, notes string, prev models.Status) (models.Escalation, error) {
	entry := e.entryFor(esc, action, actor, notes, prev)
	expected := esc.Version
	esc.Version++
	if err := e.repo.Update(ctx, esc, expected, entry); err != nil {
		if errors.Is(err, ErrStaleVersion) {
			metrics.StaleConflicts.Inc()
		}
		return models.Escalation{}, err
	}

	metrics.TransitionsApplied.WithLabelValues(string(action)).Inc()
	e.sink.Publish(events.Event{Name: events.NameFor(action), Escalation: esc, Audit: entry})
	e.logger.Infof("Escalation %s %s by %s (%s -> %s)", esc.ID, action, actor, prev, esc.Status)
	return esc, nil
}

func (e *Engine) entryFor(esc models.Escalation, action models.AuditAction, actor, notes string, prev models.Status) models.AuditEntry {
	return models.AuditEntry{
		ID:           uuid.New().String(),
		EscalationID: esc.ID,
		ActorID:      actor,
		Action:       action,
		Notes:        notes,
		PrevStatus:   prev,
		NewStatus:    esc.Status,
		CreatedAt:    e.Now(),
	}
}
