package engine

import (
	"fmt"
	"sort"
	"sync"

	"escalation-service/internal/models"
)

// Registry tracks each team member's active assignment count and capacity.
// Reserve and Release are the only workload mutators; both take the registry
// lock so two concurrent reservations against a nearly-full member can never
// both succeed past capacity.
type Registry struct {
	mu      sync.Mutex
	members map[string]*models.TeamMember
}

// Reservation confirms a successful capacity grab for one member. It exists
// so callers hand back exactly what they reserved when a commit fails.
type Reservation struct {
	MemberID string
}

// NewRegistry builds a registry seeded with the given roster.
func NewRegistry(roster []models.TeamMember) *Registry {
	r := &Registry{members: make(map[string]*models.TeamMember, len(roster))}
	for i := range roster {
		m := roster[i]
		r.members[m.ID] = &m
	}
	return r
}

// CurrentLoad returns the member's active assignment count.
func (r *Registry) CurrentLoad(memberID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return 0, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return m.ActiveWorkload, nil
}

// Capacity returns the member's configured maximum.
func (r *Registry) Capacity(memberID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return 0, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return m.MaxCapacity, nil
}

// IsAvailable reports whether the member can take another assignment.
func (r *Registry) IsAvailable(memberID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	return ok && m.Available()
}

// Reserve increments the member's workload if capacity allows. It fails
// closed: at or over capacity nothing is mutated and ErrCapacityExceeded is
// returned, and the caller must not retry against the same member.
func (r *Registry) Reserve(memberID string) (Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return Reservation{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	if m.Unavailable || m.ActiveWorkload >= m.MaxCapacity {
		return Reservation{}, fmt.Errorf("member %s at %d/%d: %w", memberID, m.ActiveWorkload, m.MaxCapacity, ErrCapacityExceeded)
	}
	m.ActiveWorkload++
	return Reservation{MemberID: memberID}, nil
}

// Release decrements the member's workload, typically when an escalation
// resolves, is reassigned away, or a reservation is rolled back after a
// failed commit. Never drops below zero.
func (r *Registry) Release(memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memberID]; ok && m.ActiveWorkload > 0 {
		m.ActiveWorkload--
	}
}

// SetUnavailable flips the manual availability flag. A member marked
// unavailable is never chosen by the router regardless of load.
func (r *Registry) SetUnavailable(memberID string, unavailable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	m.Unavailable = unavailable
	return nil
}

// Snapshot returns a consistent copy of all members sorted by id. Routing
// selects over this copy without holding the lock; the later Reserve
// re-checks capacity at commit time.
func (r *Registry) Snapshot() []models.TeamMember {
	r.mu.Lock()
	out := make([]models.TeamMember, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
