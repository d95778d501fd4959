package engine

import "escalation-service/internal/models"

// Route selects the member an escalation should go to: among available
// members, the lowest load-to-capacity fraction wins, ties broken by lower
// absolute load, then by id so repeated calls over the same snapshot are
// deterministic. Members in exclude (e.g. the current holder on reassign)
// are skipped. Returns ErrNoCapacity when nobody can take the work; the
// caller must leave the escalation pending rather than force-assign.
func Route(snapshot []models.TeamMember, exclude ...string) (string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	var best *models.TeamMember
	for i := range snapshot {
		m := &snapshot[i]
		if skip[m.ID] || !m.Available() {
			continue
		}
		if best == nil || better(m, best) {
			best = m
		}
	}
	if best == nil {
		return "", ErrNoCapacity
	}
	return best.ID, nil
}

func better(a, b *models.TeamMember) bool {
	af, bf := a.LoadFraction(), b.LoadFraction()
	if af != bf {
		return af < bf
	}
	if a.ActiveWorkload != b.ActiveWorkload {
		return a.ActiveWorkload < b.ActiveWorkload
	}
	return a.ID < b.ID
}
