package models

// TeamMember is a human owner escalations can be routed to. ActiveWorkload
// counts assigned escalations that have not reached a terminal state.
type TeamMember struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role,omitempty"`
	ActiveWorkload int    `json:"active_workload"`
	MaxCapacity    int    `json:"max_capacity"`
	Unavailable    bool   `json:"unavailable"`
}

// Available reports whether the member can accept another assignment.
func (m TeamMember) Available() bool {
	return !m.Unavailable && m.ActiveWorkload < m.MaxCapacity
}

// LoadFraction is the member's workload relative to capacity, used by the
// router to spread assignments.
func (m TeamMember) LoadFraction() float64 {
	if m.MaxCapacity <= 0 {
		return 1
	}
	return float64(m.ActiveWorkload) / float64(m.MaxCapacity)
}
