package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"escalation-service/internal/models"
)

func minutes(n int64) *int64 { return &n }

func TestClassify(t *testing.T) {
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	soon := now.Add(6 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)

	tests := []struct {
		name   string
		typ    models.EscalationType
		breach *int64
		level  int
		due    *time.Time
		want   models.Priority
	}{
		{"repeat complaint is critical", models.TypeClientComplaint, nil, 2, nil, models.PriorityCritical},
		{"first complaint is low", models.TypeClientComplaint, nil, 1, nil, models.PriorityLow},
		{"day-long breach is critical", models.TypeSLABreach, minutes(1440), 1, nil, models.PriorityCritical},
		{"two-day breach is critical", models.TypeSLABreach, minutes(2880), 1, nil, models.PriorityCritical},
		{"any breach is high", models.TypeSLABreach, minutes(1), 1, nil, models.PriorityHigh},
		{"zero-minute breach does not count", models.TypeSLABreach, minutes(0), 1, nil, models.PriorityLow},
		{"blocked and due soon is high", models.TypeDependencyBlocked, nil, 1, &soon, models.PriorityHigh},
		{"blocked but not due soon is medium", models.TypeDependencyBlocked, nil, 1, &nextWeek, models.PriorityMedium},
		{"resource gone without due date is medium", models.TypeResourceUnavailable, nil, 1, nil, models.PriorityMedium},
		{"quality issue is medium", models.TypeQualityIssue, nil, 1, nil, models.PriorityMedium},
		{"manual defaults to low", models.TypeManual, nil, 1, nil, models.PriorityLow},
		{"breach beats category default", models.TypeQualityIssue, minutes(30), 1, nil, models.PriorityHigh},
		{"repeat complaint beats breach tier", models.TypeClientComplaint, minutes(5), 2, nil, models.PriorityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.typ, tt.breach, tt.level, tt.due, now))
		})
	}
}

func TestReclassifyNeverDowngrades(t *testing.T) {
	now := time.Now()
	esc := models.Escalation{
		Type:     models.TypeManual,
		Level:    1,
		Priority: models.PriorityHigh, // manually overridden above the classifier's tier
	}
	require.Equal(t, models.PriorityHigh, Reclassify(esc, now))

	esc.Type = models.TypeClientComplaint
	esc.Level = 2
	require.Equal(t, models.PriorityCritical, Reclassify(esc, now))
}
