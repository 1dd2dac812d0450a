package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/taskline/taskline-api/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name    string
		pattern domain.RecurrencePattern
		current time.Time
		want    time.Time
	}{
		{
			name:    "daily adds one day",
			pattern: domain.RecurrenceDaily,
			current: date(2024, time.January, 15),
			want:    date(2024, time.January, 16),
		},
		{
			name:    "daily crosses month boundary",
			pattern: domain.RecurrenceDaily,
			current: date(2024, time.January, 31),
			want:    date(2024, time.February, 1),
		},
		{
			name:    "weekly adds seven days",
			pattern: domain.RecurrenceWeekly,
			current: date(2024, time.January, 1),
			want:    date(2024, time.January, 8),
		},
		{
			name:    "monthly keeps day of month",
			pattern: domain.RecurrenceMonthly,
			current: date(2024, time.March, 15),
			want:    date(2024, time.April, 15),
		},
		{
			name:    "monthly clamps day 31 to 28",
			pattern: domain.RecurrenceMonthly,
			current: date(2024, time.January, 31),
			want:    date(2024, time.February, 28),
		},
		{
			name:    "monthly clamps day 30 to 28",
			pattern: domain.RecurrenceMonthly,
			current: date(2024, time.January, 30),
			want:    date(2024, time.February, 28),
		},
		{
			name:    "monthly day 28 never clamps",
			pattern: domain.RecurrenceMonthly,
			current: date(2024, time.January, 28),
			want:    date(2024, time.February, 28),
		},
		{
			name:    "monthly december wraps to january",
			pattern: domain.RecurrenceMonthly,
			current: date(2024, time.December, 15),
			want:    date(2025, time.January, 15),
		},
		{
			name:    "custom falls back to daily",
			pattern: domain.RecurrenceCustom,
			current: date(2024, time.June, 10),
			want:    date(2024, time.June, 11),
		},
		{
			name:    "unknown pattern falls back to daily",
			pattern: domain.RecurrencePattern("fortnightly"),
			current: date(2024, time.June, 10),
			want:    date(2024, time.June, 11),
		},
		{
			name:    "empty pattern falls back to daily",
			pattern: "",
			current: date(2024, time.June, 10),
			want:    date(2024, time.June, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDueDate(tt.pattern, tt.current)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestNextDueDatePreservesTimeOfDay(t *testing.T) {
	current := time.Date(2024, time.May, 3, 17, 45, 30, 0, time.UTC)
	got := NextDueDate(domain.RecurrenceWeekly, current)

	assert.Equal(t, 17, got.Hour())
	assert.Equal(t, 45, got.Minute())
	assert.Equal(t, 30, got.Second())
}

func TestNextDueDateAlwaysAdvances(t *testing.T) {
	patterns := []domain.RecurrencePattern{
		domain.RecurrenceDaily,
		domain.RecurrenceWeekly,
		domain.RecurrenceMonthly,
		domain.RecurrenceCustom,
		"garbage",
	}

	current := date(2024, time.February, 29)
	for _, pattern := range patterns {
		got := NextDueDate(pattern, current)
		assert.True(t, got.After(current), "pattern %q did not advance: %v", pattern, got)
	}
}
