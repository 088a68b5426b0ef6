package budget

import (
	"testing"
	"time"

	"pesa/internal/core"
)

func TestNextWindow(t *testing.T) {
	// 2024-06-05 is a Wednesday.
	now := time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name      string
		budget    core.Budget
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "year snaps to calendar year",
			budget:    core.Budget{Duration: core.DurationYear},
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "month snaps to calendar month",
			budget:    core.Budget{Duration: core.DurationMonth},
			wantStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "week starts on Sunday",
			budget:    core.Budget{Duration: core.DurationWeek},
			wantStart: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 8, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "custom span advances whole years",
			budget: core.Budget{
				Duration: core.DurationCustom,
				Start:    time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
				End:      time.Date(2023, 3, 31, 23, 59, 59, 0, time.UTC),
			},
			wantStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name: "custom span already covering now is unchanged",
			budget: core.Budget{
				Duration: core.DurationCustom,
				Start:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				End:      time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC),
			},
			wantStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := NextWindow(tc.budget, now)
			if !start.Equal(tc.wantStart) {
				t.Fatalf("start = %v, want %v", start, tc.wantStart)
			}
			if !end.Equal(tc.wantEnd) {
				t.Fatalf("end = %v, want %v", end, tc.wantEnd)
			}
		})
	}
}

func TestNextWindowMonthOnSunday(t *testing.T) {
	// A Sunday "now" starts its own week.
	now := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	start, end := NextWindow(core.Budget{Duration: core.DurationWeek}, now)
	if !start.Equal(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 6, 8, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}
}

func TestNextWindowFebruary(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	start, end := NextWindow(core.Budget{Duration: core.DurationMonth}, now)
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	// Leap year.
	if !end.Equal(time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}
}
