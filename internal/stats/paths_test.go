package stats

import (
	"testing"
	"time"
)

func TestPathSetWithoutLabels(t *testing.T) {
	date := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	set := PathSet(date, nil)

	want := []string{
		"all",
		"years/2024",
		"2024/months/2",
		"2024/2/dates/10",
	}
	if len(set) != len(want) {
		t.Fatalf("got %d paths, want %d", len(set), len(want))
	}
	for i, s := range set {
		if s.Path != want[i] {
			t.Fatalf("path %d = %q, want %q", i, s.Path, want[i])
		}
	}
}

func TestPathSetWithLabels(t *testing.T) {
	date := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	set := PathSet(date, []string{"food", "lunch"})

	want := []string{
		"all",
		"labels/food",
		"labels/lunch",
		"years/2024",
		"2024/labels/food",
		"2024/labels/lunch",
		"2024/months/2",
		"2024/2/labels/food",
		"2024/2/labels/lunch",
		"2024/2/dates/10",
		"2024/2/10/labels/food",
		"2024/2/10/labels/lunch",
	}
	if len(set) != len(want) {
		t.Fatalf("got %d paths, want %d", len(set), len(want))
	}
	for i, s := range set {
		if s.Path != want[i] {
			t.Fatalf("path %d = %q, want %q", i, s.Path, want[i])
		}
	}
}

// The rendered month segment is zero-based but the stored month column is the
// calendar month, so reads by (year, month) never need the historical offset.
func TestPathSetMonthColumnIsCalendar(t *testing.T) {
	date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, s := range PathSet(date, []string{"food"}) {
		if s.Month.Valid && s.Month.Int64 != 1 {
			t.Fatalf("path %q stored month %d, want 1", s.Path, s.Month.Int64)
		}
	}

	set := PathSet(date, nil)
	if set[2].Path != "2024/months/0" {
		t.Fatalf("January must render as month 0, got %q", set[2].Path)
	}
}

func TestPathSetDecemberBoundary(t *testing.T) {
	date := time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC)

	set := PathSet(date, nil)
	if set[2].Path != "2023/months/11" {
		t.Fatalf("December must render as month 11, got %q", set[2].Path)
	}
	if set[3].Path != "2023/11/dates/31" {
		t.Fatalf("got %q", set[3].Path)
	}
}

func TestPathSetLevels(t *testing.T) {
	date := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	levels := map[string]string{
		"all":                   LevelAll,
		"years/2024":            LevelYear,
		"2024/months/2":         LevelMonth,
		"2024/2/dates/10":       LevelDate,
		"labels/food":           LevelLabel,
		"2024/labels/food":      LevelLabel,
		"2024/2/labels/food":    LevelLabel,
		"2024/2/10/labels/food": LevelLabel,
	}

	for _, s := range PathSet(date, []string{"food"}) {
		want, ok := levels[s.Path]
		if !ok {
			t.Fatalf("unexpected path %q", s.Path)
		}
		if s.Level != want {
			t.Fatalf("path %q level = %q, want %q", s.Path, s.Level, want)
		}
	}
}
