// Package stats maintains the hierarchical running totals (all-time, year,
// month, day, and per-label under each) that back the insight screens.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"pesa/internal/storage"
)

// Statistic levels as stored.
const (
	LevelAll   = "all"
	LevelYear  = "year"
	LevelMonth = "month"
	LevelDate  = "date"
	LevelLabel = "label"
)

// PathSet returns every statistic row an expense contributes to, in
// deterministic order: all, years/<Y>, <Y>/months/<M>, <Y>/<M>/dates/<D>,
// each followed by its per-label branch. The rendered month segment is
// zero-based; that is the historical key format and existing data depends on
// it. Queries use the typed year/month/day columns, where month is the
// calendar month (1-12).
func PathSet(date time.Time, labels []string) []storage.Statistic {
	date = date.UTC()
	year := date.Year()
	month := int(date.Month())     // 1-12, stored
	month0 := month - 1            // rendered path segment
	day := date.Day()

	nullYear := sql.NullInt64{Int64: int64(year), Valid: true}
	nullMonth := sql.NullInt64{Int64: int64(month), Valid: true}
	nullDay := sql.NullInt64{Int64: int64(day), Valid: true}

	set := make([]storage.Statistic, 0, 4+4*len(labels))

	set = append(set, storage.Statistic{
		Path:  "all",
		Level: LevelAll,
		Value: "all",
	})
	for _, l := range labels {
		set = append(set, storage.Statistic{
			Path:  fmt.Sprintf("labels/%s", l),
			Level: LevelLabel,
			Label: sql.NullString{String: l, Valid: true},
			Value: l,
		})
	}

	set = append(set, storage.Statistic{
		Path:  fmt.Sprintf("years/%d", year),
		Level: LevelYear,
		Year:  nullYear,
		Value: fmt.Sprintf("%d", year),
	})
	for _, l := range labels {
		set = append(set, storage.Statistic{
			Path:  fmt.Sprintf("%d/labels/%s", year, l),
			Level: LevelLabel,
			Year:  nullYear,
			Label: sql.NullString{String: l, Valid: true},
			Value: l,
		})
	}

	set = append(set, storage.Statistic{
		Path:  fmt.Sprintf("%d/months/%d", year, month0),
		Level: LevelMonth,
		Year:  nullYear,
		Month: nullMonth,
		Value: fmt.Sprintf("%d", month0),
	})
	for _, l := range labels {
		set = append(set, storage.Statistic{
			Path:  fmt.Sprintf("%d/%d/labels/%s", year, month0, l),
			Level: LevelLabel,
			Year:  nullYear,
			Month: nullMonth,
			Label: sql.NullString{String: l, Valid: true},
			Value: l,
		})
	}

	set = append(set, storage.Statistic{
		Path:  fmt.Sprintf("%d/%d/dates/%d", year, month0, day),
		Level: LevelDate,
		Year:  nullYear,
		Month: nullMonth,
		Day:   nullDay,
		Value: fmt.Sprintf("%d", day),
	})
	for _, l := range labels {
		set = append(set, storage.Statistic{
			Path:  fmt.Sprintf("%d/%d/%d/labels/%s", year, month0, day, l),
			Level: LevelLabel,
			Year:  nullYear,
			Month: nullMonth,
			Day:   nullDay,
			Label: sql.NullString{String: l, Valid: true},
			Value: l,
		})
	}

	return set
}
