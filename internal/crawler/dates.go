package crawler

import (
	"time"

	"github.com/hansol-dev/ipowatch/pkg/models"
)

// noDayLimit never filters a calendar cell, days only go up to 31.
const noDayLimit = 32

// Ranges lists how much of each calendar year to scan, from startYear
// through today's year in ascending order. Past years cover all twelve
// months uncapped; the current year stops at today's month and bounds
// that final month by today's day so future listings are not picked up
// early. A startYear past today yields nothing.
func Ranges(startYear int, today time.Time) []models.DateRange {
	var out []models.DateRange
	for year := startYear; year <= today.Year(); year++ {
		r := models.DateRange{Year: year, StartMonth: 1, EndMonth: 12, DayLimit: noDayLimit}
		if year == today.Year() {
			r.EndMonth = int(today.Month())
			r.DayLimit = today.Day()
		}
		out = append(out, r)
	}
	return out
}
