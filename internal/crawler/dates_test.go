package crawler

import (
	"testing"
	"time"
)

func TestRangesPastYearsUncapped(t *testing.T) {
	today := time.Date(2024, time.March, 22, 10, 0, 0, 0, time.UTC)
	got := Ranges(2022, today)
	if len(got) != 3 {
		t.Fatalf("len(Ranges(2022)) = %d, want 3", len(got))
	}

	for i, year := range []int{2022, 2023} {
		r := got[i]
		if r.Year != year || r.StartMonth != 1 || r.EndMonth != 12 || r.DayLimit != 32 {
			t.Errorf("Ranges()[%d] = %+v, want uncapped full year %d", i, r, year)
		}
	}

	cur := got[2]
	if cur.Year != 2024 || cur.StartMonth != 1 || cur.EndMonth != 3 || cur.DayLimit != 22 {
		t.Errorf("current year range = %+v, want months 1..3 capped at day 22", cur)
	}
}

func TestRangesCurrentYearOnly(t *testing.T) {
	today := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	got := Ranges(2024, today)
	if len(got) != 1 {
		t.Fatalf("len(Ranges(2024)) = %d, want 1", len(got))
	}
	r := got[0]
	if r.StartMonth != 1 || r.EndMonth != 1 || r.DayLimit != 1 {
		t.Errorf("range = %+v, want January 1st only", r)
	}
}

func TestRangesFutureStartYear(t *testing.T) {
	today := time.Date(2024, time.March, 22, 0, 0, 0, 0, time.UTC)
	if got := Ranges(2025, today); len(got) != 0 {
		t.Errorf("Ranges(2025) = %v, want empty", got)
	}
}
