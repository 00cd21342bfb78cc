package vacation_test

import (
	"testing"
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// June 2026: the 1st is a Monday, the 6th/7th are the first weekend.

func date(year int, month time.Month, day int) vacation.Date {
	return vacation.NewDate(year, month, day)
}

func TestBusinessDays_WeekdayRange_WeekendsExcluded(t *testing.T) {
	// GIVEN: Monday through Friday (5 calendar days)
	// WHEN: Counting with weekends excluded
	// THEN: All 5 days count

	got := vacation.BusinessDays(date(2026, time.June, 1), date(2026, time.June, 5), true)
	if got != 5 {
		t.Errorf("expected 5 business days, got %d", got)
	}
}

func TestBusinessDays_SpanningWeekend_WeekendsExcluded(t *testing.T) {
	// GIVEN: Monday through the following Monday (8 calendar days)
	// WHEN: Counting with weekends excluded
	// THEN: Saturday and Sunday drop out, leaving 6

	got := vacation.BusinessDays(date(2026, time.June, 1), date(2026, time.June, 8), true)
	if got != 6 {
		t.Errorf("expected 6 business days, got %d", got)
	}
}

func TestBusinessDays_SpanningWeekend_WeekendsIncluded(t *testing.T) {
	// GIVEN: The same 8-day range
	// WHEN: Counting with weekends included
	// THEN: Every calendar day counts

	got := vacation.BusinessDays(date(2026, time.June, 1), date(2026, time.June, 8), false)
	if got != 8 {
		t.Errorf("expected 8 business days, got %d", got)
	}
}

func TestBusinessDays_SingleDay(t *testing.T) {
	cases := []struct {
		name            string
		day             vacation.Date
		excludeWeekends bool
		want            int
	}{
		{"weekday counts", date(2026, time.June, 3), true, 1},
		{"saturday excluded", date(2026, time.June, 6), true, 0},
		{"sunday excluded", date(2026, time.June, 7), true, 0},
		{"saturday included when policy allows", date(2026, time.June, 6), false, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := vacation.BusinessDays(tc.day, tc.day, tc.excludeWeekends)
			if got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBusinessDays_ReversedRange_Zero(t *testing.T) {
	got := vacation.BusinessDays(date(2026, time.June, 5), date(2026, time.June, 1), true)
	if got != 0 {
		t.Errorf("expected 0 for reversed range, got %d", got)
	}
}

func TestBusinessDays_FullWeekend_WeekendsExcluded_Zero(t *testing.T) {
	got := vacation.BusinessDays(date(2026, time.June, 6), date(2026, time.June, 7), true)
	if got != 0 {
		t.Errorf("expected 0 for a weekend-only range, got %d", got)
	}
}

func TestOverlaps_InclusiveBoundaries(t *testing.T) {
	jun10, jun14 := date(2026, time.June, 10), date(2026, time.June, 14)

	cases := []struct {
		name         string
		bStart, bEnd vacation.Date
		want         bool
	}{
		{"full containment", date(2026, time.June, 11), date(2026, time.June, 12), true},
		{"partial overlap", date(2026, time.June, 12), date(2026, time.June, 16), true},
		{"touching end day conflicts", date(2026, time.June, 14), date(2026, time.June, 20), true},
		{"adjacent next day is free", date(2026, time.June, 15), date(2026, time.June, 20), false},
		{"disjoint before", date(2026, time.June, 1), date(2026, time.June, 9), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := vacation.Overlaps(jun10, jun14, tc.bStart, tc.bEnd)
			if got != tc.want {
				t.Errorf("Overlaps(%s-%s, %s-%s) = %v, want %v",
					jun10, jun14, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}
