package vacation

// BusinessDays counts the days in the inclusive range [start, end] that count
// against a balance. With excludeWeekends set, Saturdays and Sundays are
// skipped; otherwise every calendar day counts, boundaries included.
//
// The function is pure: it never consults the wall clock, and a given input
// always yields the same count. Callers validate ordering first; a reversed
// range yields 0.
//
// A single weekend day with weekends excluded also yields 0; the lifecycle
// rejects such zero-length requests as invalid.
func BusinessDays(start, end Date, excludeWeekends bool) int {
	if end.Before(start) {
		return 0
	}

	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if excludeWeekends && d.IsWeekend() {
			continue
		}
		count++
	}
	return count
}
