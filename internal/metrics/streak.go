package metrics

import (
	"sort"
	"time"
)

// Streak returns the number of consecutive calendar days with activity,
// anchored at the most recent date in days. The anchor is the most recent
// activity, not today: a user who studied yesterday and nothing today
// still shows their prior streak. Walking backward stops at the first gap
// wider than one day; earlier runs are never merged across a gap.
//
// days may arrive in any order and need not be distinct.
func Streak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, len(days))
	for i, d := range days {
		sorted[i] = dateOnly(d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	streak := 1
	anchor := sorted[0]
	for _, d := range sorted[1:] {
		if d.Equal(anchor) {
			continue
		}
		if d.Equal(anchor.AddDate(0, 0, -1)) {
			streak++
			anchor = d
			continue
		}
		break
	}
	return streak
}
