// Package metrics derives the dashboard snapshot from the completion
// event history. Everything here is a pure function of its inputs: the
// snapshot is fully recomputed on every mutation rather than maintained
// incrementally, so it can never drift from the underlying history.
package metrics

import (
	"math"
	"time"

	"estuda/internal/domain"
)

// Aggregate computes a MetricsSnapshot from the full event history.
//
// Hour and average metrics are scoped to an inclusive trailing window of
// windowDays calendar days ending at now's local date. TasksCompleted is
// all-time. Calendar dates are resolved in now's location.
func Aggregate(events []domain.CompletionEvent, now time.Time, windowDays int) domain.MetricsSnapshot {
	var snap domain.MetricsSnapshot

	today := dateOnly(now)
	windowStart := today.AddDate(0, 0, -(windowDays - 1))

	var total float64
	seen := map[time.Time]bool{}
	var days []time.Time

	for _, ev := range events {
		if !ev.Counted {
			continue
		}
		snap.TasksCompleted++

		d := dateOnly(ev.Date.In(now.Location()))
		if d.Before(windowStart) || d.After(today) {
			continue
		}
		total += ev.Hours
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	snap.TotalStudyHours = round2(total)
	if len(days) > 0 {
		snap.AvgStudyHoursPerDay = round2(total / float64(len(days)))
	}
	snap.CurrentStreak = Streak(days)

	return snap
}

// dateOnly strips the clock from t, keeping its calendar date and location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
