package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(t *testing.T, offset int) time.Time {
	t.Helper()
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, offset)
}

func TestStreak_Empty(t *testing.T) {
	assert.Equal(t, 0, Streak(nil))
}

func TestStreak_SingleDay(t *testing.T) {
	assert.Equal(t, 1, Streak([]time.Time{day(t, 0)}))
}

func TestStreak_ConsecutiveRun(t *testing.T) {
	days := []time.Time{day(t, -2), day(t, -1), day(t, 0)}
	assert.Equal(t, 3, Streak(days))
}

func TestStreak_AnchoredAtMostRecentActivity_NotToday(t *testing.T) {
	// Studied two and three days ago, nothing since. The streak stays 2;
	// it is anchored at the last active date, not at today.
	days := []time.Time{day(t, -3), day(t, -2)}
	assert.Equal(t, 2, Streak(days), "a missed day must not zero the prior streak")
}

func TestStreak_StopsAtFirstGap(t *testing.T) {
	// The isolated earlier day is not merged across the gap.
	days := []time.Time{day(t, -5), day(t, -3), day(t, -2)}
	assert.Equal(t, 2, Streak(days))
}

func TestStreak_LongerHistoricalRunIgnored(t *testing.T) {
	// A four-day run further back never beats the run anchored at the
	// most recent date.
	days := []time.Time{
		day(t, -9), day(t, -8), day(t, -7), day(t, -6),
		day(t, -1), day(t, 0),
	}
	assert.Equal(t, 2, Streak(days))
}

func TestStreak_UnorderedAndDuplicateInput(t *testing.T) {
	days := []time.Time{day(t, 0), day(t, -2), day(t, -1), day(t, 0)}
	assert.Equal(t, 3, Streak(days))
}

func TestStreak_IgnoresClockTime(t *testing.T) {
	late := day(t, -1).Add(23 * time.Hour)
	early := day(t, 0).Add(1 * time.Minute)
	assert.Equal(t, 2, Streak([]time.Time{late, early}))
}
