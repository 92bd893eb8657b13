package planner

import (
	"fmt"
	"net/url"
	"time"

	"estuda/internal/domain"
)

// CalendarLink builds a Google Calendar event-edit URL for a plan task
// scheduled on day. The event starts at the task's time-slot start (20:00
// when absent) and runs one hour.
func CalendarLink(task domain.PlanTask, day time.Time) string {
	start := SlotStart(task.TimeSlot, day)
	end := start.Add(time.Hour)

	const stamp = "20060102T150405Z"
	return fmt.Sprintf(
		"https://calendar.google.com/calendar/u/0/r/eventedit?text=%s&dates=%s/%s&details=%s",
		url.QueryEscape(task.Topic),
		start.UTC().Format(stamp),
		end.UTC().Format(stamp),
		url.QueryEscape(task.Activities),
	)
}
