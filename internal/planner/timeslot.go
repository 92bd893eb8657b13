package planner

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTaskHours is used when a plan task carries no parseable time slot.
const DefaultTaskHours = 1.0

// clockRe matches a clock time in the forms the generator emits:
// "20:00", "20h00", "20h", "9:30".
var clockRe = regexp.MustCompile(`(\d{1,2})[:h](\d{2})?`)

// HoursFromTimeSlot derives an hour estimate from a "HH:MM-HH:MM" style
// time slot. Slots without a parseable start and end, or with a
// non-positive span, fall back to DefaultTaskHours.
func HoursFromTimeSlot(slot string) float64 {
	start, end, ok := parseTimeSlot(slot)
	if !ok {
		return DefaultTaskHours
	}
	hours := (end - start).Hours()
	if hours <= 0 {
		return DefaultTaskHours
	}
	return hours
}

// SlotStart returns the slot's start clock applied to day, defaulting to
// 20:00 when the slot has no parseable start. Used for calendar links.
func SlotStart(slot string, day time.Time) time.Time {
	hour, min := 20, 0
	if m := clockRe.FindStringSubmatch(slot); m != nil {
		hour, min = clockValues(m)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func parseTimeSlot(slot string) (start, end time.Duration, ok bool) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return 0, 0, false
	}

	matches := clockRe.FindAllStringSubmatch(slot, 2)
	if len(matches) != 2 {
		return 0, 0, false
	}

	sh, sm := clockValues(matches[0])
	eh, em := clockValues(matches[1])
	if sh > 23 || eh > 23 || sm > 59 || em > 59 {
		return 0, 0, false
	}

	start = time.Duration(sh)*time.Hour + time.Duration(sm)*time.Minute
	end = time.Duration(eh)*time.Hour + time.Duration(em)*time.Minute
	return start, end, true
}

func clockValues(m []string) (hour, min int) {
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}
	return hour, min
}
