package schedule

import (
	"fmt"
	"time"
)

// DaysPerWeek is the width of the day selector.
const DaysPerWeek = 7

// TimeSlots returns the 24 hourly slot labels "00:00" through "23:00".
func TimeSlots() []string {
	slots := make([]string, 0, 24)
	for hour := 0; hour < 24; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

// SlotEnd returns the label of the hour after slot, capped at 23:59.
func SlotEnd(slot string) string {
	h := Hour(slot)
	if h < 0 || h >= 23 {
		return "23:59"
	}
	return fmt.Sprintf("%02d:00", h+1)
}

// Week is a 7-day window starting at Start (not aligned to a weekday).
type Week struct {
	Start time.Time
}

// WeekFrom returns the window starting on t's calendar day.
func WeekFrom(t time.Time) Week {
	y, m, d := t.Date()
	return Week{Start: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// Days returns the seven days of the window.
func (w Week) Days() []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Next returns the following window.
func (w Week) Next() Week {
	return Week{Start: w.Start.AddDate(0, 0, DaysPerWeek)}
}

// Prev returns the preceding window.
func (w Week) Prev() Week {
	return Week{Start: w.Start.AddDate(0, 0, -DaysPerWeek)}
}

// Contains reports whether t falls on one of the window's days.
func (w Week) Contains(t time.Time) bool {
	key := DateKey(t)
	for _, d := range w.Days() {
		if DateKey(d) == key {
			return true
		}
	}
	return false
}
