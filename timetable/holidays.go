package timetable

import (
	"sort"
	"time"
)

// HolidayCalendar is the institution-wide list of non-teaching days.
type HolidayCalendar struct {
	dates []time.Time
}

// NewHolidayCalendar stores each holiday as local midnight in loc. The
// instants may come from any zone; their calendar date in loc is kept.
func NewHolidayCalendar(loc *time.Location, holidays ...time.Time) HolidayCalendar {
	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		local := h.In(loc)
		dates = append(dates, time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return HolidayCalendar{dates: dates}
}

// Holidays returns every holiday shifted forward by offset, so that it lines
// up with a lesson starting offset after midnight.
func (h HolidayCalendar) Holidays(offset time.Duration) []time.Time {
	shifted := make([]time.Time, len(h.dates))
	for i, d := range h.dates {
		shifted[i] = d.Add(offset)
	}
	return shifted
}

func (h HolidayCalendar) Len() int { return len(h.dates) }
