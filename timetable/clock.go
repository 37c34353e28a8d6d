package timetable

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day in the institution's timezone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime accepts "0800" as well as "08:00".
func ParseClockTime(s string) (ClockTime, error) {
	layout := "1504"
	if strings.Contains(s, ":") {
		layout = "15:04"
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("error parsing time of day %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Offset is the time elapsed since midnight.
func (c ClockTime) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// On combines the calendar date of d with c in loc.
func (c ClockTime) On(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
}

// ParseWeekday maps a day name such as "Monday" to a time.Weekday.
func ParseWeekday(day string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", day)
	}
	return wd, nil
}

// dayIndex counts days from Monday, so Sunday is 6.
func dayIndex(day time.Weekday) int {
	return (int(day) + 6) % 7
}

// lessonTimes returns the start and end instants of a lesson on the given date.
func lessonTimes(date time.Time, start, end ClockTime, loc *time.Location) (time.Time, time.Time) {
	return start.On(date, loc), end.On(date, loc)
}
