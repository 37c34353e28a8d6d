package timetable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/mo"
)

const dateLayout = "2006-01-02"

// maxWeekRangeDays bounds a week range to about a year of meetings.
const maxWeekRangeDays = 366

// Weeks is the week representation carried by a lesson: either
// NumericWeeks or WeekRange.
type Weeks interface {
	isWeeks()
}

// WeekRange describes lessons that cannot be expressed in academic weeks.
// Start and End are calendar dates; only their year, month and day are used.
type WeekRange struct {
	Start        time.Time
	End          time.Time
	WeekInterval mo.Option[int]
	// Weeks holds 1-based occurrence indices within the range.
	Weeks mo.Option[[]int]
}

func (WeekRange) isWeeks() {}

type weekRangeJSON struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	WeekInterval *int   `json:"weekInterval,omitempty"`
	Weeks        []int  `json:"weeks,omitempty"`
}

func (r WeekRange) MarshalJSON() ([]byte, error) {
	raw := weekRangeJSON{
		Start:        r.Start.Format(dateLayout),
		End:          r.End.Format(dateLayout),
		WeekInterval: r.WeekInterval.ToPointer(),
	}
	if weeks, ok := r.Weeks.Get(); ok {
		raw.Weeks = weeks
	}
	return json.Marshal(raw)
}

func (r *WeekRange) UnmarshalJSON(data []byte) error {
	var raw weekRangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(dateLayout, raw.Start)
	if err != nil {
		return fmt.Errorf("error parsing week range start: %w", err)
	}
	end, err := time.Parse(dateLayout, raw.End)
	if err != nil {
		return fmt.Errorf("error parsing week range end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("week range ends %s before it starts %s", raw.End, raw.Start)
	}
	if end.Sub(start) > maxWeekRangeDays*24*time.Hour {
		return fmt.Errorf("week range %s to %s is longer than %d days", raw.Start, raw.End, maxWeekRangeDays)
	}
	*r = WeekRange{
		Start:        start,
		End:          end,
		WeekInterval: mo.PointerToOption(raw.WeekInterval),
	}
	if raw.Weeks != nil {
		r.Weeks = mo.Some(raw.Weeks)
	}
	return nil
}

// Lesson is one recurring class meeting of a module.
type Lesson struct {
	Day        time.Weekday
	StartTime  ClockTime
	EndTime    ClockTime
	Venue      string
	LessonType string
	ClassNo    string
	Weeks      Weeks
}

type lessonJSON struct {
	Day        string          `json:"day"`
	StartTime  ClockTime       `json:"startTime"`
	EndTime    ClockTime       `json:"endTime"`
	Venue      string          `json:"venue"`
	LessonType string          `json:"lessonType"`
	ClassNo    string          `json:"classNo"`
	Weeks      json.RawMessage `json:"weeks"`
}

func (l Lesson) MarshalJSON() ([]byte, error) {
	weeks, err := json.Marshal(l.Weeks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(lessonJSON{
		Day:        l.Day.String(),
		StartTime:  l.StartTime,
		EndTime:    l.EndTime,
		Venue:      l.Venue,
		LessonType: l.LessonType,
		ClassNo:    l.ClassNo,
		Weeks:      weeks,
	})
}

func (l *Lesson) UnmarshalJSON(data []byte) error {
	var raw lessonJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	day, err := ParseWeekday(raw.Day)
	if err != nil {
		return err
	}
	weeks, err := decodeWeeks(raw.Weeks)
	if err != nil {
		return err
	}
	*l = Lesson{
		Day:        day,
		StartTime:  raw.StartTime,
		EndTime:    raw.EndTime,
		Venue:      raw.Venue,
		LessonType: raw.LessonType,
		ClassNo:    raw.ClassNo,
		Weeks:      weeks,
	}
	return nil
}

// decodeWeeks picks the week representation from the JSON shape: an array
// is a set of academic weeks, an object is a date range.
func decodeWeeks(data json.RawMessage) (Weeks, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("lesson has no weeks")
	}
	switch trimmed[0] {
	case '[':
		var weeks []AcademicWeek
		if err := json.Unmarshal(trimmed, &weeks); err != nil {
			return nil, fmt.Errorf("error parsing lesson weeks: %w", err)
		}
		if len(weeks) == 0 {
			return nil, fmt.Errorf("lesson has no weeks")
		}
		return NewNumericWeeks(weeks...), nil
	case '{':
		var r WeekRange
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported weeks value %s", trimmed)
	}
}

// SemesterData holds the per-semester exam details of a module.
type SemesterData struct {
	Semester int    `json:"semester"`
	ExamDate string `json:"examDate,omitempty"`
	// ExamDuration is in minutes.
	ExamDuration int `json:"examDuration,omitempty"`
}

// Module is the metadata of a module needed to describe its events.
type Module struct {
	Code         string         `json:"moduleCode"`
	Title        string         `json:"title"`
	SemesterData []SemesterData `json:"semesterData,omitempty"`
}

func (m Module) semesterData(semester int) (SemesterData, bool) {
	for _, sd := range m.SemesterData {
		if sd.Semester == semester {
			return sd, true
		}
	}
	return SemesterData{}, false
}

// Timetable maps module code to lesson type to the lessons taken.
type Timetable map[string]map[string][]Lesson

// Request is everything needed to build the calendar of one semester.
type Request struct {
	AcademicYear string            `json:"academicYear"`
	Semester     int               `json:"semester"`
	Timetable    Timetable         `json:"timetable"`
	Modules      map[string]Module `json:"modules"`
	Hidden       []string          `json:"hidden,omitempty"`
}

// RecurrenceRule is a weekly repeat pattern. Exactly one of Count and Until
// is set.
type RecurrenceRule struct {
	Interval int
	Count    mo.Option[int]
	Until    mo.Option[time.Time]
	ByDay    []time.Weekday
	Exclude  []time.Time
}

// CalendarEvent is a serializer-agnostic calendar entry.
type CalendarEvent struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    mo.Option[string]
	Recurrence  mo.Option[RecurrenceRule]
}
