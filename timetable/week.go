package timetable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// NumTeachingWeeks is the number of numbered teaching weeks in a semester.
	NumTeachingWeeks = 13
	// SemesterLength counts every calendar week of a semester, recess included.
	SemesterLength = NumTeachingWeeks + 1
	// recessSlot is the calendar slot (0-based, from week 1) taken by recess week.
	recessSlot = 6
)

// AcademicWeek is either recess week or a teaching week numbered 1..13.
type AcademicWeek struct {
	recess bool
	number int
}

// Recess is the non-teaching week between week 6 and week 7.
var Recess = AcademicWeek{recess: true}

// Week returns teaching week n.
func Week(n int) AcademicWeek {
	return AcademicWeek{number: n}
}

// AllWeeks returns every academic week in calendar order.
func AllWeeks() []AcademicWeek {
	weeks := make([]AcademicWeek, 0, SemesterLength)
	for n := 1; n <= NumTeachingWeeks; n++ {
		if n == recessSlot+1 {
			weeks = append(weeks, Recess)
		}
		weeks = append(weeks, Week(n))
	}
	return weeks
}

func (w AcademicWeek) IsRecess() bool { return w.recess }

// Number returns the teaching week number, or 0 for recess week.
func (w AcademicWeek) Number() int { return w.number }

// Slot is the number of calendar weeks between week 1 and w.
func (w AcademicWeek) Slot() int {
	switch {
	case w.recess:
		return recessSlot
	case w.number <= recessSlot:
		return w.number - 1
	default:
		return w.number
	}
}

func (w AcademicWeek) isOdd() bool  { return !w.recess && w.number%2 == 1 }
func (w AcademicWeek) isEven() bool { return !w.recess && w.number%2 == 0 }

// beforeRecess reports whether w is a teaching week in the first half.
func (w AcademicWeek) beforeRecess() bool { return !w.recess && w.number <= recessSlot }

// afterRecess reports whether w is a teaching week in the second half.
func (w AcademicWeek) afterRecess() bool { return !w.recess && w.number > recessSlot }

func (w AcademicWeek) String() string {
	if w.recess {
		return "Recess"
	}
	return strconv.Itoa(w.number)
}

func (w AcademicWeek) MarshalJSON() ([]byte, error) {
	if w.recess {
		return []byte(`"recess"`), nil
	}
	return []byte(strconv.Itoa(w.number)), nil
}

func (w *AcademicWeek) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(s, "recess") {
			*w = Recess
			return nil
		}
		return fmt.Errorf("invalid academic week %q", s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid academic week %s: %w", data, err)
	}
	if n < 1 || n > NumTeachingWeeks {
		return fmt.Errorf("academic week %d out of range 1..%d", n, NumTeachingWeeks)
	}
	*w = Week(n)
	return nil
}

// WeekDate maps an academic week onto the calendar, given the date (or
// instant) of the same weekday in week 1. Weeks after recess are pushed back
// one calendar week.
func WeekDate(start time.Time, week AcademicWeek) time.Time {
	return start.AddDate(0, 0, 7*week.Slot())
}

// NumericWeeks is an ascending set of distinct academic weeks.
type NumericWeeks []AcademicWeek

// NewNumericWeeks sorts weeks into calendar order and drops duplicates.
func NewNumericWeeks(weeks ...AcademicWeek) NumericWeeks {
	sorted := make(NumericWeeks, len(weeks))
	copy(sorted, weeks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Slot() < sorted[j].Slot() })

	out := sorted[:0]
	for _, w := range sorted {
		if len(out) > 0 && out[len(out)-1] == w {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (NumericWeeks) isWeeks() {}

func (ws NumericWeeks) contains(week AcademicWeek) bool {
	for _, w := range ws {
		if w == week {
			return true
		}
	}
	return false
}
