package timetable

import (
	"slices"
	"sort"
	"time"

	"github.com/samber/mo"
)

// SemesterCalendar is the read-only institutional context of one semester.
type SemesterCalendar struct {
	Number int
	// FirstDay is the Monday of week 1, at midnight in Location.
	FirstDay time.Time
	Location *time.Location
	Holidays HolidayCalendar
}

// NewSemesterCalendar anchors a semester at the given first day of school.
func NewSemesterCalendar(number, year int, month time.Month, day int, loc *time.Location, holidays HolidayCalendar) SemesterCalendar {
	return SemesterCalendar{
		Number:   number,
		FirstDay: time.Date(year, month, day, 0, 0, 0, 0, loc),
		Location: loc,
		Holidays: holidays,
	}
}

// eventForNumericWeeks builds a weekly rule from a set of academic weeks.
// The rule starts on the first week of the set. When the weeks are evenly
// spaced it stops after the last one; otherwise it runs to the end of the
// semester and relies on exclusions.
func eventForNumericWeeks(lesson Lesson, weeks NumericWeeks, sem SemesterCalendar) CalendarEvent {
	lessonDay := sem.FirstDay.AddDate(0, 0, dayIndex(lesson.Day))
	weekOneStart, weekOneEnd := lessonTimes(lessonDay, lesson.StartTime, lesson.EndTime, sem.Location)

	c := classify(weeks)
	first := weeks[0]

	count := len(weeks)
	if !c.dense(len(weeks)) {
		count = remainingSlots(first, c.interval)
	}

	var excluded []time.Time
	for _, w := range AllWeeks() {
		if !weeks.contains(w) {
			excluded = append(excluded, WeekDate(weekOneStart, w))
		}
	}
	excluded = append(excluded, sem.Holidays.Holidays(lesson.StartTime.Offset())...)

	return CalendarEvent{
		Start: WeekDate(weekOneStart, first),
		End:   WeekDate(weekOneEnd, first),
		Recurrence: mo.Some(RecurrenceRule{
			Interval: c.interval,
			Count:    mo.Some(count),
			ByDay:    []time.Weekday{lesson.Day},
			Exclude:  uniqueSorted(excluded),
		}),
	}
}

// remainingSlots counts rule occurrences from week up to the last week of
// the semester, recess included. It is SemesterLength for a weekly rule
// starting in week 1.
func remainingSlots(week AcademicWeek, interval int) int {
	return (SemesterLength-1-week.Slot())/interval + 1
}

// eventForWeekRange builds a weekly rule bounded by explicit dates.
func eventForWeekRange(lesson Lesson, rng WeekRange, sem SemesterCalendar) CalendarEvent {
	start, end := lessonTimes(rng.Start, lesson.StartTime, lesson.EndTime, sem.Location)
	lastStart, lastEnd := lessonTimes(rng.End, lesson.StartTime, lesson.EndTime, sem.Location)
	interval := rng.WeekInterval.OrElse(1)
	if interval < 1 {
		interval = 1
	}

	var excluded []time.Time
	if subset, ok := rng.Weeks.Get(); ok {
		for current, n := start, 1; !current.After(lastStart); current, n = current.AddDate(0, 0, 7*interval), n+interval {
			if !slices.Contains(subset, n) {
				excluded = append(excluded, current)
			}
		}
	}
	excluded = append(excluded, sem.Holidays.Holidays(lesson.StartTime.Offset())...)

	return CalendarEvent{
		Start: start,
		End:   end,
		Recurrence: mo.Some(RecurrenceRule{
			Interval: interval,
			Until:    mo.Some(lastEnd),
			ByDay:    []time.Weekday{lesson.Day},
			Exclude:  uniqueSorted(excluded),
		}),
	}
}

func uniqueSorted(times []time.Time) []time.Time {
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	out := times[:0]
	for _, t := range times {
		if len(out) > 0 && out[len(out)-1].Equal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
