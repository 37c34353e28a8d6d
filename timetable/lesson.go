package timetable

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
)

const defaultExamDuration = 120 * time.Minute

// EventForLesson builds the recurring event of one lesson of a module.
func EventForLesson(lesson Lesson, module Module, sem SemesterCalendar) CalendarEvent {
	var event CalendarEvent
	switch weeks := lesson.Weeks.(type) {
	case NumericWeeks:
		event = eventForNumericWeeks(lesson, weeks, sem)
	case WeekRange:
		event = eventForWeekRange(lesson, weeks, sem)
	default:
		panic(fmt.Sprintf("timetable: unsupported weeks type %T", lesson.Weeks))
	}

	event.Summary = fmt.Sprintf("%s %s", module.Code, lesson.LessonType)
	event.Description = fmt.Sprintf("%s\n%s Group %s", module.Title, lesson.LessonType, lesson.ClassNo)
	if venue := strings.TrimSpace(lesson.Venue); venue != "" {
		event.Location = mo.Some(venue)
	}
	return event
}

// EventForExam returns the exam of a module in the given semester, or None
// when the module has no usable exam date.
func EventForExam(module Module, semester int, loc *time.Location) mo.Option[CalendarEvent] {
	sd, ok := module.semesterData(semester)
	if !ok || sd.ExamDate == "" {
		return mo.None[CalendarEvent]()
	}
	start, err := time.Parse(time.RFC3339, sd.ExamDate)
	if err != nil {
		return mo.None[CalendarEvent]()
	}
	duration := defaultExamDuration
	if sd.ExamDuration > 0 {
		duration = time.Duration(sd.ExamDuration) * time.Minute
	}
	start = start.In(loc)
	return mo.Some(CalendarEvent{
		Start:       start,
		End:         start.Add(duration),
		Summary:     fmt.Sprintf("%s Exam", module.Code),
		Description: module.Title,
	})
}
