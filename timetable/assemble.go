package timetable

import (
	"io"
	"log/slog"
	"slices"
	"sort"
)

// Assembler turns a whole timetable into an ordered list of events.
type Assembler struct {
	logger *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger for the assembler
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler that logs nothing by default.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Events builds every lesson and exam event of the timetable. Modules and
// lesson types are visited in sorted order so identical input always yields
// identical output. Hidden modules produce no events.
func (a *Assembler) Events(sem SemesterCalendar, tt Timetable, modules map[string]Module, hidden []string) []CalendarEvent {
	var events []CalendarEvent
	for _, code := range sortedKeys(tt) {
		if slices.Contains(hidden, code) {
			a.logger.Debug("skipping hidden module", "module", code)
			continue
		}

		module, ok := modules[code]
		if !ok {
			module = Module{Code: code}
		}
		if module.Code == "" {
			module.Code = code
		}

		lessonsByType := tt[code]
		for _, lessonType := range sortedKeys(lessonsByType) {
			for _, lesson := range lessonsByType[lessonType] {
				parts := splitOverRecess(lesson)
				if len(parts) > 1 {
					a.logger.Debug("split lesson over recess week",
						"module", code, "lessonType", lessonType, "classNo", lesson.ClassNo)
				}
				for _, part := range parts {
					events = append(events, EventForLesson(part, module, sem))
				}
			}
		}

		if exam, ok := EventForExam(module, sem.Number, sem.Location).Get(); ok {
			events = append(events, exam)
		} else {
			a.logger.Debug("no exam event", "module", code, "semester", sem.Number)
		}
	}
	return events
}

// splitOverRecess breaks a lesson whose weeks fall on both sides of recess
// into a pre-recess and a post-recess lesson, so that each half has a compact
// rule that calendars ignoring exclusions still render correctly. Lessons
// running for more than half the semester are left whole.
func splitOverRecess(lesson Lesson) []Lesson {
	weeks, ok := lesson.Weeks.(NumericWeeks)
	if !ok || !classify(weeks).straddlesRecess || len(weeks) > SemesterLength/2 {
		return []Lesson{lesson}
	}

	idx := sort.Search(len(weeks), func(i int) bool { return weeks[i].Slot() >= recessSlot })
	firstHalf, secondHalf := lesson, lesson
	firstHalf.Weeks = weeks[:idx:idx]
	secondHalf.Weeks = weeks[idx:]
	return []Lesson{firstHalf, secondHalf}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
