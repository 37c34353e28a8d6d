// Package export serializes calendar events as an iCalendar file.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"timetable-ics/timetable"
)

const (
	ProductID = "-//timetable-ics//Timetable Export//EN"
	// UTCLayout is the RFC 5545 form of a UTC date-time.
	UTCLayout = "20060102T150405Z"
	uidDomain = "timetable-ics"
)

// UID derives a stable identifier from what the event is and when it
// first starts, so re-exporting a timetable keeps calendar entries in place.
func UID(event timetable.CalendarEvent) string {
	name := strings.Join([]string{
		event.Summary,
		event.Description,
		event.Start.UTC().Format(UTCLayout),
	}, "\n")
	return fmt.Sprintf("%s@%s", uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)), uidDomain)
}

// Calendar builds an iCalendar document with one VEVENT per event.
func Calendar(events []timetable.CalendarEvent) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ics.MethodPublish)

	// DTSTAMP is pinned to the first event so the same timetable always
	// serializes to the same bytes.
	stamp := time.Unix(0, 0).UTC()
	if len(events) > 0 {
		stamp = events[0].Start.UTC()
	}

	for _, event := range events {
		e := cal.AddEvent(UID(event))
		e.SetDtStampTime(stamp)
		e.SetStartAt(event.Start)
		e.SetEndAt(event.End)
		e.SetSummary(event.Summary)
		if event.Description != "" {
			e.SetDescription(event.Description)
		}
		if location, ok := event.Location.Get(); ok {
			e.SetLocation(location)
		}
		if rule, ok := event.Recurrence.Get(); ok {
			e.AddProperty(ics.ComponentPropertyRrule, inUTC(rule, event.Start).String())
			for _, ex := range rule.Exclude {
				e.AddProperty(ics.ComponentPropertyExdate, ex.UTC().Format(UTCLayout))
			}
		}
	}
	return cal
}

// inUTC moves the BYDAY weekdays of rule to the UTC calendar. DTSTART is
// written in UTC and RRULE weekdays are expanded in DTSTART's zone, so a
// lesson whose local date differs from its UTC date needs shifted weekdays.
func inUTC(rule timetable.RecurrenceRule, start time.Time) timetable.RecurrenceRule {
	shift := int(start.UTC().Weekday()) - int(start.Weekday())
	if shift == 0 {
		return rule
	}
	byDay := make([]time.Weekday, len(rule.ByDay))
	for i, day := range rule.ByDay {
		byDay[i] = time.Weekday((int(day) + shift + 7) % 7)
	}
	rule.ByDay = byDay
	return rule
}

// Write serializes events as an iCalendar file to w.
func Write(w io.Writer, events []timetable.CalendarEvent) error {
	if _, err := io.WriteString(w, Calendar(events).Serialize()); err != nil {
		return fmt.Errorf("error writing calendar: %w", err)
	}
	return nil
}
