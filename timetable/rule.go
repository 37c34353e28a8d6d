package timetable

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ROption converts the rule into rrule-go options anchored at dtstart.
func (r RecurrenceRule) ROption(dtstart time.Time) rrule.ROption {
	opt := rrule.ROption{
		Freq:     rrule.WEEKLY,
		Dtstart:  dtstart,
		Interval: r.Interval,
	}
	if count, ok := r.Count.Get(); ok {
		opt.Count = count
	}
	if until, ok := r.Until.Get(); ok {
		opt.Until = until
	}
	for _, day := range r.ByDay {
		opt.Byweekday = append(opt.Byweekday, rruleWeekdays[day])
	}
	return opt
}

// String renders the RRULE value, e.g. "FREQ=WEEKLY;INTERVAL=2;COUNT=3;BYDAY=MO".
func (r RecurrenceRule) String() string {
	opt := r.ROption(time.Time{})
	return opt.RRuleString()
}

// Set builds the recurrence set of the rule, exclusions applied.
func (r RecurrenceRule) Set(dtstart time.Time) (*rrule.Set, error) {
	rule, err := rrule.NewRRule(r.ROption(dtstart))
	if err != nil {
		return nil, fmt.Errorf("error building recurrence rule: %w", err)
	}
	set := &rrule.Set{}
	set.RRule(rule)
	for _, ex := range r.Exclude {
		set.ExDate(ex)
	}
	return set, nil
}

// Occurrences lists the start of every meeting of the event.
func (e CalendarEvent) Occurrences() ([]time.Time, error) {
	rule, ok := e.Recurrence.Get()
	if !ok {
		return []time.Time{e.Start}, nil
	}
	set, err := rule.Set(e.Start)
	if err != nil {
		return nil, err
	}
	return set.All(), nil
}
