package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"timetable-ics/timetable"
)

var sgt = time.FixedZone("SGT", 8*3600)

func sampleEvents() []timetable.CalendarEvent {
	return []timetable.CalendarEvent{
		{
			Start:       time.Date(2024, 8, 12, 8, 0, 0, 0, sgt),
			End:         time.Date(2024, 8, 12, 10, 0, 0, 0, sgt),
			Summary:     "CS1010S Lecture",
			Description: "Programming Methodology\nLecture Group 1",
			Location:    mo.Some("LT27"),
			Recurrence: mo.Some(timetable.RecurrenceRule{
				Interval: 2,
				Count:    mo.Some(3),
				ByDay:    []time.Weekday{time.Monday},
				Exclude: []time.Time{
					time.Date(2024, 8, 19, 8, 0, 0, 0, sgt),
					time.Date(2024, 9, 23, 8, 0, 0, 0, sgt),
				},
			}),
		},
		{
			Start:       time.Date(2024, 11, 25, 9, 0, 0, 0, sgt),
			End:         time.Date(2024, 11, 25, 11, 0, 0, 0, sgt),
			Summary:     "CS1010S Exam",
			Description: "Programming Methodology",
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleEvents()))

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	lecture := events[0]
	assert.Equal(t, "20240812T000000Z", lecture.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240812T020000Z", lecture.GetProperty(ics.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "CS1010S Lecture", lecture.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "LT27", lecture.GetProperty(ics.ComponentPropertyLocation).Value)

	rrule := lecture.GetProperty(ics.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	for _, part := range []string{"FREQ=WEEKLY", "INTERVAL=2", "COUNT=3", "BYDAY=MO"} {
		assert.Contains(t, rrule.Value, part)
	}
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "EXDATE:"))
	assert.Contains(t, out, "EXDATE:20240819T000000Z")
	assert.Contains(t, out, "EXDATE:20240923T000000Z")

	exam := events[1]
	assert.Nil(t, exam.GetProperty(ics.ComponentPropertyRrule))
	assert.Nil(t, exam.GetProperty(ics.ComponentPropertyLocation))
	assert.Equal(t, UID(sampleEvents()[1]), exam.Id())
}

func TestWrite_Deterministic(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, Write(&first, sampleEvents()))
	require.NoError(t, Write(&second, sampleEvents()))
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), "PRODID:"+ProductID)
}

func TestUID(t *testing.T) {
	events := sampleEvents()
	assert.Equal(t, UID(events[0]), UID(events[0]))
	assert.NotEqual(t, UID(events[0]), UID(events[1]))
	assert.True(t, strings.HasSuffix(UID(events[0]), "@timetable-ics"))

	moved := events[0]
	moved.Start = moved.Start.AddDate(0, 0, 7)
	assert.NotEqual(t, UID(events[0]), UID(moved))
}

// expand re-reads the serialized DTSTART, RRULE and EXDATE lines of the
// first event the way a calendar client would.
func expand(t *testing.T, events []timetable.CalendarEvent) []time.Time {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, events))
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.NotEmpty(t, cal.Events())

	var lines []string
	for _, line := range strings.Split(buf.String(), "\r\n") {
		for _, prefix := range []string{"DTSTART:", "RRULE:", "EXDATE:"} {
			if strings.HasPrefix(line, prefix) {
				lines = append(lines, line)
			}
		}
		if line == "END:VEVENT" {
			break
		}
	}
	set, err := rrule.StrToRRuleSet(strings.Join(lines, "\n"))
	require.NoError(t, err)
	return set.All()
}

func TestWrite_RecurrenceKeepsLocalWeekday(t *testing.T) {
	tests := []struct {
		name  string
		loc   *time.Location
		day   int
		hour  int
		byDay time.Weekday
	}{
		{name: "early morning east of UTC", loc: sgt, day: 12, hour: 7, byDay: time.Monday},
		{name: "late evening west of UTC", loc: time.FixedZone("EST", -5*3600), day: 16, hour: 21, byDay: time.Friday},
		{name: "same date in UTC", loc: sgt, day: 12, hour: 9, byDay: time.Monday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Date(2024, 8, tt.day, tt.hour, 0, 0, 0, tt.loc)
			event := timetable.CalendarEvent{
				Start:   start,
				End:     start.Add(time.Hour),
				Summary: "CS1010S Lecture",
				Recurrence: mo.Some(timetable.RecurrenceRule{
					Interval: 1,
					Count:    mo.Some(3),
					ByDay:    []time.Weekday{tt.byDay},
					Exclude:  []time.Time{start.AddDate(0, 0, 7)},
				}),
			}

			want := []time.Time{start, start.AddDate(0, 0, 14)}
			got := expand(t, []timetable.CalendarEvent{event})
			require.Len(t, got, len(want))
			for i := range want {
				assert.True(t, want[i].Equal(got[i]), "occurrence %d: want %s, got %s", i, want[i], got[i])
				assert.Equal(t, tt.byDay, got[i].In(tt.loc).Weekday())
			}
		})
	}
}
