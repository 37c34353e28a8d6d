package googlecalendar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"timetable-ics/export"
	"timetable-ics/timetable"
)

// Syncer mirrors a list of timetable events into one Google calendar.
type Syncer struct {
	service    *calendar.Service
	calendarID string
	logger     *slog.Logger
}

type Option func(*Syncer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSyncer(service *calendar.Service, calendarID string, opts ...Option) *Syncer {
	s := &Syncer{
		service:    service,
		calendarID: calendarID,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncResult counts the changes made by a sync.
type SyncResult struct {
	Inserted  int
	Updated   int
	Deleted   int
	Unchanged int
}

// Sync makes the calendar hold exactly the given events. Events are matched
// on summary, start and end; matched events are updated in place when their
// other fields differ.
func (s *Syncer) Sync(ctx context.Context, events []timetable.CalendarEvent) (SyncResult, error) {
	var result SyncResult

	existing, err := s.GetAllEvents(ctx)
	if err != nil {
		return result, err
	}
	existingByKey := make(map[string]*calendar.Event)
	for _, event := range existing {
		if event == nil || event.Status == "cancelled" || event.Start == nil || event.End == nil {
			continue
		}
		existingByKey[eventKey(event)] = event
	}

	wanted := make(map[string]*calendar.Event, len(events))
	var order []string
	for _, event := range events {
		gEvent := ToGoogleEvent(event)
		key := eventKey(gEvent)
		if _, dup := wanted[key]; !dup {
			order = append(order, key)
		}
		wanted[key] = gEvent
	}

	for key, event := range existingByKey {
		if _, found := wanted[key]; found {
			continue
		}
		s.logger.Debug("deleting event", "summary", event.Summary, "id", event.Id)
		if err := s.deleteEvent(ctx, event.Id); err != nil {
			return result, err
		}
		result.Deleted++
	}

	for _, key := range order {
		gEvent := wanted[key]
		current, found := existingByKey[key]
		switch {
		case !found:
			s.logger.Debug("inserting event", "summary", gEvent.Summary)
			if _, err := s.service.Events.Insert(s.calendarID, gEvent).Context(ctx).Do(); err != nil {
				return result, fmt.Errorf("error inserting event into Google Calendar: %w", err)
			}
			result.Inserted++
		case changed(current, gEvent):
			s.logger.Debug("updating event", "summary", gEvent.Summary, "id", current.Id)
			if _, err := s.service.Events.Update(s.calendarID, current.Id, gEvent).Context(ctx).Do(); err != nil {
				return result, fmt.Errorf("error updating event in Google Calendar: %w", err)
			}
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	s.logger.Info("synced Google Calendar", "calendar", s.calendarID,
		"inserted", result.Inserted, "updated", result.Updated, "deleted", result.Deleted)
	return result, nil
}

// ClearCalendar deletes every event in the calendar.
func (s *Syncer) ClearCalendar(ctx context.Context) error {
	events, err := s.GetAllEvents(ctx)
	if err != nil {
		return err
	}
	for _, event := range events {
		if event == nil || event.Status == "cancelled" {
			continue
		}
		if err := s.deleteEvent(ctx, event.Id); err != nil {
			return err
		}
	}
	s.logger.Info("cleared Google Calendar", "calendar", s.calendarID, "count", len(events))
	return nil
}

// GetAllEvents lists every event of the calendar, following pagination.
func (s *Syncer) GetAllEvents(ctx context.Context) ([]*calendar.Event, error) {
	var all []*calendar.Event
	pageToken := ""
	for {
		call := s.service.Events.List(s.calendarID).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("error fetching events from Google Calendar: %w", err)
		}
		all = append(all, events.Items...)

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}
	s.logger.Debug("fetched events", "calendar", s.calendarID, "count", len(all))
	return all, nil
}

func (s *Syncer) deleteEvent(ctx context.Context, id string) error {
	err := s.service.Events.Delete(s.calendarID, id).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusGone {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error deleting event from Google Calendar: %w", err)
	}
	return nil
}

// ToGoogleEvent converts an event to its Google Calendar form. Recurrence is
// carried as RRULE and EXDATE lines.
func ToGoogleEvent(event timetable.CalendarEvent) *calendar.Event {
	zone := timeZoneName(event.Start)
	g := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location.OrElse(""),
		Start:       &calendar.EventDateTime{DateTime: event.Start.Format(time.RFC3339), TimeZone: zone},
		End:         &calendar.EventDateTime{DateTime: event.End.Format(time.RFC3339), TimeZone: zone},
	}
	if rule, ok := event.Recurrence.Get(); ok {
		g.Recurrence = append(g.Recurrence, "RRULE:"+rule.String())
		for _, ex := range rule.Exclude {
			g.Recurrence = append(g.Recurrence, "EXDATE:"+ex.UTC().Format(export.UTCLayout))
		}
	}
	return g
}

// timeZoneName names the fixed offset of t as an IANA Etc zone. Etc zones
// invert the sign, so UTC+8 is Etc/GMT-8.
func timeZoneName(t time.Time) string {
	_, offset := t.Zone()
	if offset == 0 || offset%3600 != 0 {
		return "UTC"
	}
	return fmt.Sprintf("Etc/GMT%+d", -offset/3600)
}

func changed(current, wanted *calendar.Event) bool {
	return current.Description != wanted.Description ||
		current.Location != wanted.Location ||
		!slices.Equal(current.Recurrence, wanted.Recurrence)
}

func eventKey(event *calendar.Event) string {
	hash := md5.New()
	hash.Write([]byte(event.Summary + event.Start.DateTime + event.End.DateTime))
	return hex.EncodeToString(hash.Sum(nil))
}
