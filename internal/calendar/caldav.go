package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"calagent/internal/httpclient"
	"calagent/internal/logging"
	"calagent/internal/metrics"
)

// CalDAVStore talks to a CalDAV server (iCloud, Radicale, Nextcloud and the
// like) over basic auth. Calendar discovery runs once on first use and is
// cached for the lifetime of the store.
type CalDAVStore struct {
	client *caldav.Client
	logger logging.Logger

	mu        sync.Mutex
	calendars []caldav.Calendar
}

// NewCalDAVStore builds a store for the given endpoint. Discovery is
// deferred until the first call that needs it, so construction never does
// network I/O.
func NewCalDAVStore(serverURL, username, password string, timeout time.Duration, logger logging.Logger) (*CalDAVStore, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("caldav server URL is required")
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("caldav credentials are required")
	}

	logger = logging.OrNop(logger)
	httpClient := webdav.HTTPClientWithBasicAuth(httpclient.New(timeout, logger), username, password)
	client, err := caldav.NewClient(httpClient, serverURL)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}

	return &CalDAVStore{client: client, logger: logger}, nil
}

// discover resolves the principal's calendar home set and caches the
// calendar list.
func (s *CalDAVStore) discover(ctx context.Context) ([]caldav.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calendars != nil {
		return s.calendars, nil
	}

	principal, err := s.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := s.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find calendar home set: %w", err)
	}
	calendars, err := s.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	if len(calendars) == 0 {
		return nil, fmt.Errorf("no calendars available at %s", homeSet)
	}

	s.logger.Info("caldav: discovered %d calendars", len(calendars))
	for _, cal := range calendars {
		s.logger.Debug("caldav: calendar %q at %s", cal.Name, cal.Path)
	}

	s.calendars = calendars
	return calendars, nil
}

// calendarByName resolves a display name to a calendar. The empty name
// selects the first discovered calendar.
func (s *CalDAVStore) calendarByName(ctx context.Context, name string) (caldav.Calendar, error) {
	calendars, err := s.discover(ctx)
	if err != nil {
		return caldav.Calendar{}, err
	}
	if name == "" {
		return calendars[0], nil
	}
	for _, cal := range calendars {
		if cal.Name == name {
			return cal, nil
		}
	}
	return caldav.Calendar{}, fmt.Errorf("calendar %q not found", name)
}

// Calendars implements Store.
func (s *CalDAVStore) Calendars(ctx context.Context) ([]string, error) {
	calendars, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(calendars))
	for _, cal := range calendars {
		names = append(names, cal.Name)
	}
	return names, nil
}

// Create implements Store. The returned ID is the object's path on the
// server.
func (s *CalDAVStore) Create(ctx context.Context, calendarName string, ev Event) (id string, err error) {
	defer func(start time.Time) { metrics.ObserveStore("create", start, err) }(time.Now())

	cal, err := s.calendarByName(ctx, calendarName)
	if err != nil {
		return "", err
	}

	uid := newEventUID()
	path := cal.Path + uid + ".ics"
	if _, err := s.client.PutCalendarObject(ctx, path, encodeEvent(ev, uid)); err != nil {
		return "", fmt.Errorf("put event: %w", err)
	}

	s.logger.Info("caldav: created event %q at %s", ev.Title, path)
	return path, nil
}

// Events implements Store.
func (s *CalDAVStore) Events(ctx context.Context, calendarName string, start, end time.Time) (events []Event, err error) {
	defer func(t time.Time) { metrics.ObserveStore("events", t, err) }(time.Now())

	cal, err := s.calendarByName(ctx, calendarName)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			Comps:    []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: start,
				End:   end,
			}},
		},
	}

	objects, err := s.client.QueryCalendar(ctx, cal.Path, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	events = decodeObjects(objects)
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

// Search implements Store. The scan window runs from three months back to a
// year ahead so historical clutter stays out of the report.
func (s *CalDAVStore) Search(ctx context.Context, calendarName, query string) ([]Event, error) {
	now := time.Now()
	events, err := s.Events(ctx, calendarName, now.AddDate(0, -3, 0), now.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	return filterEvents(events, query), nil
}

// Update implements Store.
func (s *CalDAVStore) Update(ctx context.Context, calendarName, id string, patch EventPatch) (err error) {
	defer func(start time.Time) { metrics.ObserveStore("update", start, err) }(time.Now())

	if patch.IsEmpty() {
		return nil
	}

	object, err := s.client.GetCalendarObject(ctx, id)
	if err != nil {
		return notFoundOr(err, "get event")
	}

	patched := false
	for _, child := range object.Data.Children {
		if child.Name == ical.CompEvent {
			applyPatch(child, patch)
			patched = true
		}
	}
	if !patched {
		return ErrNotFound
	}

	if _, err := s.client.PutCalendarObject(ctx, id, object.Data); err != nil {
		return fmt.Errorf("put updated event: %w", err)
	}

	s.logger.Info("caldav: updated event %s", id)
	return nil
}

// Delete implements Store.
func (s *CalDAVStore) Delete(ctx context.Context, calendarName, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveStore("delete", start, err) }(time.Now())

	if err := s.client.RemoveAll(ctx, id); err != nil {
		return notFoundOr(err, "delete event")
	}

	s.logger.Info("caldav: deleted event %s", id)
	return nil
}

func decodeObjects(objects []caldav.CalendarObject) []Event {
	events := make([]Event, 0, len(objects))
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, child := range obj.Data.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			ev := decodeEvent(child)
			ev.ID = obj.Path
			events = append(events, ev)
		}
	}
	return events
}

func filterEvents(events []Event, query string) []Event {
	query = strings.ToLower(query)
	matched := make([]Event, 0, len(events))
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), query) ||
			strings.Contains(strings.ToLower(ev.Description), query) {
			matched = append(matched, ev)
		}
	}
	return matched
}

func notFoundOr(err error, op string) error {
	if strings.Contains(err.Error(), "404") {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
