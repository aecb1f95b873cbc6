package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

func newEventUID() string {
	return uuid.NewString()
}

// MemoryStore keeps events in process memory. It backs tests and offline
// runs where no CalDAV server is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	names []string
	data  map[string]map[string]Event
}

// NewMemoryStore returns a store with the given calendars; with no names it
// holds a single calendar called "default".
func NewMemoryStore(names ...string) *MemoryStore {
	if len(names) == 0 {
		names = []string{"default"}
	}
	data := make(map[string]map[string]Event, len(names))
	for _, name := range names {
		data[name] = make(map[string]Event)
	}
	return &MemoryStore{names: names, data: data}
}

func (s *MemoryStore) resolve(name string) (map[string]Event, error) {
	if name == "" {
		name = s.names[0]
	}
	events, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	return events, nil
}

// Calendars implements Store.
func (s *MemoryStore) Calendars(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, calendarName string, ev Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.resolve(calendarName)
	if err != nil {
		return "", err
	}

	ev.ID = newEventUID()
	events[ev.ID] = ev
	return ev.ID, nil
}

// Events implements Store.
func (s *MemoryStore) Events(_ context.Context, calendarName string, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.resolve(calendarName)
	if err != nil {
		return nil, err
	}

	matched := make([]Event, 0)
	for _, ev := range events {
		if overlaps(ev, start, end) {
			matched = append(matched, ev)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Start.Before(matched[j].Start) })
	return matched, nil
}

func overlaps(ev Event, start, end time.Time) bool {
	evEnd := ev.End
	if evEnd.IsZero() {
		evEnd = ev.Start
	}
	return ev.Start.Before(end) && !evEnd.Before(start)
}

// Search implements Store.
func (s *MemoryStore) Search(_ context.Context, calendarName, query string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.resolve(calendarName)
	if err != nil {
		return nil, err
	}

	all := make([]Event, 0, len(events))
	for _, ev := range events {
		all = append(all, ev)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return filterEvents(all, query), nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, calendarName, id string, patch EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.resolve(calendarName)
	if err != nil {
		return err
	}

	ev, ok := events[id]
	if !ok {
		return ErrNotFound
	}
	patch.apply(&ev)
	events[id] = ev
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, calendarName, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.resolve(calendarName)
	if err != nil {
		return err
	}

	if _, ok := events[id]; !ok {
		return ErrNotFound
	}
	delete(events, id)
	return nil
}
