// Package calendar abstracts event storage behind a Store interface with a
// CalDAV-backed implementation and an in-memory one for tests and offline
// runs. Event identifiers are storage paths, so they stay stable across
// listing, update and delete.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an event ID does not resolve to a stored
// event.
var ErrNotFound = errors.New("calendar: event not found")

// Event is one calendar entry. Times are local wall-clock.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// EventPatch carries partial updates. Nil fields are left untouched, so an
// explicit empty string clears a description or location.
type EventPatch struct {
	Title       *string
	Start       *time.Time
	End         *time.Time
	Description *string
	Location    *string
}

func (p EventPatch) apply(ev *Event) {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Start != nil {
		ev.Start = *p.Start
	}
	if p.End != nil {
		ev.End = *p.End
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Start == nil && p.End == nil &&
		p.Description == nil && p.Location == nil
}

// Store is the storage contract the agent dispatches against. calendarName
// selects a calendar by display name; the empty string means the default
// calendar.
type Store interface {
	// Calendars lists the display names of the available calendars.
	Calendars(ctx context.Context) ([]string, error)

	// Create stores a new event and returns its ID.
	Create(ctx context.Context, calendarName string, ev Event) (string, error)

	// Events returns the events overlapping [start, end), ordered by start
	// time.
	Events(ctx context.Context, calendarName string, start, end time.Time) ([]Event, error)

	// Search returns events whose title or description contains query,
	// case-insensitively.
	Search(ctx context.Context, calendarName, query string) ([]Event, error)

	// Update applies patch to the event with the given ID.
	Update(ctx context.Context, calendarName, id string, patch EventPatch) error

	// Delete removes the event with the given ID.
	Delete(ctx context.Context, calendarName, id string) error
}
