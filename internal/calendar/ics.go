package calendar

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//calagent//calendar agent//EN"

// encodeEvent wraps ev in a single-VEVENT VCALENDAR ready for a CalDAV PUT.
func encodeEvent(ev Event, uid string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	vevent.Props.SetText(ical.PropSummary, ev.Title)
	vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start)
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.End)
	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		vevent.Props.SetText(ical.PropLocation, ev.Location)
	}

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// decodeEvent reads a VEVENT component into an Event. Missing or
// unparseable properties leave their fields zero.
func decodeEvent(comp *ical.Component) Event {
	var ev Event

	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		ev.Location = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		if t, err := decodeDateTime(prop); err == nil {
			ev.Start = t
		}
	}
	if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		if t, err := decodeDateTime(prop); err == nil {
			ev.End = t
		}
	}

	return ev
}

// applyPatch rewrites the properties of a VEVENT component in place.
func applyPatch(comp *ical.Component, patch EventPatch) {
	if patch.Title != nil {
		comp.Props.SetText(ical.PropSummary, *patch.Title)
	}
	if patch.Start != nil {
		comp.Props.SetDateTime(ical.PropDateTimeStart, *patch.Start)
	}
	if patch.End != nil {
		comp.Props.SetDateTime(ical.PropDateTimeEnd, *patch.End)
	}
	if patch.Description != nil {
		comp.Props.SetText(ical.PropDescription, *patch.Description)
	}
	if patch.Location != nil {
		comp.Props.SetText(ical.PropLocation, *patch.Location)
	}
}

var fallbackDateTimeLayouts = []string{
	"20060102T150405",
	"20060102T150405Z",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// decodeDateTime parses a date-time property, falling back to the raw
// formats that real-world CalDAV servers emit outside the strict RFC shape.
func decodeDateTime(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), nil
	}

	for _, layout := range fallbackDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, prop.Value, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable datetime value %q", prop.Value)
}
