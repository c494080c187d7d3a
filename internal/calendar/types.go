package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// PrimaryCalendarID addresses the account's primary calendar
const PrimaryCalendarID = "primary"

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	TimeZone    string

	// Reminder overrides; when set, default reminders are disabled
	Reminders []Reminder
}

// Reminder is a single reminder override on an event
type Reminder struct {
	Method  string // "email" or "popup"
	Minutes int64  // minutes before the event start
}

// EventSummary represents a simplified calendar event
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
}

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Status:      event.Status,
	}

	if event.Start != nil {
		summary.Start = parseEventTime(event.Start)
	}
	if event.End != nil {
		summary.End = parseEventTime(event.End)
	}

	return summary
}

func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
