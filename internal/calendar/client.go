package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/meetingmate/internal/google"
)

// Default reminder lead times for task deadline events
const (
	EmailReminderMinutes = 24 * 60 // one day before
	PopupReminderMinutes = 60      // one hour before
)

// Client wraps the Google Calendar service
type Client struct {
	svc     *calendar.Service
	account string // The account this client is associated with
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a new Calendar client with OAuth2 authentication for a specific account
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:     svc,
		account: account,
	}, nil
}

// NewClient creates a new Calendar client for the default account
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// CreateEvent creates a calendar event
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*EventSummary, error) {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
	}

	// For all-day events, use Date instead of DateTime
	if input.AllDay {
		event.Start = &calendar.EventDateTime{
			Date: input.Start.Format("2006-01-02"),
		}
		event.End = &calendar.EventDateTime{
			Date: input.End.Format("2006-01-02"),
		}
	} else {
		if input.TimeZone == "" {
			input.TimeZone = "UTC"
		}
		event.Start = &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		}
	}

	if len(input.Reminders) > 0 {
		overrides := make([]*calendar.EventReminder, len(input.Reminders))
		for i, r := range input.Reminders {
			overrides[i] = &calendar.EventReminder{
				Method:  r.Method,
				Minutes: r.Minutes,
			}
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", google.ClassifyError(err))
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// CreateDeadlineEvent creates an all-day event on the primary calendar for a
// task due date, with email and popup reminders.
func (c *Client) CreateDeadlineEvent(ctx context.Context, title, description string, due time.Time) (*EventSummary, error) {
	return c.CreateEvent(ctx, PrimaryCalendarID, EventInput{
		Summary:     fmt.Sprintf("Task: %s", title),
		Description: description,
		Start:       due,
		End:         due.AddDate(0, 0, 1),
		AllDay:      true,
		Reminders: []Reminder{
			{Method: "email", Minutes: EmailReminderMinutes},
			{Method: "popup", Minutes: PopupReminderMinutes},
		},
	})
}

// GetEvent retrieves a specific event
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", google.ClassifyError(err))
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", google.ClassifyError(err))
	}
	return nil
}
