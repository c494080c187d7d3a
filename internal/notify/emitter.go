// Package notify turns pipeline events into durable notifications.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/store"
)

// Emitter writes notification rows for pipeline events. Emission failures
// are logged, never propagated: a missing notification must not fail the
// operation that triggered it.
type Emitter struct {
	store  store.Store
	logger *slog.Logger
}

// NewEmitter creates an Emitter.
func NewEmitter(st store.Store, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{store: st, logger: logger}
}

// SummaryCreated records that a new meeting summary was ingested.
func (e *Emitter) SummaryCreated(ctx context.Context, sum meeting.Summary) {
	e.emit(ctx, meeting.Notification{
		Account: sum.Account,
		Kind:    meeting.NotificationSummary,
		Title:   "New meeting summary generated",
		Message: fmt.Sprintf("'%s' has been processed with %d action items",
			sum.Title, len(sum.Tasks)),
	})
}

// SyncCompleted records the outcome of a task sync run.
func (e *Emitter) SyncCompleted(ctx context.Context, account, title string, result meeting.SyncResult) {
	if result.TasksSynced > 0 {
		e.emit(ctx, meeting.Notification{
			Account: account,
			Kind:    meeting.NotificationTasksSync,
			Title:   "Tasks synced to Google Tasks",
			Message: fmt.Sprintf("%d tasks from '%s' were created in Google Tasks",
				result.TasksSynced, title),
		})
	}
	if result.CalendarEventsCreated > 0 {
		e.emit(ctx, meeting.Notification{
			Account: account,
			Kind:    meeting.NotificationCalendarSync,
			Title:   "Calendar events created",
			Message: fmt.Sprintf("%d deadline events from '%s' were added to your calendar",
				result.CalendarEventsCreated, title),
		})
	}
}

func (e *Emitter) emit(ctx context.Context, n meeting.Notification) {
	if err := e.store.CreateNotification(ctx, n); err != nil {
		e.logger.Error("failed to write notification",
			logging.Account(n.Account),
			slog.String("kind", n.Kind),
			logging.Err(err))
	}
}
