package store

import (
	"context"
	"time"

	"github.com/teemow/meetingmate/internal/meeting"
)

// SummaryFilter controls filtering and pagination for summary queries.
type SummaryFilter struct {
	SourceKind *meeting.SourceKind
	Since      *time.Time
	Limit      int
	Offset     int
}

// SourceState is the per-(account, source) watermark plus Drive push-channel
// bookkeeping. Watermark holds the Drive changes page token or the Gmail
// last-scan time in RFC 3339.
type SourceState struct {
	Account          string
	SourceKind       meeting.SourceKind
	Watermark        string
	ChannelID        string
	ResourceID       string
	ChannelExpiresAt *time.Time
	UpdatedAt        time.Time
}

// Store defines the persistence interface for summaries, their tasks,
// notifications, and source watermarks.
type Store interface {
	// CreateSummary persists a summary and all its tasks in a single
	// transaction. If a summary for the same source artifact already
	// exists it returns meeting.ErrAlreadyProcessed and writes nothing.
	CreateSummary(ctx context.Context, s meeting.Summary) error

	// SummaryExists reports whether a summary with the given id exists.
	SummaryExists(ctx context.Context, id string) (bool, error)

	// GetSummary returns a summary with its tasks in extraction order,
	// or meeting.ErrNotFound.
	GetSummary(ctx context.Context, id string) (*meeting.Summary, error)

	// ListSummaries returns an account's summaries, newest first.
	ListSummaries(ctx context.Context, account string, f SummaryFilter) ([]meeting.Summary, error)

	// UpdateTaskCompletion is the single point of mutation for a task's
	// completed flag from a local edit. It stamps LocalModifiedAt and
	// returns the updated task. Last writer wins under concurrency.
	UpdateTaskCompletion(ctx context.Context, summaryID, taskID string, completed bool) (*meeting.Task, error)

	// MarkTaskSynced records the remote ids returned by a push and stamps
	// LastSyncedAt, establishing the reconcile watermark.
	MarkTaskSynced(ctx context.Context, summaryID, taskID, remoteListID, remoteTaskID, remoteEventID string) error

	// MarkTaskStatusSynced advances LastSyncedAt after a local completion
	// change was mirrored to the remote task, so later remote pulls are not
	// blocked by the local edit that has already been pushed.
	MarkTaskStatusSynced(ctx context.Context, summaryID, taskID string) error

	// ApplyRemoteCompletion overwrites a task's completed flag from remote
	// state, but only when the task has not been edited locally since the
	// last successful sync. Returns whether the update was applied.
	ApplyRemoteCompletion(ctx context.Context, summaryID, taskID string, completed bool) (bool, error)

	// CreateNotification appends a notification.
	CreateNotification(ctx context.Context, n meeting.Notification) error

	// ListNotifications returns an account's notifications, newest first.
	ListNotifications(ctx context.Context, account string, limit int) ([]meeting.Notification, error)

	// MarkNotificationRead acknowledges a notification, or returns
	// meeting.ErrNotFound.
	MarkNotificationRead(ctx context.Context, id string) error

	// UnreadNotificationCount returns the number of unread notifications.
	UnreadNotificationCount(ctx context.Context, account string) (int, error)

	// GetSourceState returns the watermark state for (account, kind).
	// A never-seen source returns a zero-valued state, not an error.
	GetSourceState(ctx context.Context, account string, kind meeting.SourceKind) (*SourceState, error)

	// SaveSourceState upserts the watermark state for (account, kind).
	SaveSourceState(ctx context.Context, st SourceState) error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
