package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/meetingmate/internal/meeting"
)

// notificationRow mirrors the notifications table.
type notificationRow struct {
	ID        string    `db:"id"`
	Account   string    `db:"account"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	SummaryID string    `db:"summary_id"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateNotification appends a notification. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n meeting.Notification) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("notification title must not be empty")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, account, kind, title, message, summary_id, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Account, n.Kind, n.Title, n.Message, n.SummaryID, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListNotifications returns an account's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, account string, limit int) ([]meeting.Notification, error) {
	query := "SELECT * FROM notifications WHERE account = ? ORDER BY created_at DESC"
	args := []any{account}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	notifications := make([]meeting.Notification, len(rows))
	for i, r := range rows {
		notifications[i] = meeting.Notification{
			ID:        r.ID,
			Account:   r.Account,
			Kind:      r.Kind,
			Title:     r.Title,
			Message:   r.Message,
			SummaryID: r.SummaryID,
			Read:      r.Read,
			CreatedAt: r.CreatedAt,
		}
	}
	return notifications, nil
}

// MarkNotificationRead acknowledges a notification.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("notification %s: %w", id, meeting.ErrNotFound)
	}
	return nil
}

// UnreadNotificationCount returns the number of unread notifications.
func (s *SQLiteStore) UnreadNotificationCount(ctx context.Context, account string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE account = ? AND read = 0", account)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}
