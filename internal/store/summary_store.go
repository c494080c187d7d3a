package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/meetingmate/internal/meeting"
)

// summaryRow mirrors the summaries table.
type summaryRow struct {
	ID               string    `db:"id"`
	Account          string    `db:"account"`
	SourceKind       string    `db:"source_kind"`
	SourceArtifactID string    `db:"source_artifact_id"`
	Title            string    `db:"title"`
	SummaryText      string    `db:"summary_text"`
	CreatedAt        time.Time `db:"created_at"`
}

// taskRow mirrors the tasks table.
type taskRow struct {
	SummaryID       string       `db:"summary_id"`
	ID              string       `db:"id"`
	Ord             int          `db:"ord"`
	Text            string       `db:"text"`
	Assignee        string       `db:"assignee"`
	DueDate         sql.NullTime `db:"due_date"`
	Completed       bool         `db:"completed"`
	RemoteTaskID    string       `db:"remote_task_id"`
	RemoteListID    string       `db:"remote_list_id"`
	RemoteEventID   string       `db:"remote_event_id"`
	LocalModifiedAt time.Time    `db:"local_modified_at"`
	LastSyncedAt    sql.NullTime `db:"last_synced_at"`
}

func (r taskRow) toTask() meeting.Task {
	t := meeting.Task{
		ID:              r.ID,
		SummaryID:       r.SummaryID,
		Ord:             r.Ord,
		Text:            r.Text,
		Assignee:        r.Assignee,
		Completed:       r.Completed,
		RemoteTaskID:    r.RemoteTaskID,
		RemoteListID:    r.RemoteListID,
		RemoteEventID:   r.RemoteEventID,
		LocalModifiedAt: r.LocalModifiedAt,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		t.DueDate = &due
	}
	if r.LastSyncedAt.Valid {
		t.LastSyncedAt = r.LastSyncedAt.Time
	}
	return t
}

// CreateSummary inserts the summary and all its tasks in one transaction.
// The UNIQUE constraint on (source_kind, source_artifact_id) is the
// idempotence guard: a concurrent or repeated ingestion of the same artifact
// observes zero affected rows and gets meeting.ErrAlreadyProcessed.
func (s *SQLiteStore) CreateSummary(ctx context.Context, sum meeting.Summary) error {
	if strings.TrimSpace(sum.ID) == "" {
		return fmt.Errorf("summary id must not be empty")
	}
	if !sum.SourceKind.Valid() {
		return fmt.Errorf("invalid source kind %q", sum.SourceKind)
	}
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO summaries (
			id, account, source_kind, source_artifact_id,
			title, summary_text, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Account, string(sum.SourceKind), sum.SourceArtifactID,
		sum.Title, sum.SummaryText, sum.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if rows == 0 {
		return meeting.ErrAlreadyProcessed
	}

	for i, task := range sum.Tasks {
		id := task.ID
		if id == "" {
			id = fmt.Sprintf("%d", i+1)
		}
		var due any
		if task.DueDate != nil {
			due = *task.DueDate
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				summary_id, id, ord, text, assignee, due_date,
				completed, remote_task_id, remote_list_id,
				remote_event_id, local_modified_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.ID, id, i, task.Text, task.Assignee, due,
			task.Completed, task.RemoteTaskID, task.RemoteListID,
			task.RemoteEventID, sum.CreatedAt,
		); err != nil {
			return fmt.Errorf("inserting task %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing summary: %w", err)
	}
	return nil
}

// SummaryExists reports whether a summary with the given id exists.
func (s *SQLiteStore) SummaryExists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM summaries WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("checking summary existence: %w", err)
	}
	return count > 0, nil
}

// GetSummary returns a summary with its tasks in extraction order.
func (s *SQLiteStore) GetSummary(ctx context.Context, id string) (*meeting.Summary, error) {
	var row summaryRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM summaries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summary %s: %w", id, meeting.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting summary %s: %w", id, err)
	}

	sum := meeting.Summary{
		ID:               row.ID,
		Account:          row.Account,
		SourceKind:       meeting.SourceKind(row.SourceKind),
		SourceArtifactID: row.SourceArtifactID,
		Title:            row.Title,
		SummaryText:      row.SummaryText,
		CreatedAt:        row.CreatedAt,
	}

	var taskRows []taskRow
	if err := s.db.SelectContext(ctx, &taskRows,
		"SELECT * FROM tasks WHERE summary_id = ? ORDER BY ord", id); err != nil {
		return nil, fmt.Errorf("getting tasks for summary %s: %w", id, err)
	}
	for _, tr := range taskRows {
		sum.Tasks = append(sum.Tasks, tr.toTask())
	}

	return &sum, nil
}

// ListSummaries returns an account's summaries, newest first, tasks included.
func (s *SQLiteStore) ListSummaries(ctx context.Context, account string, f SummaryFilter) ([]meeting.Summary, error) {
	query := "SELECT * FROM summaries WHERE account = ?"
	args := []any{account}

	if f.SourceKind != nil {
		query += " AND source_kind = ?"
		args = append(args, string(*f.SourceKind))
	}
	if f.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, *f.Since)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}

	summaries := make([]meeting.Summary, 0, len(rows))
	for _, row := range rows {
		sum, err := s.GetSummary(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *sum)
	}
	return summaries, nil
}

// UpdateTaskCompletion flips a task's completed flag from a local edit and
// stamps local_modified_at. The stamp is what protects the edit from being
// overwritten by a later remote pull.
func (s *SQLiteStore) UpdateTaskCompletion(ctx context.Context, summaryID, taskID string, completed bool) (*meeting.Task, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = ?, local_modified_at = ?
		WHERE summary_id = ? AND id = ?`,
		completed, now, summaryID, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %s/%s: %w", summaryID, taskID, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("task %s/%s: %w", summaryID, taskID, meeting.ErrNotFound)
	}

	return s.getTask(ctx, summaryID, taskID)
}

// MarkTaskSynced stores the remote ids returned by a push and stamps
// last_synced_at, establishing the reconcile watermark for this task.
func (s *SQLiteStore) MarkTaskSynced(ctx context.Context, summaryID, taskID, remoteListID, remoteTaskID, remoteEventID string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			remote_list_id = ?, remote_task_id = ?,
			remote_event_id = CASE WHEN ? != '' THEN ? ELSE remote_event_id END,
			last_synced_at = ?
		WHERE summary_id = ? AND id = ?`,
		remoteListID, remoteTaskID, remoteEventID, remoteEventID, now,
		summaryID, taskID,
	)
	if err != nil {
		return fmt.Errorf("marking task %s/%s synced: %w", summaryID, taskID, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s/%s: %w", summaryID, taskID, meeting.ErrNotFound)
	}
	return nil
}

// MarkTaskStatusSynced stamps last_synced_at after a local completion change
// reached the remote task. Without the stamp the edit would look unsynced
// forever and block every later remote pull for this task.
func (s *SQLiteStore) MarkTaskStatusSynced(ctx context.Context, summaryID, taskID string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET last_synced_at = ?
		WHERE summary_id = ? AND id = ?`,
		now, summaryID, taskID,
	)
	if err != nil {
		return fmt.Errorf("marking task %s/%s status synced: %w", summaryID, taskID, err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s/%s: %w", summaryID, taskID, meeting.ErrNotFound)
	}
	return nil
}

// ApplyRemoteCompletion overwrites completed from remote state only when the
// task has not been edited locally since the last successful sync. The guard
// lives in the WHERE clause so the check and the write are one statement.
func (s *SQLiteStore) ApplyRemoteCompletion(ctx context.Context, summaryID, taskID string, completed bool) (bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = ?, last_synced_at = ?
		WHERE summary_id = ? AND id = ?
			AND last_synced_at IS NOT NULL
			AND local_modified_at <= last_synced_at`,
		completed, now, summaryID, taskID,
	)
	if err != nil {
		return false, fmt.Errorf("applying remote completion to %s/%s: %w", summaryID, taskID, err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

func (s *SQLiteStore) getTask(ctx context.Context, summaryID, taskID string) (*meeting.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM tasks WHERE summary_id = ? AND id = ?", summaryID, taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s/%s: %w", summaryID, taskID, meeting.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s/%s: %w", summaryID, taskID, err)
	}
	task := row.toTask()
	return &task, nil
}
