package tasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

const (
	// StatusNeedsAction is the Google Tasks status for an open task
	StatusNeedsAction = "needsAction"

	// StatusCompleted is the Google Tasks status for a completed task
	StatusCompleted = "completed"

	// DefaultListID addresses the account's default task list
	DefaultListID = "@default"
)

// TaskList represents a Google Tasks task list
type TaskList struct {
	ID      string
	Title   string
	Updated time.Time
}

// Task represents a Google Tasks task
type Task struct {
	ID        string
	Title     string
	Notes     string
	Status    string // "needsAction" or "completed"
	Due       time.Time
	Completed time.Time
}

// Done reports whether the remote task is completed
func (t Task) Done() bool {
	return t.Status == StatusCompleted
}

// TaskInput represents the input for creating a task
type TaskInput struct {
	Title  string
	Notes  string
	Status string // "needsAction" or "completed"
	Due    time.Time
}

// toTaskList converts a Google Tasks TaskList to our TaskList type
func toTaskList(tl *tasks.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}

	result := TaskList{
		ID:    tl.Id,
		Title: tl.Title,
	}

	if tl.Updated != "" {
		if t, err := time.Parse(time.RFC3339, tl.Updated); err == nil {
			result.Updated = t
		}
	}

	return result
}

// toTask converts a Google Tasks Task to our Task type
func toTask(t *tasks.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:     t.Id,
		Title:  t.Title,
		Notes:  t.Notes,
		Status: t.Status,
	}

	if t.Due != "" {
		if due, err := time.Parse(time.RFC3339, t.Due); err == nil {
			result.Due = due
		}
	}

	if t.Completed != nil && *t.Completed != "" {
		if completed, err := time.Parse(time.RFC3339, *t.Completed); err == nil {
			result.Completed = completed
		}
	}

	return result
}
