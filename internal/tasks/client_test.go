package tasks

import (
	"testing"
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

func TestToTaskList(t *testing.T) {
	// Test with nil task list
	result := toTaskList(nil)
	if result.ID != "" {
		t.Errorf("Expected empty ID for nil task list, got %s", result.ID)
	}

	// Test with valid task list
	tl := &tasks.TaskList{
		Id:      "test-list-id",
		Title:   "Meeting: Weekly sync",
		Updated: "2026-08-27T14:00:00Z",
	}
	result = toTaskList(tl)

	if result.ID != "test-list-id" {
		t.Errorf("Expected ID 'test-list-id', got %s", result.ID)
	}
	if result.Title != "Meeting: Weekly sync" {
		t.Errorf("Expected list title, got %s", result.Title)
	}
	if result.Updated.IsZero() {
		t.Error("Expected non-zero updated time")
	}
}

func TestToTask(t *testing.T) {
	// Test with nil task
	result := toTask(nil)
	if result.ID != "" {
		t.Errorf("Expected empty ID for nil task, got %s", result.ID)
	}

	// Test with valid task
	completed := "2026-08-27T10:00:00Z"
	task := &tasks.Task{
		Id:        "test-task-id",
		Title:     "Send the report",
		Notes:     "From meeting: Weekly sync\nmeeting_abc_task_1",
		Status:    StatusCompleted,
		Due:       "2026-09-04T00:00:00Z",
		Completed: &completed,
	}
	result = toTask(task)

	if result.ID != "test-task-id" {
		t.Errorf("Expected ID 'test-task-id', got %s", result.ID)
	}
	if result.Title != "Send the report" {
		t.Errorf("Expected task title, got %s", result.Title)
	}
	if !result.Done() {
		t.Error("Expected completed task to be done")
	}

	expectedDue := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	if !result.Due.Equal(expectedDue) {
		t.Errorf("Expected due %v, got %v", expectedDue, result.Due)
	}
	if result.Completed.IsZero() {
		t.Error("Expected non-zero completed time")
	}
}

func TestToTask_InvalidDates(t *testing.T) {
	bad := "not-a-date"
	task := &tasks.Task{
		Id:        "test-task-id",
		Status:    StatusNeedsAction,
		Due:       "garbage",
		Completed: &bad,
	}
	result := toTask(task)

	if !result.Due.IsZero() {
		t.Errorf("Expected zero due for invalid date, got %v", result.Due)
	}
	if !result.Completed.IsZero() {
		t.Errorf("Expected zero completed for invalid date, got %v", result.Completed)
	}
	if result.Done() {
		t.Error("Expected open task")
	}
}
