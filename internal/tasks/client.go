package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/meetingmate/internal/google"
)

// Client wraps the Google Tasks service
type Client struct {
	svc     *tasks.Service
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

// NewClientForAccount creates a new Tasks client with OAuth2 authentication for a specific account
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}

	return &Client{
		svc:     svc,
		account: account,
	}, nil
}

// NewClient creates a new Tasks client for the default account
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// ListTaskLists lists all task lists for the authenticated user
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	result, err := c.svc.Tasklists.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", google.ClassifyError(err))
	}

	var taskLists []TaskList
	for _, tl := range result.Items {
		taskLists = append(taskLists, toTaskList(tl))
	}

	return taskLists, nil
}

// CreateTaskList creates a new task list
func (c *Client) CreateTaskList(ctx context.Context, title string) (*TaskList, error) {
	tl := &tasks.TaskList{
		Title: title,
	}

	created, err := c.svc.Tasklists.Insert(tl).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task list: %w", google.ClassifyError(err))
	}

	result := toTaskList(created)
	return &result, nil
}

// EnsureTaskList finds a task list by title, creating it if absent
func (c *Client) EnsureTaskList(ctx context.Context, title string) (*TaskList, error) {
	lists, err := c.ListTaskLists(ctx)
	if err != nil {
		return nil, err
	}
	for _, tl := range lists {
		if strings.EqualFold(tl.Title, title) {
			return &tl, nil
		}
	}
	return c.CreateTaskList(ctx, title)
}

// ListTasks lists tasks in a task list, including completed ones so remote
// status can be pulled back
func (c *Client) ListTasks(ctx context.Context, taskListID string) ([]Task, error) {
	var taskList []Task
	pageToken := ""
	for {
		call := c.svc.Tasks.List(taskListID).
			Context(ctx).
			ShowCompleted(true).
			ShowHidden(true)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", google.ClassifyError(err))
		}

		for _, t := range result.Items {
			taskList = append(taskList, toTask(t))
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return taskList, nil
}

// GetTask retrieves a specific task by ID
func (c *Client) GetTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	t, err := c.svc.Tasks.Get(taskListID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", google.ClassifyError(err))
	}

	result := toTask(t)
	return &result, nil
}

// CreateTask creates a new task
func (c *Client) CreateTask(ctx context.Context, taskListID string, input TaskInput) (*Task, error) {
	t := &tasks.Task{
		Title:  input.Title,
		Notes:  input.Notes,
		Status: input.Status,
	}

	if !input.Due.IsZero() {
		t.Due = input.Due.Format(time.RFC3339)
	}

	created, err := c.svc.Tasks.Insert(taskListID, t).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", google.ClassifyError(err))
	}

	result := toTask(created)
	return &result, nil
}

// SetTaskStatus marks a task as completed or reopens it
func (c *Client) SetTaskStatus(ctx context.Context, taskListID, taskID string, completed bool) (*Task, error) {
	existing, err := c.svc.Tasks.Get(taskListID, taskID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", google.ClassifyError(err))
	}

	if completed {
		existing.Status = StatusCompleted
		completedTime := time.Now().Format(time.RFC3339)
		existing.Completed = &completedTime
	} else {
		existing.Status = StatusNeedsAction
		existing.Completed = nil
		existing.ForceSendFields = append(existing.ForceSendFields, "Completed")
	}

	updated, err := c.svc.Tasks.Update(taskListID, taskID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", google.ClassifyError(err))
	}

	result := toTask(updated)
	return &result, nil
}

// FindTaskByNote returns the first task in a list whose notes contain the
// given marker. Used to detect tasks that were already pushed.
func (c *Client) FindTaskByNote(ctx context.Context, taskListID, marker string) (*Task, error) {
	all, err := c.ListTasks(ctx, taskListID)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if strings.Contains(t.Notes, marker) {
			return &t, nil
		}
	}
	return nil, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, taskListID, taskID string) error {
	err := c.svc.Tasks.Delete(taskListID, taskID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", google.ClassifyError(err))
	}
	return nil
}
