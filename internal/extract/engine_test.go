package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/teemow/meetingmate/internal/meeting"
)

const validResponse = `{
	"summary": "Discussed Q3 roadmap and budget.",
	"tasks": [
		{"description": "Send the report", "assignee": "Alice", "due_date": "2026-09-04"},
		{"description": "Review the budget", "assignee": null, "due_date": null}
	]
}`

func staticGenerate(response string) generateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return response, nil
	}
}

func TestExtract_ValidResponse(t *testing.T) {
	e, err := NewEngineWithGenerate(staticGenerate(validResponse))
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "some transcript")
	require.NoError(t, err)
	require.Equal(t, "Discussed Q3 roadmap and budget.", ext.Summary)
	require.Len(t, ext.Tasks, 2)
	require.Equal(t, "Send the report", ext.Tasks[0].Text)
	require.Equal(t, "Alice", ext.Tasks[0].Assignee)
	require.NotNil(t, ext.Tasks[0].DueDate)
	require.Equal(t, "2026-09-04", ext.Tasks[0].DueDate.Format("2006-01-02"))
	require.Empty(t, ext.Tasks[1].Assignee)
	require.Nil(t, ext.Tasks[1].DueDate)
}

func TestExtract_MarkdownFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	e, err := NewEngineWithGenerate(staticGenerate(fenced))
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "some transcript")
	require.NoError(t, err)
	require.Len(t, ext.Tasks, 2)
}

func TestExtract_EmptyInputSkipsModel(t *testing.T) {
	called := false
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return validResponse, nil
	})
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "   \n\t ")
	require.NoError(t, err)
	require.Empty(t, ext.Summary)
	require.Empty(t, ext.Tasks)
	require.False(t, called, "model must not be called for empty input")
}

func TestExtract_EmptyTaskListIsValid(t *testing.T) {
	e, err := NewEngineWithGenerate(staticGenerate(`{"summary": "Nothing actionable.", "tasks": []}`))
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "chit chat")
	require.NoError(t, err)
	require.Equal(t, "Nothing actionable.", ext.Summary)
	require.Empty(t, ext.Tasks)
}

func TestExtract_FormatErrors(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"not json", "the model rambled instead"},
		{"missing summary", `{"tasks": []}`},
		{"tasks not array", `{"summary": "x", "tasks": "none"}`},
		{"extra keys", `{"summary": "x", "tasks": [], "priority": "high"}`},
		{"empty description", `{"summary": "x", "tasks": [{"description": ""}]}`},
		{"bad due date", `{"summary": "x", "tasks": [{"description": "y", "due_date": "next friday"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
				calls++
				return tc.response, nil
			})
			require.NoError(t, err)

			_, err = e.Extract(context.Background(), "some transcript")
			require.ErrorIs(t, err, meeting.ErrExtractionFormat)
			require.Equal(t, 1, calls, "format errors must not be retried")
		})
	}
}

func TestExtract_TransientRetried(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("%w: 503", meeting.ErrExtractionTransient)
		}
		return validResponse, nil
	}, WithMaxAttempts(5))
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "some transcript")
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Len(t, ext.Tasks, 2)
}

func TestExtract_TransientBudgetExhausted(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", fmt.Errorf("%w: 503", meeting.ErrExtractionTransient)
	}, WithMaxAttempts(2))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "some transcript")
	require.ErrorIs(t, err, meeting.ErrExtractionTransient)
	require.Equal(t, 2, calls)
}

func TestExtract_ServerErrorRetried(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", &googleapi.Error{Code: 503, Message: "backend unavailable"}
		}
		return validResponse, nil
	}, WithMaxAttempts(5))
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "some transcript")
	require.NoError(t, err)
	require.Equal(t, 3, calls, "5xx responses must be retried")
	require.Len(t, ext.Tasks, 2)
}

func TestExtract_ServerErrorBudgetExhausted(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &googleapi.Error{Code: 500, Message: "internal error"}
	}, WithMaxAttempts(2))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "some transcript")
	require.ErrorIs(t, err, meeting.ErrExtractionTransient)
	require.Equal(t, 2, calls)
}

func TestExtract_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &googleapi.Error{Code: 400, Message: "bad request"}
	}, WithMaxAttempts(5))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "some transcript")
	require.Error(t, err)
	require.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestExtract_TransportErrorRetried(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &url.Error{Op: "Post", URL: "https://example.test", Err: fmt.Errorf("connection reset")}
	}, WithMaxAttempts(3))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "some transcript")
	require.ErrorIs(t, err, meeting.ErrExtractionTransient)
	require.Equal(t, 3, calls, "transport errors must be retried")
}

func TestExtract_AuthNotRetried(t *testing.T) {
	calls := 0
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", meeting.ErrAuthRequired
	}, WithMaxAttempts(5))
	require.NoError(t, err)

	_, err = e.Extract(context.Background(), "some transcript")
	require.ErrorIs(t, err, meeting.ErrAuthRequired)
	require.Equal(t, 1, calls)
}

func TestExtract_ContextCancelled(t *testing.T) {
	e, err := NewEngineWithGenerate(func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("%w: flaky", meeting.ErrExtractionTransient)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Extract(ctx, "some transcript")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled) || meeting.Retryable(err))
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{}":                        "{}",
		"```json\n{}\n```":          "{}",
		"```\n{}\n```":              "{}",
		"  ```json\n{\"a\":1}\n```": `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
