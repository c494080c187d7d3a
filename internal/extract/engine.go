package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/semaphore"
	genai "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/meetingmate/internal/google"
	"github.com/teemow/meetingmate/internal/meeting"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-1.5-flash"

	defaultConcurrency = 4
	defaultMaxAttempts = 3

	temperature     = 0.2
	maxOutputTokens = 1024
)

// systemPrompt defines the note-taker persona and the JSON contract the
// response schema enforces.
const systemPrompt = `You are MeetingMate, an expert note-taker and task extractor.
Analyze the following meeting transcript. Return ONLY valid JSON with:
  "summary": 2-3 lines summarising the meeting, and
  "tasks":   an array of action items (max 10), each an object with
             "description" (concise, imperative verb first),
             "assignee" (person name, or null if not mentioned), and
             "due_date" ("YYYY-MM-DD", or null if not mentioned).
If no tasks are found, return an empty "tasks" array.
Do not output any additional keys or formatting.`

// generateFunc produces the raw model response for a prompt. Split out so
// tests can substitute a canned model.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Engine turns raw meeting transcripts into validated extractions. In-flight
// model calls are capped by a weighted semaphore; callers block until a slot
// frees up.
type Engine struct {
	generate    generateFunc
	schema      *jsonschema.Schema
	sem         *semaphore.Weighted
	maxAttempts uint
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency caps the number of in-flight model calls.
func WithConcurrency(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithMaxAttempts sets the retry budget for transient model failures.
func WithMaxAttempts(n uint) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// NewEngine creates an extraction engine backed by the Gemini API.
func NewEngine(ctx context.Context, apiKey, model string, opts ...Option) (*Engine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	svc, err := genai.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini service: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return newEngine(geminiGenerate(svc, model), opts...)
}

// NewEngineWithGenerate creates an engine with a custom generate function.
// Used by tests.
func NewEngineWithGenerate(generate generateFunc, opts ...Option) (*Engine, error) {
	return newEngine(generate, opts...)
}

func newEngine(generate generateFunc, opts ...Option) (*Engine, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		generate:    generate,
		schema:      schema,
		sem:         semaphore.NewWeighted(defaultConcurrency),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func geminiGenerate(svc *genai.Service, model string) generateFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		req := &genai.GenerateContentRequest{
			Contents: []*genai.Content{{
				Role:  "user",
				Parts: []*genai.Part{{Text: prompt}},
			}},
			GenerationConfig: &genai.GenerationConfig{
				Temperature:      temperature,
				MaxOutputTokens:  maxOutputTokens,
				ResponseMimeType: "application/json",
			},
		}
		resp, err := svc.Models.GenerateContent("models/"+model, req).Context(ctx).Do()
		if err != nil {
			return "", google.ClassifyError(err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("%w: model returned no candidates", meeting.ErrExtractionTransient)
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		return sb.String(), nil
	}
}

// Extract runs the model over the transcript and returns a validated
// extraction. Empty input short-circuits to an empty extraction without
// calling the model. Transient failures are retried with exponential backoff
// up to the attempt budget; format failures are never retried.
func (e *Engine) Extract(ctx context.Context, transcript string) (*meeting.Extraction, error) {
	if strings.TrimSpace(transcript) == "" {
		return &meeting.Extraction{}, nil
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	prompt := systemPrompt + "\n\nTranscript:\n" + transcript

	return backoff.Retry(ctx, func() (*meeting.Extraction, error) {
		raw, err := e.generate(ctx, prompt)
		if err != nil {
			err = classifyGenerateError(err)
			if meeting.Retryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		ext, err := e.decode(raw)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return ext, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(e.maxAttempts),
	)
}

// classifyGenerateError promotes model failures worth another attempt into
// meeting.ErrExtractionTransient: server-side 5xx responses and transport
// errors where the request never completed. Errors already carrying a
// taxonomy classification, and context cancellation, pass through unchanged.
func classifyGenerateError(err error) error {
	if meeting.Retryable(err) ||
		errors.Is(err, meeting.ErrAuthRequired) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= 500 {
			return fmt.Errorf("%w: model returned %d: %v", meeting.ErrExtractionTransient, apiErr.Code, err)
		}
		return err
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", meeting.ErrExtractionTransient, err)
	}

	return err
}

// extractionPayload is the wire shape of a model response.
type extractionPayload struct {
	Summary string `json:"summary"`
	Tasks   []struct {
		Description string  `json:"description"`
		Assignee    *string `json:"assignee"`
		DueDate     *string `json:"due_date"`
	} `json:"tasks"`
}

func (e *Engine) decode(raw string) (*meeting.Extraction, error) {
	cleaned := stripFences(raw)

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", meeting.ErrExtractionFormat, err)
	}
	if err := e.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrExtractionFormat, err)
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", meeting.ErrExtractionFormat, err)
	}

	ext := &meeting.Extraction{Summary: strings.TrimSpace(payload.Summary)}
	for _, t := range payload.Tasks {
		task := meeting.ExtractedTask{Text: strings.TrimSpace(t.Description)}
		if t.Assignee != nil {
			task.Assignee = strings.TrimSpace(*t.Assignee)
		}
		if t.DueDate != nil && *t.DueDate != "" {
			due, err := time.Parse("2006-01-02", *t.DueDate)
			if err != nil {
				return nil, fmt.Errorf("%w: bad due date %q", meeting.ErrExtractionFormat, *t.DueDate)
			}
			task.DueDate = &due
		}
		ext.Tasks = append(ext.Tasks, task)
	}
	return ext, nil
}

// stripFences removes a markdown code fence the model sometimes wraps the
// JSON payload in despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
