package meeting

import "errors"

// Error taxonomy shared by every component in the pipeline. Components wrap
// these sentinels with context; callers classify with errors.Is.
var (
	// ErrAuthRequired means the user's credential is missing, expired
	// beyond refresh, or lacks scopes. Not retryable: the user has to
	// reconnect their account, so the pipeline stops for that user.
	ErrAuthRequired = errors.New("authorization required")

	// ErrRateLimited means a remote quota was exceeded. Retryable after
	// backing off, and surfaced distinctly so callers can defer instead of
	// treating it as a hard failure.
	ErrRateLimited = errors.New("rate limited by remote service")

	// ErrExtractionTransient is a temporary AI-service failure. Retried
	// with bounded backoff before the artifact is recorded as failed.
	ErrExtractionTransient = errors.New("transient extraction failure")

	// ErrExtractionFormat means the model returned output that does not
	// match the expected schema. Never retried; the artifact is marked
	// failed.
	ErrExtractionFormat = errors.New("malformed extraction output")

	// ErrNotFound is returned for unknown summary/task/notification ids.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyProcessed is returned by the store when a summary for the
	// same source artifact already exists. The coordinator treats it as a
	// skip, never as a failure.
	ErrAlreadyProcessed = errors.New("artifact already processed")
)

// Retryable reports whether an error is worth retrying with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrExtractionTransient) || errors.Is(err, ErrRateLimited)
}
