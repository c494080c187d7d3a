package google

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/teemow/meetingmate/internal/meeting"
)

// ClassifyError maps a Google API error onto the shared error taxonomy so
// callers can branch with errors.Is instead of inspecting status codes.
//
//   - 401 and plain 403 become meeting.ErrAuthRequired: the credential is
//     invalid or lacks scopes, and retrying is pointless.
//   - 429, and 403 responses whose reason is a quota condition, become
//     meeting.ErrRateLimited so callers can defer and retry later.
//   - Anything else is returned as-is; 5xx errors stay generic and are
//     handled by the caller's retry policy.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusUnauthorized:
		return fmt.Errorf("google api: %s: %w", apiErr.Message, meeting.ErrAuthRequired)
	case http.StatusForbidden:
		if isQuotaError(apiErr) {
			return fmt.Errorf("google api quota exceeded: %w", meeting.ErrRateLimited)
		}
		return fmt.Errorf("google api: %s: %w", apiErr.Message, meeting.ErrAuthRequired)
	case http.StatusTooManyRequests:
		return fmt.Errorf("google api: %s: %w", apiErr.Message, meeting.ErrRateLimited)
	}

	return err
}

// isQuotaError reports whether a 403 is actually a quota condition rather
// than a missing scope. The Tasks and Calendar APIs signal per-user and
// per-project quota exhaustion this way.
func isQuotaError(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}
