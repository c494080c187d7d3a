package google

import (
	"fmt"
	"strings"

	"github.com/teemow/meetingmate/internal/meeting"
)

// RequiredScopes are the Google OAuth scopes the pipeline needs beyond the
// base login. They are requested at authorization time and checked by
// CheckPermissions before remote operations.
//
// The scopes provide access to:
//   - Google Drive: read-only (transcript files)
//   - Gmail: read-only (meeting-notes emails)
//   - Google Tasks: full access (task sync)
//   - Google Calendar: full access (due-date events)
var RequiredScopes = []string{
	// OpenID Connect scopes (required for user info)
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",

	// Google Drive scope
	"https://www.googleapis.com/auth/drive.readonly",

	// Gmail scope
	"https://www.googleapis.com/auth/gmail.readonly",

	// Google Tasks scope
	"https://www.googleapis.com/auth/tasks",

	// Google Calendar scope
	"https://www.googleapis.com/auth/calendar",
}

// ScopeCheck is the result of a permission check for an account.
type ScopeCheck struct {
	OK            bool
	MissingScopes []string
}

// CheckPermissions compares the scopes granted to an account's stored token
// against RequiredScopes. Components call this before remote operations to
// short-circuit calls that are doomed to fail with a 403.
func CheckPermissions(account string) (ScopeCheck, error) {
	granted, err := GrantedScopes(account)
	if err != nil {
		return ScopeCheck{}, err
	}

	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}

	var missing []string
	for _, s := range RequiredScopes {
		if !have[s] {
			missing = append(missing, s)
		}
	}

	return ScopeCheck{OK: len(missing) == 0, MissingScopes: missing}, nil
}

// RequireScopes verifies the account's stored token carries every scope the
// pipeline needs. A shortfall is reported as meeting.ErrAuthRequired since
// the only remedy is re-running the authorization flow.
func RequireScopes(account string) error {
	check, err := CheckPermissions(account)
	if err != nil {
		return err
	}
	if !check.OK {
		return fmt.Errorf("account %q is missing scopes %s: %w",
			account, strings.Join(check.MissingScopes, ", "), meeting.ErrAuthRequired)
	}
	return nil
}
