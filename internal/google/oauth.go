package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/meetingmate/internal/meeting"
)

// storedToken is the on-disk representation of a user's credential: the OAuth
// token plus the scopes that were granted when it was obtained. Granted scopes
// are kept so CheckPermissions can short-circuit calls that would fail anyway.
type storedToken struct {
	Token  *oauth2.Token `json:"token"`
	Scopes []string      `json:"scopes"`
}

var (
	clientID     = os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
)

// SetCredentials overrides the OAuth client credentials taken from the
// environment. Called from the CLI when flags are provided.
func SetCredentials(id, secret string) {
	if id != "" {
		clientID = id
	}
	if secret != "" {
		clientSecret = secret
	}
}

// getOAuthConfig returns the OAuth2 configuration for all Google services
// the pipeline touches.
func getOAuthConfig() *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       RequiredScopes,
	}
}

// validateAccountName rejects account names that could escape the cache
// directory or produce surprising file names.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	for _, r := range account {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("account name %q contains invalid character %q", account, r)
		}
	}
	return nil
}

// tokenFile returns the path of the token file for an account.
func tokenFile(account string) string {
	if account == "" {
		account = "default"
	}
	return filepath.Join(userCacheDir(), "meetingmate", account+".google.json")
}

// HasTokenForAccount checks if a token exists for the specified account.
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(tokenFile(account))
	return err == nil
}

// HasToken checks if a token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// GetAuthURLForAccount returns the OAuth URL for user authorization.
func GetAuthURLForAccount(account string) string {
	conf := getOAuthConfig()
	return conf.AuthCodeURL("state-" + account)
}

// SaveTokenForAccount exchanges an authorization code for tokens and saves
// them for the given account.
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	conf := getOAuthConfig()

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return writeToken(account, &storedToken{Token: t, Scopes: conf.Scopes})
}

// writeToken persists a token file with owner-only permissions.
func writeToken(account string, st *storedToken) error {
	path := tokenFile(account)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// readToken loads the stored token for an account. A missing or unreadable
// file means the user has never connected their account.
func readToken(account string) (*storedToken, error) {
	data, err := os.ReadFile(tokenFile(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token for account %s: %w", account, meeting.ErrAuthRequired)
	}

	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil || st.Token == nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, meeting.ErrAuthRequired)
	}
	return &st, nil
}

// GetTokenSourceForAccount returns a token source that transparently refreshes
// the stored access token. An expired token is refreshed once; a refresh
// failure (revoked consent) surfaces meeting.ErrAuthRequired so callers stop
// the pipeline for that user instead of retrying.
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	st, err := readToken(account)
	if err != nil {
		return nil, err
	}

	conf := getOAuthConfig()
	ts := conf.TokenSource(ctx, st.Token)

	fresh, err := ts.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("token refresh rejected for account %s: %w", account, meeting.ErrAuthRequired)
		}
		return nil, fmt.Errorf("token refresh failed for account %s: %w", account, err)
	}

	// Persist the rotated token so the next process start does not burn
	// another refresh.
	if fresh.AccessToken != st.Token.AccessToken {
		st.Token = fresh
		if werr := writeToken(account, st); werr != nil {
			return nil, werr
		}
	}

	return oauth2.ReuseTokenSource(fresh, ts), nil
}

// GetValidToken returns a currently valid access token for the account,
// refreshing if needed. This is the Credential Store contract used by the
// ingestion and sync components.
func GetValidToken(ctx context.Context, account string) (*oauth2.Token, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	t, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("no valid token for account %s: %w", account, meeting.ErrAuthRequired)
	}
	return t, nil
}

// GetHTTPClientForAccount returns an HTTP client configured with OAuth2
// authentication for the account. The client is configured to use HTTP/1.1
// to avoid HTTP/2 protocol errors.
func GetHTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

// GrantedScopes returns the scopes stored with the account's token.
func GrantedScopes(account string) ([]string, error) {
	st, err := readToken(account)
	if err != nil {
		return nil, err
	}
	return st.Scopes, nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		panic("No Windows TEMP or TMP environment variables found")
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
