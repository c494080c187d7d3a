package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/teemow/meetingmate/internal/extract"
	"github.com/teemow/meetingmate/internal/google"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/store"
)

// defaultDBPath returns the SQLite database location: the MEETINGMATE_DB
// environment variable when set, otherwise a file under the user cache dir.
func defaultDBPath() string {
	if path := os.Getenv("MEETINGMATE_DB"); path != "" {
		return path
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = "."
	}
	return filepath.Join(cache, "meetingmate", "meetingmate.db")
}

// openStore opens the SQLite store, creating the parent directory if needed.
func openStore(dbPath string) (store.Store, error) {
	if dbPath == "" {
		dbPath = defaultDBPath()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	return store.NewSQLiteStore(dbPath)
}

// newExtractionEngine builds the Gemini-backed extraction engine. The API key
// comes from the flag value or the GEMINI_API_KEY environment variable.
func newExtractionEngine(ctx context.Context, apiKey, model string) (*extract.Engine, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required (set --gemini-api-key or GEMINI_API_KEY)")
	}
	return extract.NewEngine(ctx, apiKey, model)
}

// applyGoogleCredentials overrides the OAuth client credentials when the
// flags are set; otherwise the environment defaults in internal/google apply.
func applyGoogleCredentials(clientID, clientSecret string) {
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if clientID != "" && clientSecret != "" {
		google.SetCredentials(clientID, clientSecret)
	}
}

// newCLILogger returns a text logger to stderr for one-shot commands.
func newCLILogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewLogger(os.Stderr, "text", level)
}

// newServeLogger returns a JSON logger to stderr for the long-running server.
func newServeLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewLogger(os.Stderr, "json", level)
}
