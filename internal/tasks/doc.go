// Package tasks provides a client for managing Google Tasks.
//
// This package wraps the Google Tasks API (tasks/v1) with the operations the
// sync layer needs:
//   - Finding or creating per-meeting task lists
//   - Creating tasks with sync markers in their notes
//   - Listing tasks including completed ones, for status pull-back
//   - Marking tasks completed or reopening them
//
// Authentication uses the per-account OAuth2 token system shared by the
// other Google service clients. Tokens are stored in the user's cache
// directory; use HasTokenForAccount before constructing a client.
package tasks
