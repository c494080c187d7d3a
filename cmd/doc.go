// Package cmd implements the command-line interface for meetingmate.
//
// This package provides the following commands:
//   - serve: Run the long-running server (webhook, dashboard API, polling, metrics)
//   - scan: Scan Drive and Gmail once and extract tasks from new artifacts
//   - sync: Push extracted tasks to Google Tasks and Calendar
//   - auth: Obtain and store an OAuth token for a Google account
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
