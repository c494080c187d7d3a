// Package tasksync reconciles locally stored meeting tasks with Google
// Tasks and Google Calendar.
//
// The push path creates remote tasks for everything not yet synced, tagging
// each with a sync marker in its notes so replays and lost state never
// produce duplicates. The pull path reads remote completion back and applies
// it only where no unsynced local edit exists; local edits are authoritative.
package tasksync
