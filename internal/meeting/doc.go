// Package meeting holds the domain model for the meeting-processing pipeline:
// summaries, tasks, notifications, scan/sync results, and the shared error
// taxonomy.
//
// A Summary is keyed by a deterministic function of its source artifact
// (SummaryID), which is what makes ingestion idempotent: processing the same
// Drive file or Gmail message twice can only ever produce one summary.
//
// Tasks carry two timestamps that drive reconciliation with the remote task
// service: LocalModifiedAt (last local edit) and LastSyncedAt (last successful
// push or pull). A remote pull overwrites local completion state only when the
// task has not been edited since the last sync, so an unsynced local edit is
// never clobbered.
package meeting
