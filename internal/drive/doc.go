// Package drive provides a client for the Google Drive API scoped to
// meeting transcript ingestion.
//
// It covers the three ways transcripts arrive:
//   - Scanning the "Meet Recordings" folder for transcript files
//   - Polling the changes feed from a persisted page token
//   - Push notifications via watch channels, parsed from X-Goog headers
//
// Transcript content is normalised to plain text: native Google Docs are
// exported, .docx payloads are unpacked, text files pass through.
package drive
