// Package gmail provides a read-only Gmail client for finding meeting
// notes shared via email.
//
// Scanning is a search over the last N days for "Notes:" mails and other
// meeting-summary subjects, followed by a classifier pass on the metadata.
// Message bodies are normalised to plain text; document attachments that
// look like meeting content can be listed and downloaded.
package gmail
