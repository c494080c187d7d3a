// Package ingest discovers meeting artifacts in Drive and Gmail and runs
// them through the extraction pipeline. The Coordinator owns the
// per-artifact pipeline, the Queue decouples webhook acknowledgement from
// processing, and the Poller provides the periodic fallback scan.
package ingest
