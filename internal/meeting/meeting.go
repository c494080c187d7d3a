package meeting

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SourceKind identifies where an artifact came from.
type SourceKind string

const (
	SourceDrive SourceKind = "drive"
	SourceGmail SourceKind = "gmail"
)

// Valid reports whether the source kind is one of the known values.
func (k SourceKind) Valid() bool {
	return k == SourceDrive || k == SourceGmail
}

// SummaryID derives the stable summary identifier for a source artifact.
// The same (kind, artifactID) pair always yields the same id, which is what
// makes re-ingestion of an artifact a no-op.
func SummaryID(kind SourceKind, artifactID string) string {
	h := sha256.Sum256([]byte(string(kind) + ":" + artifactID))
	return hex.EncodeToString(h[:16])
}

// Artifact is a reference to a single source item (transcript file or email)
// eligible for processing.
type Artifact struct {
	Kind     SourceKind
	ID       string
	Title    string
	Modified time.Time
}

// Summary is one processed meeting artifact with its extracted tasks.
type Summary struct {
	ID               string
	Account          string
	SourceKind       SourceKind
	SourceArtifactID string
	Title            string
	SummaryText      string
	CreatedAt        time.Time
	Tasks            []Task
}

// Task is an actionable item extracted from a meeting. Tasks are owned by
// their summary and ordered by Ord (extraction order).
type Task struct {
	ID        string
	SummaryID string
	Ord       int
	Text      string
	Assignee  string
	DueDate   *time.Time
	Completed bool

	// Remote references are empty until the task has been pushed to the
	// remote task service.
	RemoteTaskID  string
	RemoteListID  string
	RemoteEventID string

	// LocalModifiedAt and LastSyncedAt implement the reconcile watermark: a
	// remote pull may only overwrite Completed when the task has not been
	// edited locally since the last successful sync.
	LocalModifiedAt time.Time
	LastSyncedAt    time.Time
}

// Synced reports whether the task has a counterpart in the remote task service.
func (t Task) Synced() bool {
	return t.RemoteTaskID != ""
}

// SyncID returns the marker embedded in remote task notes so tasks can be
// found again even if the stored remote id is lost.
func (t Task) SyncID() string {
	return fmt.Sprintf("meeting_%s_task_%s", t.SummaryID, t.ID)
}

// Notification kinds.
const (
	NotificationSummary      = "meeting_summary"
	NotificationTasksSync    = "tasks_sync"
	NotificationCalendarSync = "calendar_sync"
)

// Notification is an append-only user-visible event derived from ingestion or
// sync outcomes. Read is mutated only by explicit acknowledgement.
type Notification struct {
	ID        string
	Account   string
	Kind      string
	Title     string
	Message   string
	SummaryID string
	Read      bool
	CreatedAt time.Time
}

// ArtifactFailure records a single artifact that could not be processed.
type ArtifactFailure struct {
	ArtifactID string `json:"artifact_id"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

// ScanResult is the outcome of a batch ingestion run. A scan that hit a
// revoked credential reports AuthRequired instead of failing the caller.
type ScanResult struct {
	Created      int               `json:"created"`
	Skipped      int               `json:"skipped"`
	Failed       []ArtifactFailure `json:"failed,omitempty"`
	AuthRequired bool              `json:"auth_required,omitempty"`
}

// Merge folds another result into r, used to aggregate multi-source scans.
func (r *ScanResult) Merge(other ScanResult) {
	r.Created += other.Created
	r.Skipped += other.Skipped
	r.Failed = append(r.Failed, other.Failed...)
	r.AuthRequired = r.AuthRequired || other.AuthRequired
}

// SyncResult is the outcome of a sync operation. It is not persisted; its
// counts feed notifications and the dashboard response.
type SyncResult struct {
	TasksSynced           int      `json:"tasks_synced"`
	TasksSkipped          int      `json:"tasks_skipped"`
	CalendarEventsCreated int      `json:"calendar_events_created"`
	SummariesProcessed    int      `json:"summaries_processed,omitempty"`
	RemoteTaskUpdated     bool     `json:"remote_task_updated,omitempty"`
	Errors                []string `json:"errors,omitempty"`
}

// Merge folds another result into r, used by SyncAll to aggregate per-summary
// results.
func (r *SyncResult) Merge(other SyncResult) {
	r.TasksSynced += other.TasksSynced
	r.TasksSkipped += other.TasksSkipped
	r.CalendarEventsCreated += other.CalendarEventsCreated
	r.SummariesProcessed += other.SummariesProcessed
	r.Errors = append(r.Errors, other.Errors...)
}

// Extraction is the validated output of the extraction engine.
type Extraction struct {
	Summary string
	Tasks   []ExtractedTask
}

// ExtractedTask is a candidate task produced by the extraction engine before
// it is persisted.
type ExtractedTask struct {
	Text     string
	Assignee string
	DueDate  *time.Time
}
