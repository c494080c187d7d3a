package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetingmate/internal/drive"
	"github.com/teemow/meetingmate/internal/gmail"
	"github.com/teemow/meetingmate/internal/google"
	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/store"
)

const (
	// defaultParallelism bounds concurrent artifact processing per scan
	defaultParallelism = 4

	// defaultGmailDays is how far back a gmail scan reaches without a
	// watermark
	defaultGmailDays = 7
)

// DriveService is the slice of the Drive client the coordinator uses
type DriveService interface {
	FindMeetFolder(ctx context.Context) (string, error)
	ListFolder(ctx context.Context, folderID string) ([]*drive.FileInfo, error)
	GetStartPageToken(ctx context.Context) (string, error)
	ListChanges(ctx context.Context, pageToken string) (*drive.ChangeList, error)
	FetchTranscript(ctx context.Context, fileID string) (name, content string, err error)
	Watch(ctx context.Context, address, pageToken string) (*drive.WatchChannel, error)
	StopWatch(ctx context.Context, channelID, resourceID string) error
}

// GmailService is the slice of the Gmail client the coordinator uses
type GmailService interface {
	ListRecent(ctx context.Context, daysBack int) ([]gmail.Message, error)
	FetchMessageText(ctx context.Context, messageID string) (*gmail.Message, string, error)
}

// Extractor turns transcript text into a validated extraction
type Extractor interface {
	Extract(ctx context.Context, transcript string) (*meeting.Extraction, error)
}

// Notifier receives pipeline events
type Notifier interface {
	SummaryCreated(ctx context.Context, sum meeting.Summary)
}

// SourceFactory builds per-account source clients
type SourceFactory interface {
	DriveForAccount(ctx context.Context, account string) (DriveService, error)
	GmailForAccount(ctx context.Context, account string) (GmailService, error)
}

// googleSourceFactory builds real clients from the per-account token store.
// The granted scopes are verified first so a token authorized without Drive
// or Gmail access surfaces as a reauthorization condition, not a 403 later.
type googleSourceFactory struct{}

func (googleSourceFactory) DriveForAccount(ctx context.Context, account string) (DriveService, error) {
	if err := google.RequireScopes(account); err != nil {
		return nil, err
	}
	return drive.NewClientForAccount(ctx, account)
}

func (googleSourceFactory) GmailForAccount(ctx context.Context, account string) (GmailService, error) {
	if err := google.RequireScopes(account); err != nil {
		return nil, err
	}
	return gmail.NewClientForAccount(ctx, account)
}

// NewGoogleSourceFactory returns a factory backed by the OAuth token store
func NewGoogleSourceFactory() SourceFactory {
	return googleSourceFactory{}
}

// Coordinator drives the ingestion pipeline: discover artifacts, skip the
// already-processed, fetch, extract, persist, notify. Same-artifact races
// are resolved by the storage uniqueness constraint, so the coordinator
// itself needs no cross-process locking.
type Coordinator struct {
	store       store.Store
	sources     SourceFactory
	extractor   Extractor
	notifier    Notifier
	logger      *slog.Logger
	audit       *instrumentation.AuditLogger
	metrics     *instrumentation.Metrics
	parallelism int
}

// NewCoordinator creates a Coordinator. Notifier may be nil.
func NewCoordinator(st store.Store, sources SourceFactory, extractor Extractor, notifier Notifier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:       st,
		sources:     sources,
		extractor:   extractor,
		notifier:    notifier,
		logger:      logger,
		audit:       instrumentation.NewAuditLogger(logger),
		parallelism: defaultParallelism,
	}
}

// SetMetrics attaches the metrics recorder. Safe to leave unset; pipeline
// outcomes then go unrecorded.
func (c *Coordinator) SetMetrics(m *instrumentation.Metrics) {
	c.metrics = m
}

// ScanDrive processes new transcript files for an account. The first scan
// walks the Meet Recordings folder and establishes a changes-feed watermark;
// later scans read only the changes since the stored watermark. A revoked
// credential reports AuthRequired on the result instead of failing the call.
func (c *Coordinator) ScanDrive(ctx context.Context, account string) (result *meeting.ScanResult, err error) {
	op := instrumentation.NewOperationRecord("scan_drive").
		WithAccount(account).
		WithService(instrumentation.ServiceDrive).
		WithSpanContext(ctx)
	defer func() { c.audit.LogOperation(op.Complete(err == nil, err)) }()

	result = &meeting.ScanResult{}

	svc, err := c.sources.DriveForAccount(ctx, account)
	if err != nil {
		if errors.Is(err, meeting.ErrAuthRequired) {
			result.AuthRequired = true
			return result, nil
		}
		return nil, err
	}

	state, err := c.store.GetSourceState(ctx, account, meeting.SourceDrive)
	if err != nil {
		return nil, err
	}

	var artifacts []meeting.Artifact
	newWatermark := state.Watermark

	if state.Watermark == "" {
		artifacts, newWatermark, err = c.initialDriveScan(ctx, svc)
	} else {
		artifacts, newWatermark, err = c.incrementalDriveScan(ctx, svc, state.Watermark)
	}
	if err != nil {
		if errors.Is(err, meeting.ErrAuthRequired) {
			result.AuthRequired = true
			return result, nil
		}
		return nil, err
	}

	c.processArtifacts(ctx, account, svc, nil, artifacts, result)

	if !result.AuthRequired && newWatermark != state.Watermark {
		state.Account = account
		state.SourceKind = meeting.SourceDrive
		state.Watermark = newWatermark
		if err := c.store.SaveSourceState(ctx, *state); err != nil {
			return result, fmt.Errorf("saving drive watermark: %w", err)
		}
	}

	return result, nil
}

func (c *Coordinator) initialDriveScan(ctx context.Context, svc DriveService) ([]meeting.Artifact, string, error) {
	// Grab the changes position first so files modified during the folder
	// walk show up in the next incremental scan.
	token, err := svc.GetStartPageToken(ctx)
	if err != nil {
		return nil, "", err
	}

	folderID, err := svc.FindMeetFolder(ctx)
	if err != nil {
		return nil, "", err
	}
	if folderID == "" {
		return nil, token, nil
	}

	files, err := svc.ListFolder(ctx, folderID)
	if err != nil {
		return nil, "", err
	}

	var artifacts []meeting.Artifact
	for _, f := range files {
		artifacts = append(artifacts, meeting.Artifact{
			Kind:     meeting.SourceDrive,
			ID:       f.ID,
			Title:    f.Name,
			Modified: f.ModifiedTime,
		})
	}
	return artifacts, token, nil
}

func (c *Coordinator) incrementalDriveScan(ctx context.Context, svc DriveService, watermark string) ([]meeting.Artifact, string, error) {
	changes, err := svc.ListChanges(ctx, watermark)
	if err != nil {
		return nil, "", err
	}

	var artifacts []meeting.Artifact
	for _, ch := range changes.Changes {
		artifacts = append(artifacts, meeting.Artifact{
			Kind:     meeting.SourceDrive,
			ID:       ch.FileID,
			Title:    ch.File.Name,
			Modified: ch.File.ModifiedTime,
		})
	}
	return artifacts, changes.NewStartToken, nil
}

// ScanGmail processes meeting-notes emails for an account, reaching back to
// the stored watermark or daysBack days, whichever is later.
func (c *Coordinator) ScanGmail(ctx context.Context, account string, daysBack int) (result *meeting.ScanResult, err error) {
	op := instrumentation.NewOperationRecord("scan_gmail").
		WithAccount(account).
		WithService(instrumentation.ServiceGmail).
		WithSpanContext(ctx)
	defer func() { c.audit.LogOperation(op.Complete(err == nil, err)) }()

	result = &meeting.ScanResult{}

	svc, err := c.sources.GmailForAccount(ctx, account)
	if err != nil {
		if errors.Is(err, meeting.ErrAuthRequired) {
			result.AuthRequired = true
			return result, nil
		}
		return nil, err
	}

	if daysBack <= 0 {
		daysBack = defaultGmailDays
	}
	state, err := c.store.GetSourceState(ctx, account, meeting.SourceGmail)
	if err != nil {
		return nil, err
	}
	if state.Watermark != "" {
		if last, err := time.Parse(time.RFC3339, state.Watermark); err == nil {
			if since := int(time.Since(last).Hours()/24) + 1; since < daysBack {
				daysBack = since
			}
		}
	}

	messages, err := svc.ListRecent(ctx, daysBack)
	if err != nil {
		if errors.Is(err, meeting.ErrAuthRequired) {
			result.AuthRequired = true
			return result, nil
		}
		return nil, err
	}

	var artifacts []meeting.Artifact
	for _, m := range messages {
		artifacts = append(artifacts, meeting.Artifact{
			Kind:     meeting.SourceGmail,
			ID:       m.ID,
			Title:    gmail.MeetingTitle(m.Subject),
			Modified: m.Date,
		})
	}

	c.processArtifacts(ctx, account, nil, svc, artifacts, result)

	if !result.AuthRequired {
		state.Account = account
		state.SourceKind = meeting.SourceGmail
		state.Watermark = time.Now().UTC().Format(time.RFC3339)
		if err := c.store.SaveSourceState(ctx, *state); err != nil {
			return result, fmt.Errorf("saving gmail watermark: %w", err)
		}
	}

	return result, nil
}

// ProcessArtifact runs the pipeline for a single artifact, the webhook
// entry point.
func (c *Coordinator) ProcessArtifact(ctx context.Context, account string, kind meeting.SourceKind, artifactID string) (result *meeting.ScanResult, err error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid source kind %q", kind)
	}

	op := instrumentation.NewOperationRecord("process_artifact").
		WithAccount(account).
		WithService(string(kind)).
		WithSpanContext(ctx)
	defer func() { c.audit.LogOperation(op.Complete(err == nil, err)) }()

	result = &meeting.ScanResult{}
	artifact := meeting.Artifact{Kind: kind, ID: artifactID}

	var driveSvc DriveService
	var gmailSvc GmailService
	switch kind {
	case meeting.SourceDrive:
		driveSvc, err = c.sources.DriveForAccount(ctx, account)
	case meeting.SourceGmail:
		gmailSvc, err = c.sources.GmailForAccount(ctx, account)
	}
	if err != nil {
		if errors.Is(err, meeting.ErrAuthRequired) {
			result.AuthRequired = true
			return result, nil
		}
		return nil, err
	}

	c.processArtifacts(ctx, account, driveSvc, gmailSvc, []meeting.Artifact{artifact}, result)
	return result, nil
}

// processArtifacts runs the per-artifact pipeline over a batch with bounded
// parallelism, folding outcomes into result. A single failed artifact is
// recorded and the batch continues; a revoked credential stops the batch.
func (c *Coordinator) processArtifacts(ctx context.Context, account string,
	driveSvc DriveService, gmailSvc GmailService, artifacts []meeting.Artifact, result *meeting.ScanResult) {

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for _, artifact := range artifacts {
		g.Go(func() error {
			err := c.processOne(gctx, account, driveSvc, gmailSvc, artifact)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Created++
				c.recordOutcome(gctx, artifact.Kind, "created", account)
			case errors.Is(err, meeting.ErrAlreadyProcessed):
				result.Skipped++
				c.recordOutcome(gctx, artifact.Kind, "skipped", account)
			case errors.Is(err, meeting.ErrAuthRequired):
				result.AuthRequired = true
				return err
			default:
				result.Failed = append(result.Failed, meeting.ArtifactFailure{
					ArtifactID: artifact.ID,
					Title:      artifact.Title,
					Reason:     err.Error(),
				})
				c.recordOutcome(gctx, artifact.Kind, "failed", account)
				c.logger.Error("failed to process artifact",
					logging.Account(account),
					logging.Source(string(artifact.Kind)),
					logging.Artifact(artifact.ID),
					logging.Err(err))
			}
			return nil
		})
	}

	// The only error an artifact goroutine propagates is auth, already
	// folded into the result.
	_ = g.Wait()
}

func (c *Coordinator) processOne(ctx context.Context, account string,
	driveSvc DriveService, gmailSvc GmailService, artifact meeting.Artifact) (err error) {

	ctx, span := instrumentation.StartPipelineSpan(ctx, "process_artifact",
		instrumentation.NewSpanAttributeBuilder().
			WithAccount(account).
			WithSource(string(artifact.Kind)).
			WithArtifact(artifact.ID).
			Build()...)
	defer func() {
		if err != nil && !errors.Is(err, meeting.ErrAlreadyProcessed) {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
	}()

	summaryID := meeting.SummaryID(artifact.Kind, artifact.ID)

	// Cheap pre-check; the INSERT later is the real guard.
	exists, err := c.store.SummaryExists(ctx, summaryID)
	if err != nil {
		return err
	}
	if exists {
		return meeting.ErrAlreadyProcessed
	}

	title, transcript, err := c.fetch(ctx, driveSvc, gmailSvc, artifact)
	if err != nil {
		return err
	}

	// An empty transcript still gets a summary row so the artifact is not
	// re-fetched and re-failed on every scan. The extractor short-circuits
	// blank input to an empty extraction without a model call.
	extraction, err := c.extract(ctx, transcript)
	if err != nil {
		return err
	}

	sum := meeting.Summary{
		ID:               summaryID,
		Account:          account,
		SourceKind:       artifact.Kind,
		SourceArtifactID: artifact.ID,
		Title:            title,
		SummaryText:      extraction.Summary,
	}
	for _, t := range extraction.Tasks {
		sum.Tasks = append(sum.Tasks, meeting.Task{
			Text:     t.Text,
			Assignee: t.Assignee,
			DueDate:  t.DueDate,
		})
	}

	if err := c.store.CreateSummary(ctx, sum); err != nil {
		return err
	}

	c.logger.Info("meeting summary created",
		logging.Account(account),
		logging.Source(string(artifact.Kind)),
		logging.Summary(summaryID),
		slog.Int("tasks", len(sum.Tasks)))

	if c.notifier != nil {
		c.notifier.SummaryCreated(ctx, sum)
	}
	return nil
}

// extract runs the extraction engine and records the call's duration and
// task yield.
func (c *Coordinator) extract(ctx context.Context, transcript string) (*meeting.Extraction, error) {
	start := time.Now()
	extraction, err := c.extractor.Extract(ctx, transcript)
	if c.metrics != nil {
		status := instrumentation.StatusSuccess
		taskCount := 0
		if err != nil {
			status = instrumentation.StatusError
		} else {
			taskCount = len(extraction.Tasks)
		}
		c.metrics.RecordExtraction(ctx, status, taskCount, time.Since(start))
	}
	return extraction, err
}

func (c *Coordinator) recordOutcome(ctx context.Context, kind meeting.SourceKind, status, account string) {
	if c.metrics != nil {
		c.metrics.RecordSummaryProcessed(ctx, string(kind), status, account)
	}
}

func (c *Coordinator) fetch(ctx context.Context, driveSvc DriveService, gmailSvc GmailService,
	artifact meeting.Artifact) (title, transcript string, err error) {

	switch artifact.Kind {
	case meeting.SourceDrive:
		name, content, err := driveSvc.FetchTranscript(ctx, artifact.ID)
		if err != nil {
			return "", "", err
		}
		return cleanTranscriptName(name), content, nil
	case meeting.SourceGmail:
		msg, body, err := gmailSvc.FetchMessageText(ctx, artifact.ID)
		if err != nil {
			return "", "", err
		}
		return gmail.MeetingTitle(msg.Subject), body, nil
	}
	return "", "", fmt.Errorf("invalid source kind %q", artifact.Kind)
}

// cleanTranscriptName strips the suffixes Meet appends to transcript files
func cleanTranscriptName(name string) string {
	suffixes := []string{".txt", ".docx", " - Transcript", " - Notes by Gemini"}
	for {
		stripped := name
		for _, suffix := range suffixes {
			stripped = strings.TrimSuffix(stripped, suffix)
		}
		if stripped == name {
			return strings.TrimSpace(name)
		}
		name = stripped
	}
}
