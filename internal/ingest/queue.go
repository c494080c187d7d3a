package ingest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
)

const defaultQueueDepth = 64

// Job is a unit of ingestion work. ArtifactID set means a single-artifact
// webhook job, empty means a full scan of the source.
type Job struct {
	Account    string
	Kind       meeting.SourceKind
	ArtifactID string
}

// Queue decouples webhook acknowledgement from artifact processing. Webhook
// handlers enqueue and return immediately; a fixed pool of workers drains
// jobs through the coordinator.
type Queue struct {
	coordinator *Coordinator
	logger      *slog.Logger
	metrics     *instrumentation.Metrics

	jobs    chan Job
	workers int

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewQueue creates a queue with the given worker count. Workers do not run
// until Start is called.
func NewQueue(coordinator *Coordinator, workers int, logger *slog.Logger) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		coordinator: coordinator,
		logger:      logger,
		jobs:        make(chan Job, defaultQueueDepth),
		workers:     workers,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is closed.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// SetMetrics attaches the metrics recorder tracking queue depth.
func (q *Queue) SetMetrics(m *instrumentation.Metrics) {
	q.metrics = m
}

// Enqueue adds a job without blocking. A full queue drops the job and
// reports false; the next periodic scan will pick the artifact up anyway.
func (q *Queue) Enqueue(job Job) bool {
	select {
	case q.jobs <- job:
		if q.metrics != nil {
			q.metrics.IncrementQueueDepth(context.Background())
		}
		return true
	default:
		q.logger.Warn("ingestion queue full, dropping job",
			logging.Account(job.Account),
			logging.Source(string(job.Kind)),
			logging.Artifact(job.ArtifactID))
		return false
	}
}

// Close stops accepting jobs and waits for workers to drain what is queued.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(ctx, job)
		}
	}
}

func (q *Queue) run(ctx context.Context, job Job) {
	if q.metrics != nil {
		defer q.metrics.DecrementQueueDepth(context.Background())
	}

	var result *meeting.ScanResult
	var err error

	switch {
	case job.ArtifactID != "":
		result, err = q.coordinator.ProcessArtifact(ctx, job.Account, job.Kind, job.ArtifactID)
	case job.Kind == meeting.SourceDrive:
		result, err = q.coordinator.ScanDrive(ctx, job.Account)
	case job.Kind == meeting.SourceGmail:
		result, err = q.coordinator.ScanGmail(ctx, job.Account, 0)
	default:
		q.logger.Error("job has invalid source kind",
			logging.Account(job.Account),
			logging.Source(string(job.Kind)))
		return
	}

	if err != nil {
		q.logger.Error("ingestion job failed",
			logging.Account(job.Account),
			logging.Source(string(job.Kind)),
			logging.Err(err))
		return
	}
	if result.AuthRequired {
		q.logger.Warn("ingestion job needs reauthorization",
			logging.Account(job.Account),
			logging.Source(string(job.Kind)))
	}
}
