package tasksync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/meetingmate/internal/calendar"
	"github.com/teemow/meetingmate/internal/google"
	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/store"
	"github.com/teemow/meetingmate/internal/tasks"
)

const (
	// perMeetingListThreshold is the task count at which a meeting gets its
	// own task list instead of the default one
	perMeetingListThreshold = 3

	// meetingListPrefix titles per-meeting task lists
	meetingListPrefix = "Meeting: "
)

// TasksService is the slice of the Google Tasks client the syncer uses
type TasksService interface {
	EnsureTaskList(ctx context.Context, title string) (*tasks.TaskList, error)
	CreateTask(ctx context.Context, taskListID string, input tasks.TaskInput) (*tasks.Task, error)
	GetTask(ctx context.Context, taskListID, taskID string) (*tasks.Task, error)
	SetTaskStatus(ctx context.Context, taskListID, taskID string, completed bool) (*tasks.Task, error)
	FindTaskByNote(ctx context.Context, taskListID, marker string) (*tasks.Task, error)
}

// CalendarService is the slice of the Calendar client the syncer uses
type CalendarService interface {
	CreateDeadlineEvent(ctx context.Context, title, description string, due time.Time) (*calendar.EventSummary, error)
}

// ClientFactory builds per-account service clients
type ClientFactory interface {
	TasksForAccount(ctx context.Context, account string) (TasksService, error)
	CalendarForAccount(ctx context.Context, account string) (CalendarService, error)
}

// Notifier receives sync outcome events
type Notifier interface {
	SyncCompleted(ctx context.Context, account, title string, result meeting.SyncResult)
}

// googleClientFactory builds real clients from the per-account token store.
// The granted scopes are verified first so a token that never had Tasks or
// Calendar access fails fast instead of with a 403 per call.
type googleClientFactory struct{}

func (googleClientFactory) TasksForAccount(ctx context.Context, account string) (TasksService, error) {
	if err := google.RequireScopes(account); err != nil {
		return nil, err
	}
	return tasks.NewClientForAccount(ctx, account)
}

func (googleClientFactory) CalendarForAccount(ctx context.Context, account string) (CalendarService, error) {
	if err := google.RequireScopes(account); err != nil {
		return nil, err
	}
	return calendar.NewClientForAccount(ctx, account)
}

// NewGoogleClientFactory returns a factory backed by the OAuth token store
func NewGoogleClientFactory() ClientFactory {
	return googleClientFactory{}
}

// Syncer reconciles stored meeting tasks with Google Tasks and Calendar.
// Work on the same summary is serialized; different summaries may sync in
// parallel. All remote calls pass through a shared rate limiter.
type Syncer struct {
	store    store.Store
	clients  ClientFactory
	limiter  *rate.Limiter
	notifier Notifier
	logger   *slog.Logger
	audit    *instrumentation.AuditLogger
	metrics  *instrumentation.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncer creates a Syncer. A nil limiter gets a conservative default;
// notifier may be nil.
func NewSyncer(st store.Store, clients ClientFactory, limiter *rate.Limiter, notifier Notifier, logger *slog.Logger) *Syncer {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 10)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:    st,
		clients:  clients,
		limiter:  limiter,
		notifier: notifier,
		logger:   logger,
		audit:    instrumentation.NewAuditLogger(logger),
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetMetrics attaches the metrics recorder. Safe to leave unset; sync
// operations then go unrecorded.
func (s *Syncer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

func (s *Syncer) recordSync(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	if s.metrics != nil {
		s.metrics.RecordSyncOperation(ctx, operation, status, time.Since(start))
	}
}

// summaryLock returns the mutex serializing work on one summary
func (s *Syncer) summaryLock(summaryID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[summaryID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[summaryID] = l
	}
	return l
}

func (s *Syncer) wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

// SyncSummary pushes every unsynced task of a summary to Google Tasks and
// mirrors due dates to Calendar. Already-synced tasks are skipped; tasks
// found remotely by their sync marker are relinked instead of duplicated.
// Per-task failures are collected and the rest of the summary continues,
// except auth failures which abort immediately.
func (s *Syncer) SyncSummary(ctx context.Context, account, summaryID string) (result *meeting.SyncResult, err error) {
	start := time.Now()
	op := instrumentation.NewOperationRecord("sync_tasks").
		WithAccount(account).
		WithService(instrumentation.ServiceTasks).
		WithSummary(summaryID).
		WithSpanContext(ctx)
	defer func() {
		s.recordSync(ctx, "push", start, err)
		s.audit.LogOperation(op.Complete(err == nil, err))
	}()

	lock := s.summaryLock(summaryID)
	lock.Lock()
	defer lock.Unlock()

	sum, err := s.store.GetSummary(ctx, summaryID)
	if err != nil {
		return nil, err
	}

	result = &meeting.SyncResult{SummariesProcessed: 1}
	if len(sum.Tasks) == 0 {
		return result, nil
	}

	tasksSvc, err := s.clients.TasksForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	listID, err := s.targetList(ctx, tasksSvc, sum)
	if err != nil {
		return nil, err
	}

	var calSvc CalendarService
	for _, task := range sum.Tasks {
		if task.Synced() {
			result.TasksSkipped++
			continue
		}

		pushed, eventsCreated, err := s.pushTask(ctx, tasksSvc, &calSvc, account, sum, task, listID)
		if err != nil {
			if errors.Is(err, meeting.ErrAuthRequired) {
				return result, err
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %s: %v", task.ID, err))
			s.logger.Error("failed to push task",
				logging.Account(account),
				logging.Summary(summaryID),
				logging.Task(task.ID),
				logging.Err(err))
			continue
		}

		if pushed {
			result.TasksSynced++
		} else {
			result.TasksSkipped++
		}
		result.CalendarEventsCreated += eventsCreated
	}

	if s.notifier != nil && (result.TasksSynced > 0 || result.CalendarEventsCreated > 0) {
		s.notifier.SyncCompleted(ctx, account, sum.Title, *result)
	}

	return result, nil
}

// targetList picks the task list for a summary: its own list above the
// threshold, the default list below it
func (s *Syncer) targetList(ctx context.Context, svc TasksService, sum *meeting.Summary) (string, error) {
	if len(sum.Tasks) < perMeetingListThreshold {
		return tasks.DefaultListID, nil
	}

	if err := s.wait(ctx); err != nil {
		return "", err
	}
	list, err := svc.EnsureTaskList(ctx, meetingListPrefix+sum.Title)
	if err != nil {
		return "", fmt.Errorf("ensuring task list: %w", err)
	}
	return list.ID, nil
}

func (s *Syncer) pushTask(ctx context.Context, tasksSvc TasksService, calSvc *CalendarService,
	account string, sum *meeting.Summary, task meeting.Task, listID string) (bool, int, error) {

	syncID := task.SyncID()

	// A remote task tagged with our sync id means a previous push lost its
	// local bookkeeping; relink rather than duplicate.
	if err := s.wait(ctx); err != nil {
		return false, 0, err
	}
	existing, err := tasksSvc.FindTaskByNote(ctx, listID, syncID)
	if err != nil {
		return false, 0, err
	}
	if existing != nil {
		if err := s.store.MarkTaskSynced(ctx, sum.ID, task.ID, listID, existing.ID, ""); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}

	input := tasks.TaskInput{
		Title:  task.Text,
		Notes:  fmt.Sprintf("From meeting: %s\n%s", sum.Title, syncID),
		Status: tasks.StatusNeedsAction,
	}
	if task.Completed {
		input.Status = tasks.StatusCompleted
	}
	if task.DueDate != nil {
		input.Due = *task.DueDate
	}

	if err := s.wait(ctx); err != nil {
		return false, 0, err
	}
	created, err := tasksSvc.CreateTask(ctx, listID, input)
	if err != nil {
		return false, 0, err
	}

	eventsCreated := 0
	eventID := ""
	if task.DueDate != nil {
		id, err := s.createDeadlineEvent(ctx, calSvc, account, sum, task)
		if err != nil {
			// Task push already succeeded; record the link and surface the
			// calendar failure separately.
			s.logger.Error("failed to create deadline event",
				logging.Account(account),
				logging.Summary(sum.ID),
				logging.Task(task.ID),
				logging.Err(err))
		} else {
			eventID = id
			eventsCreated = 1
		}
	}

	if err := s.store.MarkTaskSynced(ctx, sum.ID, task.ID, listID, created.ID, eventID); err != nil {
		return true, eventsCreated, err
	}
	return true, eventsCreated, nil
}

func (s *Syncer) createDeadlineEvent(ctx context.Context, calSvc *CalendarService,
	account string, sum *meeting.Summary, task meeting.Task) (string, error) {

	if *calSvc == nil {
		svc, err := s.clients.CalendarForAccount(ctx, account)
		if err != nil {
			return "", err
		}
		*calSvc = svc
	}

	if err := s.wait(ctx); err != nil {
		return "", err
	}
	event, err := (*calSvc).CreateDeadlineEvent(ctx, task.Text,
		fmt.Sprintf("Task from meeting: %s", sum.Title), *task.DueDate)
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

// SyncAll pushes every summary of an account, isolating failures per
// summary. Auth failures abort the whole run since every summary would hit
// the same wall.
func (s *Syncer) SyncAll(ctx context.Context, account string, limit int) (*meeting.SyncResult, error) {
	summaries, err := s.store.ListSummaries(ctx, account, store.SummaryFilter{Limit: limit})
	if err != nil {
		return nil, err
	}

	total := &meeting.SyncResult{}
	for _, sum := range summaries {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.SyncSummary(ctx, account, sum.ID)
		if result != nil {
			total.Merge(*result)
		}
		if err != nil {
			if errors.Is(err, meeting.ErrAuthRequired) {
				return total, err
			}
			total.Errors = append(total.Errors,
				fmt.Sprintf("summary %s: %v", sum.ID, err))
		}
	}

	return total, nil
}

// UpdateTaskStatus records a completion change locally and mirrors it to the
// remote task when one is linked. The local write is authoritative: a remote
// failure is reported through RemoteTaskUpdated=false, not an error. A
// successful mirror advances the task's sync watermark so future remote
// pulls still reconcile this task.
func (s *Syncer) UpdateTaskStatus(ctx context.Context, account, summaryID, taskID string, completed bool) (task *meeting.Task, result *meeting.SyncResult, err error) {
	start := time.Now()
	op := instrumentation.NewOperationRecord("update_task_status").
		WithAccount(account).
		WithService(instrumentation.ServiceTasks).
		WithSummary(summaryID).
		WithSpanContext(ctx)
	defer func() {
		s.recordSync(ctx, "status_update", start, err)
		s.audit.LogOperation(op.Complete(err == nil, err))
	}()

	lock := s.summaryLock(summaryID)
	lock.Lock()
	defer lock.Unlock()

	task, err = s.store.UpdateTaskCompletion(ctx, summaryID, taskID, completed)
	if err != nil {
		return nil, nil, err
	}

	result = &meeting.SyncResult{}
	if task.RemoteTaskID == "" {
		return task, result, nil
	}

	remoteErr := s.mirrorStatus(ctx, account, task, completed)
	if remoteErr != nil {
		s.logger.Warn("remote task update failed, local state kept",
			logging.Account(account),
			logging.Summary(summaryID),
			logging.Task(taskID),
			logging.Err(remoteErr))
		result.Errors = append(result.Errors, remoteErr.Error())
		return task, result, nil
	}

	// The remote now carries the local edit, so the edit no longer counts
	// as unsynced. Without the stamp every later remote pull for this task
	// would be rejected by the reconcile guard.
	if err := s.store.MarkTaskStatusSynced(ctx, summaryID, taskID); err != nil {
		s.logger.Warn("failed to advance sync watermark after mirror",
			logging.Account(account),
			logging.Summary(summaryID),
			logging.Task(taskID),
			logging.Err(err))
		result.Errors = append(result.Errors, err.Error())
	}

	result.RemoteTaskUpdated = true
	return task, result, nil
}

func (s *Syncer) mirrorStatus(ctx context.Context, account string, task *meeting.Task, completed bool) error {
	tasksSvc, err := s.clients.TasksForAccount(ctx, account)
	if err != nil {
		return err
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	if _, err := tasksSvc.SetTaskStatus(ctx, task.RemoteListID, task.RemoteTaskID, completed); err != nil {
		return err
	}
	return nil
}

// Refresh pulls remote completion state for a summary and reconciles it into
// the store. Tasks with unsynced local edits keep their local state.
func (s *Syncer) Refresh(ctx context.Context, account, summaryID string) (result *meeting.SyncResult, err error) {
	start := time.Now()
	op := instrumentation.NewOperationRecord("refresh_tasks").
		WithAccount(account).
		WithService(instrumentation.ServiceTasks).
		WithSummary(summaryID).
		WithSpanContext(ctx)
	defer func() {
		s.recordSync(ctx, "refresh", start, err)
		s.audit.LogOperation(op.Complete(err == nil, err))
	}()

	lock := s.summaryLock(summaryID)
	lock.Lock()
	defer lock.Unlock()

	sum, err := s.store.GetSummary(ctx, summaryID)
	if err != nil {
		return nil, err
	}

	tasksSvc, err := s.clients.TasksForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	result = &meeting.SyncResult{SummariesProcessed: 1}
	for _, task := range sum.Tasks {
		if !task.Synced() {
			result.TasksSkipped++
			continue
		}

		if err := s.wait(ctx); err != nil {
			return result, err
		}
		remote, err := tasksSvc.GetTask(ctx, task.RemoteListID, task.RemoteTaskID)
		if err != nil {
			if errors.Is(err, meeting.ErrAuthRequired) {
				return result, err
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %s: %v", task.ID, err))
			continue
		}

		applied, err := s.store.ApplyRemoteCompletion(ctx, summaryID, task.ID, remote.Done())
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("task %s: %v", task.ID, err))
			continue
		}
		if applied && remote.Done() != task.Completed {
			result.TasksSynced++
		} else {
			result.TasksSkipped++
		}
	}

	return result, nil
}
