package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/meetingmate/internal/calendar"
	"github.com/teemow/meetingmate/internal/drive"
	"github.com/teemow/meetingmate/internal/gmail"
	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/store"
	"github.com/teemow/meetingmate/internal/tasks"
	"github.com/teemow/meetingmate/internal/tasksync"
)

type stubDrive struct{}

func (stubDrive) FindMeetFolder(ctx context.Context) (string, error) { return "", nil }
func (stubDrive) ListFolder(ctx context.Context, folderID string) ([]*drive.FileInfo, error) {
	return nil, nil
}
func (stubDrive) GetStartPageToken(ctx context.Context) (string, error) { return "tok", nil }
func (stubDrive) ListChanges(ctx context.Context, pageToken string) (*drive.ChangeList, error) {
	return &drive.ChangeList{NewStartToken: pageToken}, nil
}
func (stubDrive) FetchTranscript(ctx context.Context, fileID string) (string, string, error) {
	return "Weekly Sync", "Alice: ship it.", nil
}
func (stubDrive) Watch(ctx context.Context, address, pageToken string) (*drive.WatchChannel, error) {
	return &drive.WatchChannel{ChannelID: "c", ResourceID: "r", Expiration: time.Now().Add(time.Hour)}, nil
}
func (stubDrive) StopWatch(ctx context.Context, channelID, resourceID string) error { return nil }

type stubGmail struct{}

func (stubGmail) ListRecent(ctx context.Context, daysBack int) ([]gmail.Message, error) {
	return nil, nil
}
func (stubGmail) FetchMessageText(ctx context.Context, messageID string) (*gmail.Message, string, error) {
	return nil, "", meeting.ErrNotFound
}

type stubSources struct{}

func (stubSources) DriveForAccount(ctx context.Context, account string) (ingest.DriveService, error) {
	return stubDrive{}, nil
}
func (stubSources) GmailForAccount(ctx context.Context, account string) (ingest.GmailService, error) {
	return stubGmail{}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, transcript string) (*meeting.Extraction, error) {
	return &meeting.Extraction{Summary: "short", Tasks: []meeting.ExtractedTask{{Text: "Do it"}}}, nil
}

type stubTasks struct{}

func (stubTasks) EnsureTaskList(ctx context.Context, title string) (*tasks.TaskList, error) {
	return &tasks.TaskList{ID: "list-1", Title: title}, nil
}
func (stubTasks) CreateTask(ctx context.Context, taskListID string, input tasks.TaskInput) (*tasks.Task, error) {
	return &tasks.Task{ID: "rt-1", Title: input.Title, Status: tasks.StatusNeedsAction}, nil
}
func (stubTasks) GetTask(ctx context.Context, taskListID, taskID string) (*tasks.Task, error) {
	return &tasks.Task{ID: taskID, Status: tasks.StatusNeedsAction}, nil
}
func (stubTasks) SetTaskStatus(ctx context.Context, taskListID, taskID string, completed bool) (*tasks.Task, error) {
	status := tasks.StatusNeedsAction
	if completed {
		status = tasks.StatusCompleted
	}
	return &tasks.Task{ID: taskID, Status: status}, nil
}
func (stubTasks) FindTaskByNote(ctx context.Context, taskListID, marker string) (*tasks.Task, error) {
	return nil, nil
}

type stubCalendar struct{}

func (stubCalendar) CreateDeadlineEvent(ctx context.Context, title, description string, due time.Time) (*calendar.EventSummary, error) {
	return &calendar.EventSummary{ID: "ev-1"}, nil
}

type stubClients struct{}

func (stubClients) TasksForAccount(ctx context.Context, account string) (tasksync.TasksService, error) {
	return stubTasks{}, nil
}
func (stubClients) CalendarForAccount(ctx context.Context, account string) (tasksync.CalendarService, error) {
	return stubCalendar{}, nil
}

func newTestServerContext(t *testing.T) (*ServerContext, store.Store) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	coordinator := ingest.NewCoordinator(st, stubSources{}, stubExtractor{}, nil, nil)
	queue := ingest.NewQueue(coordinator, 1, nil)
	queue.Start(context.Background())
	t.Cleanup(queue.Close)

	syncer := tasksync.NewSyncer(st, stubClients{}, nil, nil, nil)

	sc := NewServerContext(context.Background(), st, coordinator, queue, nil, syncer, []string{"default"})
	return sc, st
}

func seedSummary(t *testing.T, st store.Store) meeting.Summary {
	t.Helper()

	sum := meeting.Summary{
		ID:               meeting.SummaryID(meeting.SourceDrive, "file-1"),
		Account:          "default",
		SourceKind:       meeting.SourceDrive,
		SourceArtifactID: "file-1",
		Title:            "Weekly Sync",
		SummaryText:      "Discussed the roadmap.",
		Tasks: []meeting.Task{
			{Text: "Send the report"},
			{Text: "Review the budget"},
		},
	}
	require.NoError(t, st.CreateSummary(context.Background(), sum))
	return sum
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func newAPIMux(sc *ServerContext) *http.ServeMux {
	mux := http.NewServeMux()
	NewDashboardHandler(sc, nil).RegisterRoutes(mux)
	NewWebhookHandler(sc, nil, nil).RegisterRoutes(mux)
	NewHealthChecker(sc).RegisterHealthEndpoints(mux)
	return mux
}

func TestDashboard_ListSummaries(t *testing.T) {
	sc, st := newTestServerContext(t)
	seedSummary(t, st)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
}

func TestDashboard_GetSummaryNotFound(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.False(t, resp.Success)
}

func TestDashboard_ListSummaries_InvalidSource(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries?source=slack", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard_SyncSummary(t *testing.T) {
	sc, st := newTestServerContext(t)
	sum := seedSummary(t, st)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/summaries/"+sum.ID+"/sync", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	// Both tasks pushed to the stub and linked in the store.
	got, err := st.GetSummary(context.Background(), sum.ID)
	require.NoError(t, err)
	for _, task := range got.Tasks {
		require.Equal(t, "rt-1", task.RemoteTaskID)
	}
}

func TestDashboard_UpdateTaskStatus(t *testing.T) {
	sc, st := newTestServerContext(t)
	sum := seedSummary(t, st)
	mux := newAPIMux(sc)

	got, err := st.GetSummary(context.Background(), sum.ID)
	require.NoError(t, err)
	taskID := got.Tasks[0].ID

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/summaries/"+sum.ID+"/tasks/"+taskID+"/status",
		strings.NewReader(`{"completed": true}`))
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	got, err = st.GetSummary(context.Background(), sum.ID)
	require.NoError(t, err)
	require.True(t, got.Tasks[0].Completed)
}

func TestDashboard_TriggerScan(t *testing.T) {
	sc, st := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	// The queued drive scan establishes the watermark.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := st.GetSourceState(context.Background(), "default", meeting.SourceDrive)
		require.NoError(t, err)
		if state.Watermark != "" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("scan job was not processed")
}

func TestDashboard_TriggerScan_UnknownAccount(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan?account=stranger", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard_Notifications(t *testing.T) {
	sc, st := newTestServerContext(t)
	mux := newAPIMux(sc)

	n := meeting.Notification{
		ID:      "n-1",
		Account: "default",
		Kind:    meeting.NotificationSummary,
		Title:   "New meeting summary generated",
	}
	require.NoError(t, st.CreateNotification(context.Background(), n))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/n-1/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	count, err := st.UnreadNotificationCount(context.Background(), "default")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestDashboard_MarkUnknownNotification(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/nope/read", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_SyncHandshakeAcked(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil)
	req.Header.Set("X-Goog-Channel-ID", "chan-1")
	req.Header.Set("X-Goog-Channel-Token", "default")
	req.Header.Set("X-Goog-Resource-ID", "res-1")
	req.Header.Set("X-Goog-Resource-State", "sync")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebhook_ChangeEnqueuesScan(t *testing.T) {
	sc, st := newTestServerContext(t)
	mux := newAPIMux(sc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil)
	req.Header.Set("X-Goog-Channel-ID", "chan-1")
	req.Header.Set("X-Goog-Channel-Token", "default")
	req.Header.Set("X-Goog-Resource-ID", "res-1")
	req.Header.Set("X-Goog-Resource-State", "change")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := st.GetSourceState(context.Background(), "default", meeting.SourceDrive)
		require.NoError(t, err)
		if state.Watermark != "" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("webhook scan was not processed")
}

func TestWebhook_UnknownAccountRejected(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil)
	req.Header.Set("X-Goog-Channel-ID", "chan-1")
	req.Header.Set("X-Goog-Channel-Token", "stranger")
	req.Header.Set("X-Goog-Resource-ID", "res-1")
	req.Header.Set("X-Goog-Resource-State", "change")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_RecordsMetrics(t *testing.T) {
	sc, _ := newTestServerContext(t)

	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mux := http.NewServeMux()
	NewWebhookHandler(sc, provider.Metrics(), nil).RegisterRoutes(mux)

	// Notification recorder must tolerate real instruments on every path.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil)
	req.Header.Set("X-Goog-Channel-ID", "chan-1")
	req.Header.Set("X-Goog-Channel-Token", "default")
	req.Header.Set("X-Goog-Resource-ID", "res-1")
	req.Header.Set("X-Goog-Resource-State", "sync")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_MissingHeadersRejected(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/drive", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth_ReadinessIncludesDatabase(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Checks["database"])
}

func TestHealth_NotReadyAfterShutdown(t *testing.T) {
	sc, _ := newTestServerContext(t)
	mux := newAPIMux(sc)
	require.NoError(t, sc.Shutdown())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
