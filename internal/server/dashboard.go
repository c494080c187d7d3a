package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
	"github.com/teemow/meetingmate/internal/store"
)

const defaultListLimit = 50

// apiResponse is the envelope every dashboard endpoint responds with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// DashboardHandler serves the JSON API the dashboard frontend consumes:
// summaries, task toggling, scan and sync triggers, and notifications.
type DashboardHandler struct {
	sc     *ServerContext
	logger *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(sc *ServerContext, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{sc: sc, logger: logger}
}

// RegisterRoutes registers the dashboard API endpoints on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/summaries", h.listSummaries)
	mux.HandleFunc("GET /api/summaries/{id}", h.getSummary)
	mux.HandleFunc("POST /api/summaries/{id}/sync", h.syncSummary)
	mux.HandleFunc("POST /api/summaries/{id}/refresh", h.refreshSummary)
	mux.HandleFunc("POST /api/summaries/{id}/tasks/{taskID}/status", h.updateTaskStatus)
	mux.HandleFunc("POST /api/scan", h.triggerScan)
	mux.HandleFunc("POST /api/sync", h.syncAll)
	mux.HandleFunc("GET /api/notifications", h.listNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", h.markNotificationRead)
	mux.HandleFunc("GET /api/notifications/unread-count", h.unreadCount)
}

func (h *DashboardHandler) account(r *http.Request) string {
	if account := r.URL.Query().Get("account"); account != "" {
		return account
	}
	return "default"
}

func (h *DashboardHandler) listSummaries(w http.ResponseWriter, r *http.Request) {
	account := h.account(r)

	filter := store.SummaryFilter{Limit: defaultListLimit}
	if kind := r.URL.Query().Get("source"); kind != "" {
		sk := meeting.SourceKind(kind)
		if !sk.Valid() {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid source %q", kind))
			return
		}
		filter.SourceKind = &sk
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		filter.Limit = limit
	}

	summaries, err := h.sc.Store().ListSummaries(r.Context(), account, filter)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeData(w, summaries)
}

func (h *DashboardHandler) getSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.sc.Store().GetSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeData(w, sum)
}

func (h *DashboardHandler) syncSummary(w http.ResponseWriter, r *http.Request) {
	account := h.account(r)
	result, err := h.sc.Syncer().SyncSummary(r.Context(), account, r.PathValue("id"))
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeResult(w, result)
}

func (h *DashboardHandler) refreshSummary(w http.ResponseWriter, r *http.Request) {
	account := h.account(r)
	result, err := h.sc.Syncer().Refresh(r.Context(), account, r.PathValue("id"))
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeResult(w, result)
}

type taskStatusRequest struct {
	Completed bool `json:"completed"`
}

type taskStatusResponse struct {
	Task   *meeting.Task       `json:"task"`
	Result *meeting.SyncResult `json:"result"`
}

func (h *DashboardHandler) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	task, result, err := h.sc.Syncer().UpdateTaskStatus(r.Context(),
		h.account(r), r.PathValue("id"), r.PathValue("taskID"), req.Completed)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeData(w, taskStatusResponse{Task: task, Result: result})
}

type scanRequest struct {
	Source string `json:"source,omitempty"`
}

func (h *DashboardHandler) triggerScan(w http.ResponseWriter, r *http.Request) {
	account := h.account(r)
	if !h.sc.HasAccount(account) {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("unknown account %q", account))
		return
	}

	var req scanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	kinds := []meeting.SourceKind{meeting.SourceDrive, meeting.SourceGmail}
	if req.Source != "" {
		kind := meeting.SourceKind(req.Source)
		if !kind.Valid() {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid source %q", req.Source))
			return
		}
		kinds = []meeting.SourceKind{kind}
	}

	for _, kind := range kinds {
		h.sc.Queue().Enqueue(ingest.Job{Account: account, Kind: kind})
	}

	h.writeJSON(w, http.StatusAccepted, apiResponse{
		Success: true,
		Message: "scan queued",
	})
}

func (h *DashboardHandler) syncAll(w http.ResponseWriter, r *http.Request) {
	account := h.account(r)
	result, err := h.sc.Syncer().SyncAll(r.Context(), account, 0)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeResult(w, result)
}

func (h *DashboardHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.sc.Store().ListNotifications(r.Context(), h.account(r), defaultListLimit)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeData(w, notifications)
}

func (h *DashboardHandler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.sc.Store().MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "notification acknowledged"})
}

func (h *DashboardHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.sc.Store().UnreadNotificationCount(r.Context(), h.account(r))
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}
	h.writeData(w, map[string]int{"unread": count})
}

// writeResult writes a sync result. A result with collected per-task errors
// is still a success at the HTTP level; the caller inspects the counts.
func (h *DashboardHandler) writeResult(w http.ResponseWriter, result *meeting.SyncResult) {
	resp := apiResponse{Success: true, Data: result}
	if len(result.Errors) > 0 {
		resp.Message = fmt.Sprintf("completed with %d errors", len(result.Errors))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *DashboardHandler) writeData(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if errors.Is(err, meeting.ErrAuthRequired) {
		msg = "authorization expired, run 'meetingmate auth' to reconnect the account"
	}
	h.writeJSON(w, status, apiResponse{Success: false, Message: msg})
}

func (h *DashboardHandler) writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", logging.Err(err))
	}
}

// statusForError maps the domain error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, meeting.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, meeting.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, meeting.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
