package server

import (
	"log/slog"
	"net/http"

	"github.com/teemow/meetingmate/internal/drive"
	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/meeting"
)

// WebhookHandler receives Drive push notifications. Google expects a fast
// acknowledgement, so the handler only validates headers and enqueues a scan;
// all real work happens on the queue workers.
type WebhookHandler struct {
	sc      *ServerContext
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. Metrics may be nil.
func NewWebhookHandler(sc *ServerContext, metrics *instrumentation.Metrics, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{sc: sc, metrics: metrics, logger: logger}
}

func (h *WebhookHandler) record(r *http.Request, kind, status string) {
	if h.metrics != nil {
		h.metrics.RecordWebhookNotification(r.Context(), kind, status)
	}
}

// RegisterRoutes registers the webhook endpoint on the given mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/drive", h.handleDrive)
}

func (h *WebhookHandler) handleDrive(w http.ResponseWriter, r *http.Request) {
	notification, err := drive.ParseNotification(r.Header)
	if err != nil {
		h.logger.Warn("rejecting malformed drive notification", logging.Err(err))
		h.record(r, "invalid", "rejected")
		http.Error(w, "bad notification", http.StatusBadRequest)
		return
	}

	kind := "change"
	if notification.IsSync() {
		kind = "sync"
	}

	// The channel token carries the account the watch was registered for.
	account := notification.ChannelToken
	if account == "" || !h.sc.HasAccount(account) {
		h.logger.Warn("drive notification for unknown account",
			logging.Account(account),
			slog.String("channel_id", notification.ChannelID))
		h.record(r, kind, "rejected")
		// 404 tells Google to stop delivering to this channel.
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}

	// The initial handshake message carries no change.
	if notification.IsSync() {
		h.record(r, kind, "accepted")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	status := "accepted"
	if !h.sc.Queue().Enqueue(ingest.Job{
		Account: account,
		Kind:    meeting.SourceDrive,
	}) {
		status = "dropped"
	}
	h.record(r, kind, status)

	w.WriteHeader(http.StatusNoContent)
}
