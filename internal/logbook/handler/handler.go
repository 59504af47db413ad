package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/logbook/service"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/httputil"
	"rotalog/pkg/requestcontext"
)

// Service defines the logbook operations the handler needs.
type Service interface {
	SubmitLog(ctx context.Context, req service.SubmitLogRequest) (*logmodels.LogEntry, error)
	GetLog(ctx context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error)
	ListLogs(ctx context.Context, internID id.InternID) ([]logmodels.LogRow, error)
}

// Invalidator drops memoized progress views when a submission changes the
// pending counts beneath them.
type Invalidator interface {
	Invalidate(ctx context.Context, internID id.InternID) error
}

// Handler wires logbook endpoints to the logbook service.
type Handler struct {
	service     Service
	invalidator Invalidator
	logger      *slog.Logger
}

// New constructs a logbook handler with its dependencies.
func New(service Service, invalidator Invalidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Register mounts logbook endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/logs", h.HandleSubmit)
	r.Get("/logs/{logEntryID}", h.HandleGet)
	r.Get("/interns/{internID}/logs", h.HandleList)
}

// HandleSubmit handles POST /logs requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitLogRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	domainReq, err := req.ToDomain()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.SubmitLog(ctx, domainReq)
	if err != nil {
		h.logger.WarnContext(ctx, "log submission rejected",
			"request_id", requestID,
			"intern_id", req.InternID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.invalidator.Invalidate(ctx, entry.InternID); err != nil {
		h.logger.ErrorContext(ctx, "progress invalidation failed",
			"request_id", requestID,
			"intern_id", entry.InternID,
			"error", err,
		)
	}

	h.logger.InfoContext(ctx, "log submitted",
		"request_id", requestID,
		"log_entry_id", entry.ID,
		"intern_id", entry.InternID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromLogEntry(entry))
}

// HandleGet handles GET /logs/{logEntryID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entryID, err := id.ParseLogEntryID(chi.URLParam(r, "logEntryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.GetLog(r.Context(), entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLogEntry(entry))
}

// HandleList handles GET /interns/{internID}/logs requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	internID, err := id.ParseInternID(chi.URLParam(r, "internID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.service.ListLogs(r.Context(), internID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromLogRows(rows))
}
