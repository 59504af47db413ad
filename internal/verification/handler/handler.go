package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/httputil"
	"rotalog/pkg/requestcontext"
)

// Service defines the verification operations the handler needs.
type Service interface {
	Decide(ctx context.Context, logEntryID id.LogEntryID, decision models.Status, reason string) (*models.TransitionResult, error)
	GetByLogEntry(ctx context.Context, logEntryID id.LogEntryID) (*models.Verification, error)
}

// Invalidator drops memoized progress views after a decision changes the
// underlying data. Invalidation failures are logged, never surfaced; the
// views self-heal when their TTL lapses.
type Invalidator interface {
	Invalidate(ctx context.Context, internID id.InternID) error
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service     Service
	invalidator Invalidator
	logger      *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, invalidator Invalidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications/{logEntryID}/decision", h.HandleDecide)
	r.Get("/verifications/{logEntryID}", h.HandleGet)
}

// HandleDecide handles POST /verifications/{logEntryID}/decision requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	logEntryID, err := id.ParseLogEntryID(chi.URLParam(r, "logEntryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Decide(ctx, logEntryID, models.Status(req.Status), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "decision rejected",
			"request_id", requestID,
			"log_entry_id", logEntryID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.invalidator.Invalidate(ctx, result.InternID); err != nil {
		h.logger.ErrorContext(ctx, "progress invalidation failed",
			"request_id", requestID,
			"intern_id", result.InternID,
			"error", err,
		)
	}

	h.logger.InfoContext(ctx, "verification decided",
		"request_id", requestID,
		"log_entry_id", logEntryID,
		"status", result.NewStatus,
	)
	httputil.WriteJSON(w, http.StatusOK, FromTransitionResult(result))
}

// HandleGet handles GET /verifications/{logEntryID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	logEntryID, err := id.ParseLogEntryID(chi.URLParam(r, "logEntryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verification, err := h.service.GetByLogEntry(r.Context(), logEntryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVerification(verification))
}
