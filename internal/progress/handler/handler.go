package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rotalog/internal/cache"
	"rotalog/internal/progress/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
	"rotalog/pkg/platform/httputil"
	"rotalog/pkg/requestcontext"
)

// Service defines the progress reads the handler needs. The returned views
// already carry their wire form; handlers encode them as-is.
type Service interface {
	GetInternProgress(ctx context.Context, internID id.InternID) (*models.InternProgress, error)
	GetSupervisorQueue(ctx context.Context, rotationID *id.RotationID) (*models.SupervisorQueue, error)
	ClearCache(ctx context.Context) error
}

// Handler wires progress endpoints to the progress service.
type Handler struct {
	service Service
	logger  *slog.Logger
	stats   func() cache.Stats
}

// Option configures a Handler.
type Option func(*Handler)

// WithCacheStats exposes in-process cache statistics on the admin surface.
// Only the local cache variant has stats; a Redis-backed deployment leaves
// this unset and the endpoint reports not found.
func WithCacheStats(stats func() cache.Stats) Option {
	return func(h *Handler) {
		h.stats = stats
	}
}

// New constructs a progress handler with its dependencies.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the progress read endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/interns/{internID}/progress", h.HandleInternProgress)
	r.Get("/supervisor/queue", h.HandleSupervisorQueue)
}

// RegisterAdmin mounts the cache maintenance endpoints. The caller is
// expected to guard the group with admin-token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/cache/clear", h.HandleClearCache)
	r.Get("/cache/stats", h.HandleCacheStats)
}

// HandleInternProgress handles GET /interns/{internID}/progress requests.
func (h *Handler) HandleInternProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	internID, err := id.ParseInternID(chi.URLParam(r, "internID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.GetInternProgress(ctx, internID)
	if err != nil {
		h.logger.WarnContext(ctx, "progress read failed",
			"request_id", requestcontext.RequestID(ctx),
			"intern_id", internID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleSupervisorQueue handles GET /supervisor/queue requests. An optional
// rotation_id query parameter narrows the queue to one rotation.
func (h *Handler) HandleSupervisorQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rotationID *id.RotationID
	if raw := r.URL.Query().Get("rotation_id"); raw != "" {
		parsed, err := id.ParseRotationID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rotationID = &parsed
	}

	queue, err := h.service.GetSupervisorQueue(ctx, rotationID)
	if err != nil {
		h.logger.WarnContext(ctx, "queue read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, queue)
}

// HandleClearCache handles POST /admin/cache/clear requests.
func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.ClearCache(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "cache cleared",
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleCacheStats handles GET /admin/cache/stats requests.
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "cache statistics are not available"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.stats())
}
