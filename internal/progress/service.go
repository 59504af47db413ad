package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"rotalog/internal/cache"
	logmodels "rotalog/internal/logbook/models"
	pmetrics "rotalog/internal/progress/metrics"
	"rotalog/internal/progress/models"
	"rotalog/internal/progress/ports"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
	audit "rotalog/pkg/platform/audit"
	"rotalog/pkg/requestcontext"
)

var tracer = otel.Tracer("rotalog/internal/progress")

const (
	viewProgress = "progress"
	viewQueue    = "queue"

	defaultViewTTL = 2 * time.Minute
)

// Service is the caching facade over the progress aggregation. Reads are
// memoized in a key-value store and deduplicated with single-flight so a
// cold key triggers exactly one computation regardless of concurrent
// readers. The cache is an optimization only: every cache failure is
// swallowed, logged, and served from source.
type Service struct {
	requirements   ports.RequirementSource
	logs           ports.LogSource
	cache          cache.KeyValueStore
	ttl            time.Duration
	group          singleflight.Group
	logger         *slog.Logger
	metrics        *pmetrics.Metrics
	auditPublisher ports.AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *pmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithViewTTL overrides how long memoized views stay fresh.
func WithViewTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New constructs the progress facade over the given sources and cache.
func New(requirements ports.RequirementSource, logs ports.LogSource, kv cache.KeyValueStore, opts ...Option) *Service {
	s := &Service{
		requirements: requirements,
		logs:         logs,
		cache:        kv,
		ttl:          defaultViewTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetInternProgress returns the per-rotation progress view for one trainee.
func (s *Service) GetInternProgress(ctx context.Context, internID id.InternID) (*models.InternProgress, error) {
	ctx, span := tracer.Start(ctx, "progress.get_intern_progress", trace.WithAttributes(
		attribute.String("intern_id", internID.String()),
	))
	defer span.End()

	if internID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "intern id is required")
	}

	key := progressKey(internID)
	var cached models.InternProgress
	if s.readView(ctx, key, &cached) {
		s.metrics.IncrementCacheHit(viewProgress)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}
	s.metrics.IncrementCacheMiss(viewProgress)

	v, err := s.inflight(ctx, key, func(ctx context.Context) (any, error) {
		start := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		var snapshot *logmodels.RequirementSnapshot
		var rows []logmodels.LogRow
		g.Go(func() error {
			var err error
			snapshot, err = s.requirements.LoadRequirementSnapshot(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			rows, err = s.logs.ListByIntern(gctx, internID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		view := &models.InternProgress{
			InternID:    internID,
			Rotations:   BuildInternProgress(snapshot, rows),
			GeneratedAt: requestcontext.Now(ctx),
		}
		s.metrics.ObserveCompute(start)
		s.writeView(ctx, key, view)
		return view, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapLoadError(err)
	}
	return v.(*models.InternProgress), nil
}

// GetSupervisorQueue returns the pending review queue, optionally filtered to
// a rotation.
func (s *Service) GetSupervisorQueue(ctx context.Context, rotationID *id.RotationID) (*models.SupervisorQueue, error) {
	ctx, span := tracer.Start(ctx, "progress.get_supervisor_queue")
	defer span.End()

	key := queueKey(rotationID)
	var cached models.SupervisorQueue
	if s.readView(ctx, key, &cached) {
		s.metrics.IncrementCacheHit(viewQueue)
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}
	s.metrics.IncrementCacheMiss(viewQueue)

	v, err := s.inflight(ctx, key, func(ctx context.Context) (any, error) {
		start := time.Now()
		rows, err := s.logs.ListPending(ctx, rotationID)
		if err != nil {
			return nil, err
		}
		queue := BuildSupervisorQueue(rows)
		s.metrics.ObserveCompute(start)
		s.writeView(ctx, key, &queue)
		return &queue, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapLoadError(err)
	}
	return v.(*models.SupervisorQueue), nil
}

// Invalidate drops the trainee's progress view and every memoized queue view.
// Called after any write that changes verification state under the views.
func (s *Service) Invalidate(ctx context.Context, internID id.InternID) error {
	err := errors.Join(
		s.cache.Delete(ctx, progressKey(internID)),
		s.cache.DeleteByPrefix(ctx, viewQueue+":"),
	)
	if err != nil {
		s.metrics.IncrementCacheError()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cache invalidation failed")
	}
	return nil
}

// ClearCache drops every memoized view. Admin-only escape hatch.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		s.metrics.IncrementCacheError()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "cache clear failed")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.EventCacheCleared),
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher != nil {
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			ActorID:   requestcontext.ActorID(ctx).String(),
			Action:    string(audit.EventCacheCleared),
			Entity:    "Cache",
			RequestID: requestcontext.RequestID(ctx),
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
		}); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "audit emit failed", "action", audit.EventCacheCleared, "error", err)
		}
	}
	return nil
}

// inflight runs compute under single-flight on key. The computation is
// detached from the caller's cancellation so one impatient caller cannot
// poison the result shared with the others; the select below still honors
// the caller's own deadline.
func (s *Service) inflight(ctx context.Context, key string, compute func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return compute(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// readView loads and decodes a memoized view. Any cache failure counts as a
// miss.
func (s *Service) readView(ctx context.Context, key string, out any) bool {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.IncrementCacheError()
		if s.logger != nil {
			s.logger.WarnContext(ctx, "cache read failed, serving from source", "key", key, "error", err)
		}
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "cache payload corrupt, dropping", "key", key, "error", err)
		}
		_ = s.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (s *Service) writeView(ctx context.Context, key string, view any) {
	payload, err := json.Marshal(view)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "view marshal failed", "key", key, "error", err)
		}
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.metrics.IncrementCacheError()
		if s.logger != nil {
			s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}
}

func mapLoadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "progress computation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute progress")
}

func progressKey(internID id.InternID) string {
	return viewProgress + ":" + internID.String()
}

// queueKey hashes the filter parameters so every distinct queue scope gets
// its own cache entry under the shared "queue:" prefix.
func queueKey(rotationID *id.RotationID) string {
	h := fnv.New64a()
	if rotationID == nil {
		h.Write([]byte("all"))
	} else {
		h.Write([]byte(rotationID.String()))
	}
	return fmt.Sprintf("%s:%016x", viewQueue, h.Sum64())
}
