// Package service implements the verification decision flow. A decision is an
// at-most-once transition out of PENDING; everything else in this package
// exists to guard, record, and report that single write.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	logmodels "rotalog/internal/logbook/models"
	vmetrics "rotalog/internal/verification/metrics"
	"rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
	audit "rotalog/pkg/platform/audit"
	"rotalog/pkg/platform/sentinel"
	"rotalog/pkg/requestcontext"
)

var tracer = otel.Tracer("rotalog/internal/verification")

type VerificationStore interface {
	FindByLogEntry(ctx context.Context, logEntryID id.LogEntryID) (*models.Verification, error)
	ApplyTransition(ctx context.Context, logEntryID id.LogEntryID, next models.Status, verifierID id.VerifierID, reason string, decidedAt time.Time) (*models.Verification, error)
}

type LogReader interface {
	FindByID(ctx context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates verification decisions.
type Service struct {
	verifications  VerificationStore
	logs           LogReader
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *vmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(verifications VerificationStore, logs LogReader, opts ...Option) *Service {
	s := &Service{verifications: verifications, logs: logs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide applies a reviewer decision to the verification of a log entry.
//
// All preconditions are checked before any write: the actor must hold the
// reviewer capability, the target status must be a decision state, and a
// rejection must carry a reason. The store transition itself is a
// compare-and-swap on PENDING, so when two reviewers race exactly one wins
// and the loser gets CodeAlreadyReviewed.
func (s *Service) Decide(ctx context.Context, logEntryID id.LogEntryID, decision models.Status, reason string) (*models.TransitionResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "verification.decide", trace.WithAttributes(
		attribute.String("log_entry_id", logEntryID.String()),
		attribute.String("decision", string(decision)),
	))
	defer span.End()

	actor := requestcontext.ActorID(ctx)
	if actor.IsZero() || !requestcontext.MayReview(ctx) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "reviewer capability required")
	}
	if logEntryID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "log entry id is required")
	}
	if !decision.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown verification status")
	}
	if !decision.Decided() {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "PENDING is not a decision")
	}
	reason = strings.TrimSpace(reason)
	if decision == models.StatusRejected && reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "a reason is required to reject")
	}

	entry, err := s.logs.FindByID(ctx, logEntryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "log entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load log entry")
	}

	verification, err := s.verifications.ApplyTransition(ctx, logEntryID, decision, actor, reason, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.metrics.IncrementConflict()
			return nil, dErrors.New(dErrors.CodeAlreadyReviewed, "log entry has already been reviewed")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification exists for this log entry")
		default:
			span.RecordError(err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply decision")
		}
	}

	s.emitDecision(ctx, entry, verification)
	s.metrics.IncrementDecision(string(verification.Status))
	s.metrics.ObserveDecide(start)

	return &models.TransitionResult{
		PreviousStatus: models.StatusPending,
		NewStatus:      verification.Status,
		LogEntryID:     logEntryID,
		InternID:       entry.InternID,
		ProcedureID:    entry.ProcedureID,
	}, nil
}

// GetByLogEntry returns the verification record for a log entry.
func (s *Service) GetByLogEntry(ctx context.Context, logEntryID id.LogEntryID) (*models.Verification, error) {
	if logEntryID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "log entry id is required")
	}
	verification, err := s.verifications.FindByLogEntry(ctx, logEntryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification exists for this log entry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return verification, nil
}

func (s *Service) emitDecision(ctx context.Context, entry *logmodels.LogEntry, verification *models.Verification) {
	action := decisionEvent(verification.Status)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"log_entry_id", entry.ID,
			"intern_id", entry.InternID,
			"status", verification.Status,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:   requestcontext.ActorID(ctx).String(),
		InternID:  entry.InternID,
		Action:    string(action),
		Entity:    "LogEntry",
		EntityID:  entry.ID.String(),
		Reason:    verification.Reason,
		Detail:    string(models.StatusPending) + " -> " + string(verification.Status),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}

func decisionEvent(status models.Status) audit.AuditEvent {
	switch status {
	case models.StatusApproved:
		return audit.EventVerificationApproved
	case models.StatusRejected:
		return audit.EventVerificationRejected
	default:
		return audit.EventVerificationNeedsRevision
	}
}
