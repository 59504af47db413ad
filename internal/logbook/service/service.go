// Package service implements log submission. Every accepted log entry starts
// life with a PENDING verification, written in the same atomic step.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/platform/metrics"
	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
	audit "rotalog/pkg/platform/audit"
	"rotalog/pkg/platform/sentinel"
	"rotalog/pkg/requestcontext"
)

type LogStore interface {
	Create(ctx context.Context, entry *logmodels.LogEntry, verification *vmodels.Verification) error
	FindByID(ctx context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error)
	ListByIntern(ctx context.Context, internID id.InternID) ([]logmodels.LogRow, error)
}

type Catalog interface {
	FindProcedure(ctx context.Context, procedureID id.ProcedureID) (*logmodels.Procedure, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SubmitLogRequest carries the trainee submission.
type SubmitLogRequest struct {
	InternID    id.InternID
	ProcedureID id.ProcedureID
	Date        time.Time
	Count       int
	Notes       string
}

// Service orchestrates log submission and retrieval.
type Service struct {
	logs           LogStore
	catalog        Catalog
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(logs LogStore, catalog Catalog, opts ...Option) *Service {
	s := &Service{logs: logs, catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitLog validates and persists a new log entry together with its PENDING
// verification.
func (s *Service) SubmitLog(ctx context.Context, req SubmitLogRequest) (*logmodels.LogEntry, error) {
	now := requestcontext.Now(ctx)

	entry, err := logmodels.NewLogEntry(id.NewLogEntryID(), req.InternID, req.ProcedureID, req.Date, req.Count, req.Notes, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.FindProcedure(ctx, req.ProcedureID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "procedure not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load procedure")
	}

	verification := vmodels.NewPending(id.NewVerificationID(), entry.ID, now)
	if err := s.logs.Create(ctx, entry, verification); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store log entry")
	}

	s.emitSubmitted(ctx, entry)
	s.metrics.IncrementLogsSubmitted()
	return entry, nil
}

// GetLog returns a single log entry.
func (s *Service) GetLog(ctx context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error) {
	if entryID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "log entry id is required")
	}
	entry, err := s.logs.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "log entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load log entry")
	}
	return entry, nil
}

// ListLogs returns a trainee's log entries with their verification status,
// oldest first.
func (s *Service) ListLogs(ctx context.Context, internID id.InternID) ([]logmodels.LogRow, error) {
	if internID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "intern id is required")
	}
	rows, err := s.logs.ListByIntern(ctx, internID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list log entries")
	}
	return rows, nil
}

func (s *Service) emitSubmitted(ctx context.Context, entry *logmodels.LogEntry) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.EventLogSubmitted),
			"log_entry_id", entry.ID,
			"intern_id", entry.InternID,
			"procedure_id", entry.ProcedureID,
			"count", entry.Count,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:   entry.InternID.String(),
		InternID:  entry.InternID,
		Action:    string(audit.EventLogSubmitted),
		Entity:    "LogEntry",
		EntityID:  entry.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", audit.EventLogSubmitted, "error", err)
	}
}
