// Package ports defines the collaborator interfaces of the progress module.
// Progress is a pure read model; these ports are its only view of the rest of
// the system.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	logmodels "rotalog/internal/logbook/models"
	id "rotalog/pkg/domain"
	audit "rotalog/pkg/platform/audit"
)

// RequirementSource loads the requirement catalogue the aggregator folds logs
// against.
type RequirementSource interface {
	LoadRequirementSnapshot(ctx context.Context) (*logmodels.RequirementSnapshot, error)
}

// LogSource reads log entries joined with their verification status.
type LogSource interface {
	ListByIntern(ctx context.Context, internID id.InternID) ([]logmodels.LogRow, error)
	ListPending(ctx context.Context, rotationID *id.RotationID) ([]logmodels.PendingRow, error)
}

// AuditPublisher records administrative actions such as cache clears.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
