package store

import (
	"context"

	"rotalog/internal/logbook/models"
	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
)

// LogStore persists trainee log entries. Create writes the entry and its
// PENDING verification in one atomic step so no log is ever observable
// without a verification record.
type LogStore interface {
	Create(ctx context.Context, entry *models.LogEntry, verification *vmodels.Verification) error
	FindByID(ctx context.Context, entryID id.LogEntryID) (*models.LogEntry, error)
	ListByIntern(ctx context.Context, internID id.InternID) ([]models.LogRow, error)
	// ListPending returns unresolved rows (PENDING and NEEDS_REVISION)
	// oldest-first. A nil rotationID means all rotations.
	ListPending(ctx context.Context, rotationID *id.RotationID) ([]models.PendingRow, error)
}

// Catalog reads the requirement catalogue and roster, both administered
// outside this service.
type Catalog interface {
	LoadRequirementSnapshot(ctx context.Context) (*models.RequirementSnapshot, error)
	FindProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
}
