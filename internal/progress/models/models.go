// Package models defines the derived progress views and the read-model rows
// they are computed from. Nothing here is stored; views are recomputed on
// demand and memoized by the progress cache facade.
package models

import (
	"time"

	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
)

// RotationState classifies a trainee's standing in a rotation. Derived, never
// stored.
type RotationState string

const (
	RotationNotStarted RotationState = "NOT_STARTED"
	RotationActive     RotationState = "ACTIVE"
	RotationFinished   RotationState = "FINISHED"
)

// ProcedureState classifies a single procedure for pending/completed lists.
type ProcedureState string

const (
	ProcedureNotStarted ProcedureState = "NOT_STARTED"
	ProcedurePending    ProcedureState = "PENDING"
	ProcedureCompleted  ProcedureState = "COMPLETED"
)

// ProcedureProgress is the per-procedure completion line within a rotation.
type ProcedureProgress struct {
	ProcedureID   id.ProcedureID `json:"procedure_id"`
	Name          string         `json:"name"`
	MinCount      int            `json:"min_count"`
	ApprovedCount int            `json:"approved_count"`
	// PendingCount stays visible even for completed procedures so reviewer
	// queues can surface outstanding items.
	PendingCount int            `json:"pending_count"`
	State        ProcedureState `json:"state"`
}

// RotationProgress is the per-rotation completion view for one trainee.
// Verified carries the raw approved total; CompletionPercentage is clamped to
// [0, 100] for display even when over-logging pushes verified past required.
type RotationProgress struct {
	RotationID           id.RotationID       `json:"rotation_id"`
	RotationName         string              `json:"rotation_name"`
	Required             int                 `json:"required"`
	Verified             int                 `json:"verified"`
	Pending              int                 `json:"pending"`
	CompletionPercentage int                 `json:"completion_percentage"`
	State                RotationState       `json:"state"`
	Procedures           []ProcedureProgress `json:"procedures"`
}

// PendingItem is one log awaiting decision in the supervisor queue.
type PendingItem struct {
	LogEntryID    id.LogEntryID  `json:"log_entry_id"`
	ProcedureID   id.ProcedureID `json:"procedure_id"`
	ProcedureName string         `json:"procedure_name"`
	RotationID    id.RotationID  `json:"rotation_id"`
	Count         int            `json:"count"`
	Status        vmodels.Status `json:"status"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

// InternQueue groups a trainee's pending items, oldest first.
type InternQueue struct {
	InternID   id.InternID   `json:"intern_id"`
	InternName string        `json:"intern_name"`
	Items      []PendingItem `json:"items"`
}

// SupervisorQueue is the cross-trainee review queue, grouped by trainee and
// sorted by trainee name.
type SupervisorQueue struct {
	Groups                    []InternQueue `json:"groups"`
	TotalPendingVerifications int           `json:"total_pending_verifications"`
}

// InternProgress is the complete progress view for one trainee. This is the
// unit of caching: the whole view is memoized and invalidated together.
type InternProgress struct {
	InternID    id.InternID        `json:"intern_id"`
	Rotations   []RotationProgress `json:"rotations"`
	GeneratedAt time.Time          `json:"generated_at"`
}
