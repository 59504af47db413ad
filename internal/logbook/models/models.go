// Package models defines the logbook domain types: rotations, procedures,
// requirements, and the trainee's log entries.
package models

import (
	"strings"
	"time"

	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
)

// Intern is the trainee identity as known to the roster. Managed externally;
// read-only here.
type Intern struct {
	ID            id.InternID
	Name          string
	TrainingLevel string
}

// Rotation is a clinical training block (e.g. ICU) containing procedures with
// requirements.
type Rotation struct {
	ID   id.RotationID
	Name string
}

// Procedure is a clinical skill trainees log instances of performing. A
// procedure belongs to exactly one rotation and is immutable once a log
// references it.
type Procedure struct {
	ID         id.ProcedureID
	RotationID id.RotationID
	Name       string
}

// Requirement is the minimum count of a procedure needed within a rotation.
// Unique per (rotation, procedure). Administered externally; read-only here.
type Requirement struct {
	RotationID    id.RotationID
	ProcedureID   id.ProcedureID
	MinCount      int
	TrainingLevel string
}

// LogEntry is a trainee's record of having performed a procedure Count times
// on Date. Exactly one verification record exists per log entry, created
// atomically with it.
type LogEntry struct {
	ID          id.LogEntryID
	InternID    id.InternID
	ProcedureID id.ProcedureID
	Date        time.Time
	Count       int
	Notes       string
	CreatedAt   time.Time
}

// maxLogCount caps a single entry; bigger submissions are almost certainly
// input mistakes.
const maxLogCount = 500

// NewLogEntry validates and constructs a LogEntry. All field violations are
// reported together so the API can render them in one response.
func NewLogEntry(entryID id.LogEntryID, internID id.InternID, procedureID id.ProcedureID, date time.Time, count int, notes string, now time.Time) (*LogEntry, error) {
	var fieldErrors []string
	if internID.IsZero() {
		fieldErrors = append(fieldErrors, "intern id is required")
	}
	if procedureID.IsZero() {
		fieldErrors = append(fieldErrors, "procedure id is required")
	}
	if date.IsZero() {
		fieldErrors = append(fieldErrors, "date is required")
	}
	if date.After(now.Add(24 * time.Hour)) {
		fieldErrors = append(fieldErrors, "date must not be in the future")
	}
	if count <= 0 {
		fieldErrors = append(fieldErrors, "count must be a positive integer")
	}
	if count > maxLogCount {
		fieldErrors = append(fieldErrors, "count exceeds the per-entry maximum")
	}
	if len(fieldErrors) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, strings.Join(fieldErrors, "; "))
	}

	return &LogEntry{
		ID:          entryID,
		InternID:    internID,
		ProcedureID: procedureID,
		Date:        date,
		Count:       count,
		Notes:       strings.TrimSpace(notes),
		CreatedAt:   now,
	}, nil
}

// RequirementSnapshot is the requirement catalogue as one consistent read.
type RequirementSnapshot struct {
	Rotations    []Rotation
	Procedures   []Procedure
	Requirements []Requirement
}

// LogRow is a log entry joined with its verification status, the shape the
// progress aggregator consumes.
type LogRow struct {
	ID          id.LogEntryID
	InternID    id.InternID
	ProcedureID id.ProcedureID
	Date        time.Time
	Count       int
	CreatedAt   time.Time
	Status      vmodels.Status
}

// PendingRow is a LogRow enriched with display fields for the supervisor
// queue.
type PendingRow struct {
	LogRow
	InternName    string
	ProcedureName string
	RotationID    id.RotationID
}
