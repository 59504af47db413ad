// Package storage provides the in-memory database used for local development
// and tests. One Memory instance backs the logbook and verification store
// interfaces so cross-entity operations stay atomic under a single lock. It
// intentionally favors clarity over performance.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	logmodels "rotalog/internal/logbook/models"
	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/sentinel"
)

type Memory struct {
	mu            sync.RWMutex
	rotations     map[id.RotationID]logmodels.Rotation
	procedures    map[id.ProcedureID]logmodels.Procedure
	requirements  []logmodels.Requirement
	interns       map[id.InternID]logmodels.Intern
	logs          map[id.LogEntryID]logmodels.LogEntry
	logOrder      []id.LogEntryID
	verifications map[id.LogEntryID]vmodels.Verification
}

func NewMemory() *Memory {
	return &Memory{
		rotations:     make(map[id.RotationID]logmodels.Rotation),
		procedures:    make(map[id.ProcedureID]logmodels.Procedure),
		interns:       make(map[id.InternID]logmodels.Intern),
		logs:          make(map[id.LogEntryID]logmodels.LogEntry),
		verifications: make(map[id.LogEntryID]vmodels.Verification),
	}
}

// Seed helpers load the externally administered catalogue and roster.

func (m *Memory) SeedRotation(rotation logmodels.Rotation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotations[rotation.ID] = rotation
}

func (m *Memory) SeedProcedure(procedure logmodels.Procedure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procedures[procedure.ID] = procedure
}

func (m *Memory) SeedRequirement(requirement logmodels.Requirement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requirements = append(m.requirements, requirement)
}

func (m *Memory) SeedIntern(intern logmodels.Intern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interns[intern.ID] = intern
}

func (m *Memory) Create(_ context.Context, entry *logmodels.LogEntry, verification *vmodels.Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.logs[entry.ID]; exists {
		return sentinel.ErrConflict
	}
	m.logs[entry.ID] = *entry
	m.logOrder = append(m.logOrder, entry.ID)
	m.verifications[entry.ID] = *verification
	return nil
}

func (m *Memory) FindByID(_ context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.logs[entryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &entry, nil
}

func (m *Memory) ListByIntern(_ context.Context, internID id.InternID) ([]logmodels.LogRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := []logmodels.LogRow{}
	for _, entryID := range m.logOrder {
		entry := m.logs[entryID]
		if entry.InternID != internID {
			continue
		}
		rows = append(rows, m.rowLocked(entry))
	}
	return rows, nil
}

func (m *Memory) ListPending(_ context.Context, rotationID *id.RotationID) ([]logmodels.PendingRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := []logmodels.PendingRow{}
	for _, entryID := range m.logOrder {
		entry := m.logs[entryID]
		verification, ok := m.verifications[entryID]
		if !ok || !verification.Status.Unresolved() {
			continue
		}
		procedure := m.procedures[entry.ProcedureID]
		if rotationID != nil && procedure.RotationID != *rotationID {
			continue
		}
		rows = append(rows, logmodels.PendingRow{
			LogRow:        m.rowLocked(entry),
			InternName:    m.interns[entry.InternID].Name,
			ProcedureName: procedure.Name,
			RotationID:    procedure.RotationID,
		})
	}
	// logOrder is insertion order; make the oldest-first contract explicit.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}

func (m *Memory) rowLocked(entry logmodels.LogEntry) logmodels.LogRow {
	return logmodels.LogRow{
		ID:          entry.ID,
		InternID:    entry.InternID,
		ProcedureID: entry.ProcedureID,
		Date:        entry.Date,
		Count:       entry.Count,
		CreatedAt:   entry.CreatedAt,
		Status:      m.verifications[entry.ID].Status,
	}
}

func (m *Memory) LoadRequirementSnapshot(_ context.Context) (*logmodels.RequirementSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := &logmodels.RequirementSnapshot{
		Requirements: append([]logmodels.Requirement{}, m.requirements...),
	}
	for _, rotation := range m.rotations {
		snapshot.Rotations = append(snapshot.Rotations, rotation)
	}
	for _, procedure := range m.procedures {
		snapshot.Procedures = append(snapshot.Procedures, procedure)
	}
	sort.Slice(snapshot.Rotations, func(i, j int) bool {
		return snapshot.Rotations[i].Name < snapshot.Rotations[j].Name
	})
	sort.Slice(snapshot.Procedures, func(i, j int) bool {
		return snapshot.Procedures[i].Name < snapshot.Procedures[j].Name
	})
	return snapshot, nil
}

func (m *Memory) FindProcedure(_ context.Context, procedureID id.ProcedureID) (*logmodels.Procedure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	procedure, ok := m.procedures[procedureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &procedure, nil
}

func (m *Memory) FindByLogEntry(_ context.Context, logEntryID id.LogEntryID) (*vmodels.Verification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	verification, ok := m.verifications[logEntryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &verification, nil
}

// ApplyTransition is the compare-and-swap on PENDING. The write lock spans
// the check and the update, which is what makes concurrent decisions lose
// with sentinel.ErrConflict instead of double-applying.
func (m *Memory) ApplyTransition(_ context.Context, logEntryID id.LogEntryID, next vmodels.Status, verifierID id.VerifierID, reason string, decidedAt time.Time) (*vmodels.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	verification, ok := m.verifications[logEntryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if verification.Status != vmodels.StatusPending {
		return nil, sentinel.ErrConflict
	}
	verification.Status = next
	verification.VerifierID = &verifierID
	verification.Reason = reason
	verification.Timestamp = decidedAt
	m.verifications[logEntryID] = verification
	return &verification, nil
}
