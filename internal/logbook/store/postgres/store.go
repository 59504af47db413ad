// Package postgres persists log entries and serves the joined read queries
// the progress views are built from.
//
// Schema:
//
//	CREATE TABLE rotations (
//	    id   UUID PRIMARY KEY,
//	    name TEXT NOT NULL
//	);
//
//	CREATE TABLE procedures (
//	    id          UUID PRIMARY KEY,
//	    rotation_id UUID NOT NULL REFERENCES rotations (id),
//	    name        TEXT NOT NULL
//	);
//
//	CREATE TABLE requirements (
//	    rotation_id    UUID NOT NULL REFERENCES rotations (id),
//	    procedure_id   UUID NOT NULL REFERENCES procedures (id),
//	    min_count      INT NOT NULL,
//	    training_level TEXT NOT NULL DEFAULT '',
//	    PRIMARY KEY (rotation_id, procedure_id)
//	);
//
//	CREATE TABLE interns (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    training_level TEXT NOT NULL DEFAULT ''
//	);
//
//	CREATE TABLE log_entries (
//	    id           UUID PRIMARY KEY,
//	    intern_id    UUID NOT NULL REFERENCES interns (id),
//	    procedure_id UUID NOT NULL REFERENCES procedures (id),
//	    performed_on DATE NOT NULL,
//	    count        INT NOT NULL,
//	    notes        TEXT NOT NULL DEFAULT '',
//	    created_at   TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rotalog/internal/logbook/models"
	vmodels "rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/sentinel"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts the log entry and its PENDING verification in one
// transaction so neither row is ever visible without the other.
func (s *Store) Create(ctx context.Context, entry *models.LogEntry, verification *vmodels.Verification) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create log entry: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO log_entries (id, intern_id, procedure_id, performed_on, count, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.InternID),
		uuid.UUID(entry.ProcedureID),
		entry.Date,
		entry.Count,
		entry.Notes,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO verifications (id, log_entry_id, status, reason, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.UUID(verification.ID),
		uuid.UUID(verification.LogEntryID),
		string(verification.Status),
		verification.Reason,
		verification.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create log entry: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, entryID id.LogEntryID) (*models.LogEntry, error) {
	var (
		entry       models.LogEntry
		logID       uuid.UUID
		internID    uuid.UUID
		procedureID uuid.UUID
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, intern_id, procedure_id, performed_on, count, notes, created_at
		FROM log_entries
		WHERE id = $1
	`, uuid.UUID(entryID)).Scan(&logID, &internID, &procedureID, &entry.Date, &entry.Count, &entry.Notes, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find log entry: %w", err)
	}
	entry.ID = id.LogEntryID(logID)
	entry.InternID = id.InternID(internID)
	entry.ProcedureID = id.ProcedureID(procedureID)
	return &entry, nil
}

func (s *Store) ListByIntern(ctx context.Context, internID id.InternID) ([]models.LogRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.intern_id, l.procedure_id, l.performed_on, l.count, l.created_at, v.status
		FROM log_entries l
		JOIN verifications v ON v.log_entry_id = l.id
		WHERE l.intern_id = $1
		ORDER BY l.created_at
	`, uuid.UUID(internID))
	if err != nil {
		return nil, fmt.Errorf("list log entries by intern: %w", err)
	}
	defer rows.Close()
	return collectLogRows(rows)
}

func (s *Store) ListPending(ctx context.Context, rotationID *id.RotationID) ([]models.PendingRow, error) {
	query := `
		SELECT l.id, l.intern_id, l.procedure_id, l.performed_on, l.count, l.created_at, v.status,
		       i.name, p.name, p.rotation_id
		FROM log_entries l
		JOIN verifications v ON v.log_entry_id = l.id
		JOIN interns i ON i.id = l.intern_id
		JOIN procedures p ON p.id = l.procedure_id
		WHERE v.status = ANY($1)
	`
	args := []any{[]string{string(vmodels.StatusPending), string(vmodels.StatusNeedsRevision)}}
	if rotationID != nil {
		query += ` AND p.rotation_id = $2`
		args = append(args, uuid.UUID(*rotationID))
	}
	query += ` ORDER BY l.created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending log entries: %w", err)
	}
	defer rows.Close()

	result := []models.PendingRow{}
	for rows.Next() {
		var (
			row            models.PendingRow
			rowRotationID  uuid.UUID
			logID          uuid.UUID
			rowInternID    uuid.UUID
			rowProcedureID uuid.UUID
			status         string
		)
		if err := rows.Scan(&logID, &rowInternID, &rowProcedureID, &row.Date, &row.Count, &row.CreatedAt,
			&status, &row.InternName, &row.ProcedureName, &rowRotationID); err != nil {
			return nil, fmt.Errorf("scan pending log entry: %w", err)
		}
		row.ID = id.LogEntryID(logID)
		row.InternID = id.InternID(rowInternID)
		row.ProcedureID = id.ProcedureID(rowProcedureID)
		row.Status = vmodels.Status(status)
		row.RotationID = id.RotationID(rowRotationID)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending log entries: %w", err)
	}
	return result, nil
}

// LoadRequirementSnapshot reads the whole catalogue in a single round trip
// using a pgx batch.
func (s *Store) LoadRequirementSnapshot(ctx context.Context) (*models.RequirementSnapshot, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT id, name FROM rotations ORDER BY name`)
	batch.Queue(`SELECT id, rotation_id, name FROM procedures ORDER BY name`)
	batch.Queue(`SELECT rotation_id, procedure_id, min_count, training_level FROM requirements`)

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	snapshot := &models.RequirementSnapshot{}

	rotationRows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("load rotations: %w", err)
	}
	snapshot.Rotations, err = pgx.CollectRows(rotationRows, func(row pgx.CollectableRow) (models.Rotation, error) {
		var rotation models.Rotation
		var rotationID uuid.UUID
		err := row.Scan(&rotationID, &rotation.Name)
		rotation.ID = id.RotationID(rotationID)
		return rotation, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect rotations: %w", err)
	}

	procedureRows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}
	snapshot.Procedures, err = pgx.CollectRows(procedureRows, func(row pgx.CollectableRow) (models.Procedure, error) {
		var procedure models.Procedure
		var procedureID, rotationID uuid.UUID
		err := row.Scan(&procedureID, &rotationID, &procedure.Name)
		procedure.ID = id.ProcedureID(procedureID)
		procedure.RotationID = id.RotationID(rotationID)
		return procedure, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect procedures: %w", err)
	}

	requirementRows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	snapshot.Requirements, err = pgx.CollectRows(requirementRows, func(row pgx.CollectableRow) (models.Requirement, error) {
		var requirement models.Requirement
		var rotationID, procedureID uuid.UUID
		err := row.Scan(&rotationID, &procedureID, &requirement.MinCount, &requirement.TrainingLevel)
		requirement.RotationID = id.RotationID(rotationID)
		requirement.ProcedureID = id.ProcedureID(procedureID)
		return requirement, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect requirements: %w", err)
	}

	return snapshot, nil
}

func (s *Store) FindProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	var (
		procedure     models.Procedure
		procID, rotID uuid.UUID
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, rotation_id, name FROM procedures WHERE id = $1
	`, uuid.UUID(procedureID)).Scan(&procID, &rotID, &procedure.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find procedure: %w", err)
	}
	procedure.ID = id.ProcedureID(procID)
	procedure.RotationID = id.RotationID(rotID)
	return &procedure, nil
}

func collectLogRows(rows pgx.Rows) ([]models.LogRow, error) {
	result := []models.LogRow{}
	for rows.Next() {
		var (
			row            models.LogRow
			logID          uuid.UUID
			rowInternID    uuid.UUID
			rowProcedureID uuid.UUID
			status         string
		)
		if err := rows.Scan(&logID, &rowInternID, &rowProcedureID, &row.Date, &row.Count, &row.CreatedAt, &status); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		row.ID = id.LogEntryID(logID)
		row.InternID = id.InternID(rowInternID)
		row.ProcedureID = id.ProcedureID(rowProcedureID)
		row.Status = vmodels.Status(status)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log rows: %w", err)
	}
	return result, nil
}
