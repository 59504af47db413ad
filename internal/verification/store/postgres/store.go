// Package postgres persists verification records.
//
// Schema:
//
//	CREATE TABLE verifications (
//	    id           UUID PRIMARY KEY,
//	    log_entry_id UUID NOT NULL UNIQUE REFERENCES log_entries (id),
//	    verifier_id  UUID,
//	    status       TEXT NOT NULL,
//	    reason       TEXT NOT NULL DEFAULT '',
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/sentinel"
)

// Store is pure I/O. Transition preconditions and reason rules belong in the
// service; the only invariant enforced here is the atomic PENDING
// compare-and-swap.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByLogEntry(ctx context.Context, logEntryID id.LogEntryID) (*models.Verification, error) {
	query := `
		SELECT id, log_entry_id, verifier_id, status, reason, updated_at
		FROM verifications
		WHERE log_entry_id = $1
	`
	verification, err := scanVerification(s.db.QueryRowContext(ctx, query, uuid.UUID(logEntryID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification by log entry: %w", err)
	}
	return verification, nil
}

// ApplyTransition updates the row only while it is still PENDING. A losing
// concurrent decision matches zero rows; the follow-up existence check
// distinguishes that race from a missing record.
func (s *Store) ApplyTransition(ctx context.Context, logEntryID id.LogEntryID, next models.Status, verifierID id.VerifierID, reason string, decidedAt time.Time) (*models.Verification, error) {
	query := `
		UPDATE verifications
		SET status = $2, verifier_id = $3, reason = $4, updated_at = $5
		WHERE log_entry_id = $1 AND status = $6
		RETURNING id, log_entry_id, verifier_id, status, reason, updated_at
	`
	verification, err := scanVerification(s.db.QueryRowContext(ctx, query,
		uuid.UUID(logEntryID),
		string(next),
		uuid.UUID(verifierID),
		reason,
		decidedAt,
		string(models.StatusPending),
	))
	if err == nil {
		return verification, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("apply verification transition: %w", err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM verifications WHERE log_entry_id = $1)`,
		uuid.UUID(logEntryID),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check verification existence: %w", err)
	}
	if exists {
		return nil, sentinel.ErrConflict
	}
	return nil, sentinel.ErrNotFound
}

type verificationRow interface {
	Scan(dest ...any) error
}

func scanVerification(row verificationRow) (*models.Verification, error) {
	var (
		verification   models.Verification
		verificationID uuid.UUID
		logEntryID     uuid.UUID
		verifierID     uuid.NullUUID
		status         string
	)
	if err := row.Scan(&verificationID, &logEntryID, &verifierID, &status, &verification.Reason, &verification.Timestamp); err != nil {
		return nil, err
	}
	verification.ID = id.VerificationID(verificationID)
	verification.LogEntryID = id.LogEntryID(logEntryID)
	verification.Status = models.Status(status)
	if verifierID.Valid {
		v := id.VerifierID(verifierID.UUID)
		verification.VerifierID = &v
	}
	return &verification, nil
}
