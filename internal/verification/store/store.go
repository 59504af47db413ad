package store

import (
	"context"
	"time"

	"rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
)

// Store persists verification records, keyed by the log entry they belong to.
type Store interface {
	FindByLogEntry(ctx context.Context, logEntryID id.LogEntryID) (*models.Verification, error)
	// ApplyTransition conditionally moves the PENDING verification for
	// logEntryID into next and returns the updated record. The update is a
	// compare-and-swap on the PENDING status: sentinel.ErrConflict when a
	// concurrent decision already landed, sentinel.ErrNotFound when no
	// verification exists for the log entry.
	ApplyTransition(ctx context.Context, logEntryID id.LogEntryID, next models.Status, verifierID id.VerifierID, reason string, decidedAt time.Time) (*models.Verification, error)
}
