//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rotalog/internal/verification/models"
	"rotalog/internal/verification/store/postgres"
	id "rotalog/pkg/domain"
	"rotalog/pkg/platform/sentinel"
	"rotalog/pkg/testutil/containers"
)

const verificationSchema = `
CREATE TABLE IF NOT EXISTS rotations (
	id   UUID PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS procedures (
	id          UUID PRIMARY KEY,
	rotation_id UUID NOT NULL REFERENCES rotations (id),
	name        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interns (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	training_level TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS log_entries (
	id           UUID PRIMARY KEY,
	intern_id    UUID NOT NULL REFERENCES interns (id),
	procedure_id UUID NOT NULL REFERENCES procedures (id),
	performed_on DATE NOT NULL,
	count        INT NOT NULL,
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS verifications (
	id           UUID PRIMARY KEY,
	log_entry_id UUID NOT NULL UNIQUE REFERENCES log_entries (id),
	verifier_id  UUID,
	status       TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL
);
`

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.postgres.Exec(s.T(), verificationSchema)
	s.store = postgres.New(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"verifications", "log_entries", "interns", "procedures", "rotations")
	s.Require().NoError(err)
}

// seedPendingLog inserts the FK chain for one PENDING verification and
// returns the log entry ID.
func (s *PostgresStoreSuite) seedPendingLog() id.LogEntryID {
	ctx := context.Background()
	rotationID, procedureID, internID := uuid.New(), uuid.New(), uuid.New()
	logEntryID := id.NewLogEntryID()
	now := time.Now().UTC()

	exec := func(query string, args ...any) {
		_, err := s.postgres.DB.ExecContext(ctx, query, args...)
		s.Require().NoError(err)
	}
	exec(`INSERT INTO rotations (id, name) VALUES ($1, 'ICU')`, rotationID)
	exec(`INSERT INTO procedures (id, rotation_id, name) VALUES ($1, $2, 'Central line')`, procedureID, rotationID)
	exec(`INSERT INTO interns (id, name) VALUES ($1, 'Dr. Adler')`, internID)
	exec(`INSERT INTO log_entries (id, intern_id, procedure_id, performed_on, count, created_at)
		VALUES ($1, $2, $3, $4, 1, $5)`, uuid.UUID(logEntryID), internID, procedureID, now, now)
	exec(`INSERT INTO verifications (id, log_entry_id, status, updated_at)
		VALUES ($1, $2, $3, $4)`, uuid.New(), uuid.UUID(logEntryID), string(models.StatusPending), now)

	return logEntryID
}

func (s *PostgresStoreSuite) TestFindByLogEntry() {
	ctx := context.Background()
	logEntryID := s.seedPendingLog()

	verification, err := s.store.FindByLogEntry(ctx, logEntryID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, verification.Status)
	s.Nil(verification.VerifierID)

	_, err = s.store.FindByLogEntry(ctx, id.NewLogEntryID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestApplyTransition() {
	ctx := context.Background()
	logEntryID := s.seedPendingLog()
	verifier := id.NewVerifierID()
	decidedAt := time.Now().UTC().Truncate(time.Microsecond)

	verification, err := s.store.ApplyTransition(ctx, logEntryID, models.StatusRejected, verifier, "form incomplete", decidedAt)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, verification.Status)
	s.Equal(verifier, *verification.VerifierID)
	s.Equal("form incomplete", verification.Reason)
	s.WithinDuration(decidedAt, verification.Timestamp, time.Millisecond)
}

func (s *PostgresStoreSuite) TestApplyTransitionConflictAndNotFound() {
	ctx := context.Background()
	logEntryID := s.seedPendingLog()
	verifier := id.NewVerifierID()

	_, err := s.store.ApplyTransition(ctx, logEntryID, models.StatusApproved, verifier, "", time.Now())
	s.Require().NoError(err)

	_, err = s.store.ApplyTransition(ctx, logEntryID, models.StatusRejected, verifier, "changed my mind", time.Now())
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.store.ApplyTransition(ctx, id.NewLogEntryID(), models.StatusApproved, verifier, "", time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDecisions verifies that racing decisions on the same log
// entry produce exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentDecisions() {
	ctx := context.Background()
	logEntryID := s.seedPendingLog()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ApplyTransition(ctx, logEntryID, models.StatusApproved, id.NewVerifierID(), "", time.Now())
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one decision should land")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should observe the conflict")

	verification, err := s.store.FindByLogEntry(ctx, logEntryID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, verification.Status)
}
