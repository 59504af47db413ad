package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/storage"
	"rotalog/internal/verification/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
	audit "rotalog/pkg/platform/audit"
	"rotalog/pkg/platform/audit/publisher"
	auditmemory "rotalog/pkg/platform/audit/store/memory"
	"rotalog/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	db         *storage.Memory
	auditStore *auditmemory.InMemoryStore
	service    *Service

	verifier  id.VerifierID
	intern    logmodels.Intern
	procedure logmodels.Procedure
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.db = storage.NewMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.verifier = id.NewVerifierID()
	s.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	rotation := logmodels.Rotation{ID: id.NewRotationID(), Name: "ICU"}
	s.procedure = logmodels.Procedure{ID: id.NewProcedureID(), RotationID: rotation.ID, Name: "Central line"}
	s.intern = logmodels.Intern{ID: id.NewInternID(), Name: "Dr. Adler"}
	s.db.SeedRotation(rotation)
	s.db.SeedProcedure(s.procedure)
	s.db.SeedIntern(s.intern)

	s.service = New(s.db, s.db,
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
	)
}

// reviewerCtx carries an authenticated reviewer and a fixed clock.
func (s *ServiceSuite) reviewerCtx() context.Context {
	ctx := requestcontext.WithActorID(context.Background(), s.verifier)
	ctx = requestcontext.WithMayReview(ctx, true)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *ServiceSuite) submitLog() *logmodels.LogEntry {
	entry := &logmodels.LogEntry{
		ID:          id.NewLogEntryID(),
		InternID:    s.intern.ID,
		ProcedureID: s.procedure.ID,
		Date:        s.now.Add(-24 * time.Hour),
		Count:       1,
		CreatedAt:   s.now.Add(-24 * time.Hour),
	}
	verification := models.NewPending(id.NewVerificationID(), entry.ID, entry.CreatedAt)
	s.Require().NoError(s.db.Create(context.Background(), entry, verification))
	return entry
}

func (s *ServiceSuite) TestDecideApprove() {
	entry := s.submitLog()

	result, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusApproved, "")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, result.PreviousStatus)
	s.Equal(models.StatusApproved, result.NewStatus)
	s.Equal(entry.InternID, result.InternID)
	s.Equal(entry.ProcedureID, result.ProcedureID)

	verification, err := s.service.GetByLogEntry(s.reviewerCtx(), entry.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, verification.Status)
	s.Equal(s.verifier, *verification.VerifierID)
	s.Equal(s.now, verification.Timestamp)

	events, err := s.auditStore.ListByIntern(context.Background(), entry.InternID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventVerificationApproved), events[0].Action)
	s.Equal(entry.ID.String(), events[0].EntityID)
}

func (s *ServiceSuite) TestDecideSecondDecisionLoses() {
	entry := s.submitLog()

	_, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusApproved, "")
	s.Require().NoError(err)

	_, err = s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusRejected, "changed my mind")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyReviewed))

	s.Run("first decision stands", func() {
		verification, err := s.service.GetByLogEntry(s.reviewerCtx(), entry.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, verification.Status)
	})
}

func (s *ServiceSuite) TestRejectRequiresReason() {
	entry := s.submitLog()

	_, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusRejected, "  ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "a reasonless rejection violates the transition contract")

	s.Run("verification stays pending", func() {
		verification, err := s.service.GetByLogEntry(s.reviewerCtx(), entry.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, verification.Status)
		s.Nil(verification.VerifierID)
	})

	s.Run("no audit event was emitted", func() {
		events, err := s.auditStore.ListByIntern(context.Background(), entry.InternID)
		s.Require().NoError(err)
		s.Empty(events)
	})
}

func (s *ServiceSuite) TestRejectStoresReason() {
	entry := s.submitLog()

	result, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusRejected, "form incomplete")
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, result.NewStatus)

	verification, err := s.service.GetByLogEntry(s.reviewerCtx(), entry.ID)
	s.Require().NoError(err)
	s.Equal("form incomplete", verification.Reason)

	events, err := s.auditStore.ListByIntern(context.Background(), entry.InternID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("form incomplete", events[0].Reason)
}

func (s *ServiceSuite) TestNeedsRevisionReasonOptional() {
	entry := s.submitLog()

	result, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusNeedsRevision, "")
	s.Require().NoError(err)
	s.Equal(models.StatusNeedsRevision, result.NewStatus)
}

func (s *ServiceSuite) TestDecideRequiresReviewer() {
	entry := s.submitLog()

	s.Run("missing capability", func() {
		ctx := requestcontext.WithActorID(context.Background(), s.verifier)
		_, err := s.service.Decide(ctx, entry.ID, models.StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing actor", func() {
		ctx := requestcontext.WithMayReview(context.Background(), true)
		_, err := s.service.Decide(ctx, entry.ID, models.StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestDecideRejectsBadTargets() {
	entry := s.submitLog()

	s.Run("pending is not a decision", func() {
		_, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.StatusPending, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown status", func() {
		_, err := s.service.Decide(s.reviewerCtx(), entry.ID, models.Status("SHREDDED"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestDecideUnknownLogEntry() {
	_, err := s.service.Decide(s.reviewerCtx(), id.NewLogEntryID(), models.StatusApproved, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestConcurrentDecides() {
	entry := s.submitLog()
	const reviewers = 20

	var wg sync.WaitGroup
	results := make(chan error, reviewers)
	for range reviewers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := requestcontext.WithActorID(context.Background(), id.NewVerifierID())
			ctx = requestcontext.WithMayReview(ctx, true)
			_, err := s.service.Decide(ctx, entry.ID, models.StatusApproved, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyReviewed))
		conflicts++
	}
	s.Equal(1, wins, "exactly one reviewer may decide")
	s.Equal(reviewers-1, conflicts)
}
