package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/storage"
	vmodels "rotalog/internal/verification/models"
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
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

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

func (s *ServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) validRequest() SubmitLogRequest {
	return SubmitLogRequest{
		InternID:    s.intern.ID,
		ProcedureID: s.procedure.ID,
		Date:        s.now.Add(-2 * time.Hour),
		Count:       3,
		Notes:       "supervised",
	}
}

func (s *ServiceSuite) TestSubmitLog() {
	entry, err := s.service.SubmitLog(s.ctx(), s.validRequest())
	s.Require().NoError(err)
	s.False(entry.ID.IsZero())
	s.Equal(3, entry.Count)
	s.Equal(s.now, entry.CreatedAt)

	s.Run("the entry is stored with a pending verification", func() {
		rows, err := s.service.ListLogs(s.ctx(), s.intern.ID)
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(vmodels.StatusPending, rows[0].Status)
	})

	s.Run("a submission audit event is recorded", func() {
		events, err := s.auditStore.ListByIntern(context.Background(), s.intern.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventLogSubmitted), events[0].Action)
		s.Equal(entry.ID.String(), events[0].EntityID)
	})
}

func (s *ServiceSuite) TestSubmitLogValidation() {
	cases := []struct {
		name   string
		mutate func(*SubmitLogRequest)
	}{
		{"zero count", func(r *SubmitLogRequest) { r.Count = 0 }},
		{"negative count", func(r *SubmitLogRequest) { r.Count = -4 }},
		{"count above the maximum", func(r *SubmitLogRequest) { r.Count = 501 }},
		{"future date", func(r *SubmitLogRequest) { r.Date = s.now.Add(48 * time.Hour) }},
		{"missing intern", func(r *SubmitLogRequest) { r.InternID = id.InternID{} }},
		{"missing procedure", func(r *SubmitLogRequest) { r.ProcedureID = id.ProcedureID{} }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := s.validRequest()
			tc.mutate(&req)
			_, err := s.service.SubmitLog(s.ctx(), req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	s.Run("nothing was stored", func() {
		rows, err := s.service.ListLogs(s.ctx(), s.intern.ID)
		s.Require().NoError(err)
		s.Empty(rows)
	})
}

func (s *ServiceSuite) TestSubmitLogUnknownProcedure() {
	req := s.validRequest()
	req.ProcedureID = id.NewProcedureID()

	_, err := s.service.SubmitLog(s.ctx(), req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetLog() {
	entry, err := s.service.SubmitLog(s.ctx(), s.validRequest())
	s.Require().NoError(err)

	found, err := s.service.GetLog(s.ctx(), entry.ID)
	s.Require().NoError(err)
	s.Equal(entry.ID, found.ID)

	_, err = s.service.GetLog(s.ctx(), id.NewLogEntryID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
