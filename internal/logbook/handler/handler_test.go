package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	logmodels "rotalog/internal/logbook/models"
	"rotalog/internal/logbook/service"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
)

type fakeService struct {
	entry *logmodels.LogEntry
	rows  []logmodels.LogRow
	err   error

	gotRequest service.SubmitLogRequest
}

func (f *fakeService) SubmitLog(_ context.Context, req service.SubmitLogRequest) (*logmodels.LogEntry, error) {
	f.gotRequest = req
	return f.entry, f.err
}

func (f *fakeService) GetLog(_ context.Context, entryID id.LogEntryID) (*logmodels.LogEntry, error) {
	return f.entry, f.err
}

func (f *fakeService) ListLogs(_ context.Context, internID id.InternID) ([]logmodels.LogRow, error) {
	return f.rows, f.err
}

type fakeInvalidator struct {
	internID id.InternID
	calls    int
}

func (f *fakeInvalidator) Invalidate(_ context.Context, internID id.InternID) error {
	f.calls++
	f.internID = internID
	return nil
}

func newRouter(service Service, invalidator Invalidator) chi.Router {
	r := chi.NewRouter()
	New(service, invalidator, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func TestHandleSubmit(t *testing.T) {
	internID := id.NewInternID()
	procedureID := id.NewProcedureID()
	entry := &logmodels.LogEntry{
		ID:          id.NewLogEntryID(),
		InternID:    internID,
		ProcedureID: procedureID,
		Date:        time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		Count:       2,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	service := &fakeService{entry: entry}
	invalidator := &fakeInvalidator{}
	r := newRouter(service, invalidator)

	payload, _ := json.Marshal(SubmitLogRequest{
		InternID:    internID.String(),
		ProcedureID: procedureID.String(),
		Date:        "2026-02-27",
		Count:       2,
	})
	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, internID, service.gotRequest.InternID)
	require.Equal(t, 2, service.gotRequest.Count)

	var resp LogEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, entry.ID.String(), resp.ID)
	require.Equal(t, "2026-02-27", resp.Date)

	require.Equal(t, 1, invalidator.calls, "submissions must invalidate progress views")
	require.Equal(t, internID, invalidator.internID)
}

func TestHandleSubmitBadPayload(t *testing.T) {
	invalidator := &fakeInvalidator{}
	r := newRouter(&fakeService{}, invalidator)

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{`},
		{"bad intern id", `{"intern_id":"nope","procedure_id":"` + id.NewProcedureID().String() + `","date":"2026-02-27","count":1}`},
		{"bad date", `{"intern_id":"` + id.NewInternID().String() + `","procedure_id":"` + id.NewProcedureID().String() + `","date":"27/02/2026","count":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	require.Zero(t, invalidator.calls)
}

func TestHandleSubmitServiceError(t *testing.T) {
	service := &fakeService{err: dErrors.New(dErrors.CodeValidation, "count must be a positive integer")}
	invalidator := &fakeInvalidator{}
	r := newRouter(service, invalidator)

	payload, _ := json.Marshal(SubmitLogRequest{
		InternID:    id.NewInternID().String(),
		ProcedureID: id.NewProcedureID().String(),
		Date:        "2026-02-27",
		Count:       -1,
	})
	req := httptest.NewRequest(http.MethodPost, "/logs", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, invalidator.calls, "rejected submissions must not invalidate")
}

func TestHandleList(t *testing.T) {
	internID := id.NewInternID()
	service := &fakeService{rows: []logmodels.LogRow{{
		ID:          id.NewLogEntryID(),
		InternID:    internID,
		ProcedureID: id.NewProcedureID(),
		Date:        time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		Count:       1,
		Status:      "PENDING",
	}}}
	r := newRouter(service, &fakeInvalidator{})

	req := httptest.NewRequest(http.MethodGet, "/interns/"+internID.String()+"/logs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []LogRowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, "PENDING", resp[0].Status)
}
