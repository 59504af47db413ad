package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"rotalog/internal/cache"
	"rotalog/internal/progress/models"
	id "rotalog/pkg/domain"
	dErrors "rotalog/pkg/domain-errors"
)

type fakeService struct {
	progress *models.InternProgress
	queue    *models.SupervisorQueue
	err      error

	gotInternID   id.InternID
	gotRotationID *id.RotationID
	clearCalls    int
}

func (f *fakeService) GetInternProgress(_ context.Context, internID id.InternID) (*models.InternProgress, error) {
	f.gotInternID = internID
	return f.progress, f.err
}

func (f *fakeService) GetSupervisorQueue(_ context.Context, rotationID *id.RotationID) (*models.SupervisorQueue, error) {
	f.gotRotationID = rotationID
	return f.queue, f.err
}

func (f *fakeService) ClearCache(context.Context) error {
	f.clearCalls++
	return f.err
}

func newRouter(service Service) chi.Router {
	r := chi.NewRouter()
	h := New(service, slog.New(slog.DiscardHandler))
	h.Register(r)
	r.Route("/admin", h.RegisterAdmin)
	return r
}

func get(r chi.Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleInternProgress(t *testing.T) {
	internID := id.NewInternID()
	service := &fakeService{progress: &models.InternProgress{
		InternID: internID,
		Rotations: []models.RotationProgress{{
			RotationID:           id.NewRotationID(),
			RotationName:         "ICU",
			Required:             8,
			Verified:             6,
			CompletionPercentage: 75,
			State:                models.RotationActive,
			Procedures:           []models.ProcedureProgress{},
		}},
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}}
	r := newRouter(service)

	rec := get(r, "/interns/"+internID.String()+"/progress")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, internID, service.gotInternID)

	var resp models.InternProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, internID, resp.InternID)
	require.Len(t, resp.Rotations, 1)
	require.Equal(t, 75, resp.Rotations[0].CompletionPercentage)
}

func TestHandleInternProgressMalformedID(t *testing.T) {
	rec := get(newRouter(&fakeService{}), "/interns/not-a-uuid/progress")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInternProgressTimeoutMapsTo504(t *testing.T) {
	service := &fakeService{err: dErrors.New(dErrors.CodeTimeout, "progress computation timed out")}
	rec := get(newRouter(service), "/interns/"+id.NewInternID().String()+"/progress")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleSupervisorQueue(t *testing.T) {
	service := &fakeService{queue: &models.SupervisorQueue{
		Groups:                    []models.InternQueue{},
		TotalPendingVerifications: 0,
	}}
	r := newRouter(service)

	rec := get(r, "/supervisor/queue")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, service.gotRotationID)

	rotationID := id.NewRotationID()
	rec = get(r, "/supervisor/queue?rotation_id="+rotationID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.gotRotationID)
	require.Equal(t, rotationID, *service.gotRotationID)
}

func TestHandleSupervisorQueueBadFilter(t *testing.T) {
	rec := get(newRouter(&fakeService{}), "/supervisor/queue?rotation_id=nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCacheStats(t *testing.T) {
	service := &fakeService{}
	r := chi.NewRouter()
	h := New(service, slog.New(slog.DiscardHandler), WithCacheStats(func() cache.Stats {
		return cache.Stats{Size: 3, Hits: 9, Misses: 1, HitRatio: 0.9}
	}))
	r.Route("/admin", h.RegisterAdmin)

	rec := get(r, "/admin/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 3, stats.Size)
	require.InDelta(t, 0.9, stats.HitRatio, 1e-9)
}

func TestHandleCacheStatsUnavailable(t *testing.T) {
	rec := get(newRouter(&fakeService{}), "/admin/cache/stats")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleClearCache(t *testing.T) {
	service := &fakeService{}
	r := newRouter(service)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/cache/clear", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, service.clearCalls)
}
