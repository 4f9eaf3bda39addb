package jobs

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJobsRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestTriggerSweepWithoutClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := newTestJobsRouter(NewHandler(nil, nil, logger))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/sweep", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthWithoutInspector(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := newTestJobsRouter(NewHandler(nil, nil, logger))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}

func TestModerationSweepTaskPayload(t *testing.T) {
	at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	task, err := NewModerationSweepTask(at)
	require.NoError(t, err)
	require.Equal(t, TaskModerationSweep, task.Type())

	var payload ModerationSweepPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.True(t, payload.ScheduledFor.Equal(at))
}
