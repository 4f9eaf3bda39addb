package moderation

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokapasar/lokapasar/internal/observability"
)

func newTestHandler(store *memoryStore) (*Handler, *observability.Metrics) {
	metrics := observability.NewMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, newTrustService(store), metrics), metrics
}

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Route("/users", h.MountUserRoutes)
	r.Route("/shops", h.MountShopRoutes)
	return r
}

func scrape(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestWarnUserEndpointCountsAction(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	handler, metrics := newTestHandler(store)
	router := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/users/1/warnings", strings.NewReader(`{"reason":"spam listing","severity":"high"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"severity":"high"`)
	assert.Contains(t, scrape(t, metrics), `lokapasar_moderation_actions_total{action="warn_user"} 1`)
}

func TestWarnUserEndpointRejectsUnknownSeverity(t *testing.T) {
	store := newMemoryStore()
	store.addUser(1)
	handler, metrics := newTestHandler(store)
	router := newTestRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/users/1/warnings", strings.NewReader(`{"reason":"spam listing","severity":"catastrophic"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	// rejected requests must not move the counter
	assert.NotContains(t, scrape(t, metrics), `lokapasar_moderation_actions_total`)
}

func TestStrikeShopEndpointSeverityDomain(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	handler, metrics := newTestHandler(store)
	router := newTestRouter(handler)

	// user severities are not valid for shop strikes
	req := httptest.NewRequest(http.MethodPost, "/shops/10/strikes", strings.NewReader(`{"reason":"counterfeit goods","severity":"high"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/shops/10/strikes", strings.NewReader(`{"reason":"counterfeit goods","severity":"critical"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"severity":"critical"`)
	assert.Contains(t, scrape(t, metrics), `lokapasar_moderation_actions_total{action="strike_shop"} 1`)
}

func TestShopVerificationEndpoints(t *testing.T) {
	store := newMemoryStore()
	store.addShop(10, 1)
	handler, metrics := newTestHandler(store)
	router := newTestRouter(handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shops/10/verify", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shops/10/verify", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/shops/10/reject", strings.NewReader(`{"reason":"incomplete documents"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `lokapasar_moderation_actions_total{action="verify_shop"} 1`)
	assert.Contains(t, body, `lokapasar_moderation_actions_total{action="reject_shop"} 1`)
}
