package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sessiondeck/folderdeck/internal/capability"
	"github.com/sessiondeck/folderdeck/internal/folders"
	"github.com/sessiondeck/folderdeck/internal/realtime"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := folders.NewStore(capability.NewMemoryStorage(), folders.WithSyncWrites())
	require.NoError(t, err)
	store.Load(t.Context())
	t.Cleanup(store.Close)

	router, err := NewRouter(store, capability.NewStaticRegistry(), realtime.NewHub())
	require.NoError(t, err)
	return router
}

func TestRouter_RequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, capability.NewStaticRegistry(), nil)
	require.Error(t, err)

	store, err := folders.NewStore(capability.NewMemoryStorage())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = NewRouter(store, nil, nil)
	require.Error(t, err)
}

func TestRouter_HealthAndFolderRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/folders", strings.NewReader(`{"name":"Staging"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/folders/tree", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	// Trigger a request to generate metrics before scraping.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/folders", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "folderdeck_")
}
