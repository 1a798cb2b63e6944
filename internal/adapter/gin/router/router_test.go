package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"event-portal-service/internal/adapter/gin/handler"
	"event-portal-service/internal/adapter/upstream"
	domain "event-portal-service/internal/domain/portal"
	"event-portal-service/internal/usecase/portal"
	pkgerrors "event-portal-service/pkg/errors"
	"event-portal-service/pkg/logger"
)

type memorySessions struct {
	byID map[string]*domain.Session
}

func (m *memorySessions) Create(_ context.Context, s *domain.Session) error {
	m.byID[s.ID] = s
	return nil
}

func (m *memorySessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("session", "")
	}
	return s, nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memorySessions) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// setupRouter wires the real handlers over a fake upstream.
func setupRouter(t *testing.T, checks map[string]HealthCheck, specPath string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			_, _ = w.Write([]byte(`{"token":"tok","userId":"U001"}`))
		case "/users":
			_, _ = w.Write([]byte(`[{"userId":"U001","name":"Ana","email":"ana@example.com","password":"secret"}]`))
		case "/events":
			_, _ = w.Write([]byte(`[{"eventId":"E001","name":"Jazz","date":"2026-03-10","city":"Cali","createdBy":"U001"}]`))
		case "/registrations":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL, Timeout: time.Second}, log)
	require.NoError(t, err)

	uc := portal.New(client, &memorySessions{byID: map[string]*domain.Session{}}, portal.Options{}, log)
	return SetupRouter(Deps{
		ServiceName:     "event-portal-service",
		Portal:          handler.NewPortalHandler(uc, log),
		Proxy:           handler.NewProxyHandler(client, log),
		Sessions:        uc,
		HealthChecks:    checks,
		SwaggerSpecPath: specPath,
	}, log)
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		r := setupRouter(t, map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		}, "")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","service":"event-portal-service","dependencies":{"database":"ok"}}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
	})

	t.Run("Degraded", func(t *testing.T) {
		r := setupRouter(t, map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("down") },
		}, "")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
	})
}

func TestPortalFlow(t *testing.T) {
	r := setupRouter(t, nil, "")

	// sign in
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/session",
		strings.NewReader(`{"email":"ana@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session handler.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.SessionID)

	// dashboard with the session
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req.Header.Set("X-Session-ID", session.SessionID)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dash handler.DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dash))
	require.NotNil(t, dash.CurrentUser)
	assert.Equal(t, "Ana", dash.CurrentUser.Name)
	require.Len(t, dash.Events, 1)
	assert.True(t, dash.Events[0].Owned)
	assert.NotContains(t, w.Body.String(), "secret")

	// sign out, then the session is gone
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/session", nil)
	req.Header.Set("X-Session-ID", session.SessionID)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req.Header.Set("X-Session-ID", session.SessionID)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProxyRoutesMounted(t *testing.T) {
	r := setupRouter(t, nil, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "U001")
}

func TestSwaggerRoutes(t *testing.T) {
	specPath := filepath.Join(t.TempDir(), "portal.swagger.json")
	require.NoError(t, os.WriteFile(specPath, []byte(`{"swagger":"2.0"}`), 0o600))
	r := setupRouter(t, nil, specPath)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, SwaggerSpecRoute, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"swagger":"2.0"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSwaggerDisabled(t *testing.T) {
	r := setupRouter(t, nil, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
