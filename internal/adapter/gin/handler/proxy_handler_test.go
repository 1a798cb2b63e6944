package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"event-portal-service/internal/adapter/upstream"
)

func setupProxy(t *testing.T, baseURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	client, err := upstream.NewClient(upstream.Config{BaseURL: baseURL, Timeout: time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)

	h := NewProxyHandler(client, zaptest.NewLogger(t))
	r := gin.New()
	api := r.Group("/api")
	api.POST("/login", h.Login)
	api.GET("/users", h.Users)
	api.POST("/users", h.Users)
	api.GET("/events/:id", h.Event)
	api.PUT("/events/:id", h.Event)
	api.DELETE("/events/:id", h.Event)
	api.GET("/registrations", h.Registrations)
	api.POST("/registrations", h.Registrations)
	return r
}

func TestProxy_EventUnreachableUpstream(t *testing.T) {
	r := setupProxy(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/api/events/E001", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "message")
	assert.NotEmpty(t, body["message"])
}

func TestProxy_ForwardsAuthorizationAndBody(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/events/E001", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"New"}`, string(body))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"eventId":"E001","name":"New"}`))
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	req := httptest.NewRequest(http.MethodPut, "/api/events/E001", bytes.NewBufferString(`{"name":"New"}`))
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"eventId":"E001","name":"New"}`, w.Body.String())
}

func TestProxy_LoginNeverForwardsAuthorization(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL+"/login")

	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(`{"email":"a@b.co","password":"x"}`))
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code, "upstream status is relayed")
	assert.JSONEq(t, `{"message":"invalid credentials"}`, w.Body.String())
}

func TestProxy_EmptyUpstreamBodyIsNull(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestProxy_NoContentRelayedWithoutBody(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/events/E001", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestProxy_RegistrationsUserFilter(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "U001", r.URL.Query().Get("userId"))
		assert.Empty(t, r.URL.Query().Get("other"))
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/registrations?userId=U001&other=x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestProxy_InvalidJSONBody(t *testing.T) {
	called := false
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/registrations", bytes.NewBufferString(`{"eventId":`)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "message")
	assert.False(t, called)
}

func TestProxy_NonJSONUpstreamBody(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	t.Cleanup(upstreamSrv.Close)
	r := setupProxy(t, upstreamSrv.URL)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"failed to load users"}`, w.Body.String())
}
