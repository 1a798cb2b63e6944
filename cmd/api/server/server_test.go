package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	ginrouter "event-portal-service/internal/adapter/gin/router"
)

func TestSetupGinServer_CORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := SetupGinServer(ginrouter.Deps{
		ServiceName:  "event-portal-service",
		HealthChecks: map[string]ginrouter.HealthCheck{"database": func(context.Context) error { return nil }},
	}, []string{"http://portal.test"}, "test", ":0", zaptest.NewLogger(t))

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://portal.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "x-session-id")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, "http://portal.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://other.test")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
