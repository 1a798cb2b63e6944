package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"event-portal-service/internal/adapter/gin/middleware"
	ginrouter "event-portal-service/internal/adapter/gin/router"
	"event-portal-service/pkg/logger"
)

// SetupGinServer creates the HTTP server for the proxy and portal routes,
// wrapped in CORS handling for the browser front ends.
func SetupGinServer(deps ginrouter.Deps, allowedOrigins []string, env, addr string, l *zap.Logger) *http.Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(deps, l)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.SessionHeader, logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
		MaxAge:         600,
	})

	l.Info("Gin HTTP server configured",
		zap.String("address", addr),
		zap.Strings("cors_origins", allowedOrigins),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
