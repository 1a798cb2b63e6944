package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"event-portal-service/internal/adapter/gin/handler"
	"event-portal-service/internal/adapter/gin/middleware"
	"event-portal-service/pkg/logger"
)

// SwaggerSpecRoute serves the OpenAPI document rendered by the UI.
const SwaggerSpecRoute = "/openapi/portal.swagger.json"

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router wires.
type Deps struct {
	ServiceName     string
	Portal          *handler.PortalHandler
	Proxy           *handler.ProxyHandler
	Sessions        middleware.SessionResolver
	RateLimiter     *middleware.RateLimiter // nil disables limiting
	HealthChecks    map[string]HealthCheck
	SwaggerSpecPath string // empty disables the documentation routes
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(deps Deps, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(logger.RequestIDMiddleware())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware())
	}

	router.GET("/health", healthHandler(deps.ServiceName, deps.HealthChecks))

	if deps.SwaggerSpecPath != "" {
		router.StaticFile(SwaggerSpecRoute, deps.SwaggerSpecPath)
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL(SwaggerSpecRoute),
		)))
	}

	// Pass-through proxy
	api := router.Group("/api")
	{
		api.POST("/login", deps.Proxy.Login)
		api.GET("/users", deps.Proxy.Users)
		api.POST("/users", deps.Proxy.Users)
		api.GET("/events/:id", deps.Proxy.Event)
		api.PUT("/events/:id", deps.Proxy.Event)
		api.DELETE("/events/:id", deps.Proxy.Event)
		api.GET("/registrations", deps.Proxy.Registrations)
		api.POST("/registrations", deps.Proxy.Registrations)
	}

	// Portal API v1 routes
	v1 := router.Group("/v1")
	{
		v1.POST("/session", deps.Portal.Login)

		authed := v1.Group("", middleware.RequireSession(deps.Sessions, log))
		authed.DELETE("/session", deps.Portal.Logout)
		authed.GET("/dashboard", deps.Portal.Dashboard)

		events := authed.Group("/events")
		{
			events.GET("", deps.Portal.ListEvents)
			events.POST("", deps.Portal.CreateEvent)
			events.GET("/:id", deps.Portal.EventDetail)
			events.PUT("/:id", deps.Portal.UpdateEvent)
			events.DELETE("/:id", deps.Portal.DeleteEvent)
			events.POST("/:id/registrations", deps.Portal.JoinEvent)
		}

		users := authed.Group("/users")
		{
			users.GET("", deps.Portal.ListUsers)
			users.POST("", deps.Portal.CreateUser)
			users.GET("/:id", deps.Portal.UserProfile)
		}
	}

	return router
}

func healthHandler(service string, checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"service":      service,
			"dependencies": deps,
		})
	}
}
