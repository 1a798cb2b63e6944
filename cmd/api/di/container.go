package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"event-portal-service/cmd/api/infrastructure"
	"event-portal-service/internal/adapter/cache"
	"event-portal-service/internal/adapter/db/session"
	ginhandler "event-portal-service/internal/adapter/gin/handler"
	"event-portal-service/internal/adapter/gin/middleware"
	"event-portal-service/internal/adapter/gin/router"
	"event-portal-service/internal/adapter/repository/cached"
	"event-portal-service/internal/adapter/upstream"
	"event-portal-service/internal/config"
	"event-portal-service/internal/usecase/portal"
	redisclient "event-portal-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   *redisclient.Client // nil when Redis is disabled
	Upstream      *upstream.Client
	Sessions      *session.Repo
	PortalUC      *portal.Service
	RateLimiter   *middleware.RateLimiter
	PortalHandler *ginhandler.PortalHandler
	ProxyHandler  *ginhandler.ProxyHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize upstream API client
	api, err := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout(),
	}, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upstream client: %w", err)
	}

	// Initialize session database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis client
	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// Initialize cache layer; without Redis every read goes to the API
	var collectionCache cache.CollectionCache
	if rdb != nil {
		collectionCache = cache.NewRedisCollectionCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
	}
	cachedAPI := cached.NewCachedAPI(api, collectionCache, l)

	// Initialize repository and use case
	sessions := session.NewRepo(db, l)
	portalUC := portal.New(cachedAPI, sessions, portal.Options{
		SessionTTL:  cfg.Session.TTL(),
		AssignsIDs:  cfg.Upstream.AssignsIDs,
		FanOutLimit: cfg.Upstream.FanOutLimit,
	}, l)

	// Initialize rate limiter
	var rateLimiter *middleware.RateLimiter
	if rdb != nil {
		rateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	return &Container{
		Config:        cfg,
		Logger:        l,
		DB:            db,
		RedisClient:   rdb,
		Upstream:      api,
		Sessions:      sessions,
		PortalUC:      portalUC,
		RateLimiter:   rateLimiter,
		PortalHandler: ginhandler.NewPortalHandler(portalUC, l),
		ProxyHandler:  ginhandler.NewProxyHandler(api, l),
	}, nil
}

// RouterDeps assembles what the HTTP router needs.
func (c *Container) RouterDeps() router.Deps {
	checks := map[string]router.HealthCheck{
		"database": c.Sessions.Ping,
	}
	if c.RedisClient != nil {
		checks["redis"] = c.RedisClient.Healthy
	}

	specPath := ""
	if c.Config.Swagger.Enabled {
		specPath = c.Config.Swagger.SpecPath
	}

	return router.Deps{
		ServiceName:     c.Config.Logger.ServiceName,
		Portal:          c.PortalHandler,
		Proxy:           c.ProxyHandler,
		Sessions:        c.PortalUC,
		RateLimiter:     c.RateLimiter,
		HealthChecks:    checks,
		SwaggerSpecPath: specPath,
	}
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
