// Command server runs the artist site API: blog feed, platform links,
// catalog and click analytics.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/cache"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/config"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/domain"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/fetch"
	httpHandler "github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/handler/http"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/ratelimit"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository/memory"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/repository/postgres"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/service"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/upstream/songlink"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/internal/upstream/spotify"
	"github.com/Lazy-Perfectionist-Official/lazy-perfectionist/pkg/logger"
)

// newStore picks the shared Redis cache when a client is available and an in-process LRU otherwise
func newStore[V any](rdb *redis.Client, name string, size int, ttl time.Duration) cache.Store[V] {
	if rdb != nil {
		return cache.NewRedisStore[V](rdb, name, ttl)
	}
	return cache.NewMemoryStore[V](name, size, ttl)
}

func main() {
	// STEP 1: configuration (defaults, optional YAML file, environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// STEP 2: structured logger
	appLogger := logger.New(cfg.App.LogLevel)
	appLogger.Info("Starting artist site API",
		"environment", cfg.App.Environment,
		"port", cfg.Server.Port,
		"analytics_store", cfg.Analytics.Store,
	)

	ctx := context.Background()

	// STEP 3: optional Redis, shared by the caches and the rate limiter
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.InitRedis(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, using in-process caches", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			appLogger.Info("Redis connection established", "addr", cfg.Redis.RedisAddr())
		}
	}

	// STEP 4: click repository
	var clickRepo repository.ClickRepository
	switch cfg.Analytics.Store {
	case "postgres":
		db, err := postgres.InitDB(
			ctx,
			cfg.Database.DatabaseDSN(),
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			appLogger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Database connection failed: %v", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("Database schema setup failed: %v", err)
		}
		appLogger.Info("Database connection established")
		clickRepo = postgres.NewClickRepository(db)
	default:
		clickRepo = memory.NewClickRepository(cfg.Analytics.MaxEvents)
	}

	// STEP 5: upstream clients
	httpClient := fetch.New(fetch.Options{Timeout: cfg.HTTP.Timeout})
	linkClient := songlink.NewClient(httpClient, cfg.Links.BaseURL, cfg.Links.APIKey, cfg.Links.UserCountry)
	catalogClient := spotify.NewClient(httpClient, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		ArtistID:     cfg.Spotify.ArtistID,
		AccountsURL:  cfg.Spotify.AccountsURL,
		APIURL:       cfg.Spotify.APIURL,
	}, appLogger.Logger)
	if cfg.Links.APIKey == "" {
		appLogger.Warn("Songlink API key not set, platform links fall back to search URLs")
	}
	if !catalogClient.Configured() {
		appLogger.Warn("Spotify credentials not set, catalog endpoints will be empty")
	}

	// STEP 6: services
	feedService := service.NewFeedService(
		httpClient,
		newStore[service.FeedSnapshot](rdb, "feed", 1, cfg.Feed.CacheTTL),
		service.FeedConfig{URL: cfg.Feed.URL, Author: cfg.Feed.Author, MaxPosts: cfg.Feed.MaxPosts},
		appLogger.Logger,
	)
	linkService := service.NewPlatformLinkService(
		linkClient,
		newStore[*domain.PlatformLinksResponse](rdb, "links", cfg.Links.CacheSize, cfg.Links.CacheTTL),
		appLogger.Logger,
	)
	catalogService := service.NewCatalogService(
		catalogClient,
		newStore[[]domain.Track](rdb, "catalog", 1, cfg.Spotify.CacheTTL),
		appLogger.Logger,
	)
	analyticsService := service.NewAnalyticsService(clickRepo, appLogger.Logger)

	handler := httpHandler.NewHandler(httpHandler.Services{
		Feed:      feedService,
		Links:     linkService,
		Catalog:   catalogService,
		Analytics: analyticsService,
	}, appLogger.Logger, cfg.App.ArtistName)

	// STEP 7: routes
	var clickMiddleware []func(http.Handler) http.Handler
	if cfg.App.RateLimitEnabled {
		if rdb != nil {
			limiter := ratelimit.New(rdb, "click", cfg.App.RateLimitPerMinute, time.Minute)
			clickMiddleware = append(clickMiddleware, httpHandler.RateLimitMiddleware(limiter, appLogger.Logger))
			appLogger.Info("Rate limiting enabled", "requests_per_minute", cfg.App.RateLimitPerMinute)
		} else {
			appLogger.Warn("Rate limiting needs Redis, continuing without it")
		}
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, clickMiddleware...)
	if cfg.App.EnableMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// STEP 8: middleware, outermost first
	finalHandler := httpHandler.Chain(
		httpHandler.RequestIDMiddleware,
		httpHandler.RecoveryMiddleware(appLogger),
		httpHandler.LoggingMiddleware(appLogger),
		httpHandler.MetricsMiddleware,
		httpHandler.CORSMiddleware,
		httpHandler.TimeoutMiddleware(cfg.Server.WriteTimeout),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", "error", err)
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// STEP 9: graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited gracefully")
}
