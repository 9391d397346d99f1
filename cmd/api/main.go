package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gotham-app/backend/internal/adapters/cache"
	"github.com/gotham-app/backend/internal/adapters/events"
	"github.com/gotham-app/backend/internal/adapters/stores"
	"github.com/gotham-app/backend/internal/api/handlers"
	"github.com/gotham-app/backend/internal/api/middleware"
	"github.com/gotham-app/backend/internal/api/routes"
	"github.com/gotham-app/backend/internal/application/services"
	"github.com/gotham-app/backend/internal/domain/providers"
	"github.com/gotham-app/backend/internal/infrastructure/clients/redis"
	"github.com/gotham-app/backend/internal/infrastructure/observability"
	"github.com/gotham-app/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	loc, err := cfg.Clock.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid time zone")
	}

	store, err := stores.Open(ctx, cfg, time.Now)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("error closing store")
		}
	}()
	log.Info().Str("driver", store.Driver).Msg("store ready")

	checks := map[string]handlers.Pinger{}
	if store.Ping != nil {
		checks[store.Driver] = handlers.PingerFunc(store.Ping)
	}

	// Redis backs the popularity cache and the cross-process event bus.
	// Without it the API still serves, with events kept in-process.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			checks["redis"] = redisClient
		}
	}
	if eventBus == nil {
		eventBus = events.NewLocalEventBus()
		log.Info().Msg("using in-process event bus")
	}

	searchService := services.NewSearchService(store.Places, store.Likes, cfg.Search.DefaultLimit, cfg.Search.MaxCandidates)
	engagementService := services.NewEngagementService(store.Places, store.Likes, eventBus, metrics)
	checkinService := services.NewCheckinService(store.Places, store.Checkins, eventBus,
		services.CheckinPolicy{
			EnforceProximity:  cfg.Checkin.EnforceProximity,
			MaxDistanceMeters: cfg.Checkin.MaxDistanceMeters,
		},
		time.Now, loc, metrics)
	occupancyService := services.NewOccupancyService(store.Places, eventBus, metrics)
	popularCache, cacheInvalidationService, err := services.StartPopularCache(cacheProvider, eventBus, loc, time.Now)
	if err != nil {
		log.Warn().Err(err).Msg("failed to start cache invalidation, popularity cache disabled")
	}
	popularityService := services.NewPopularityService(store.Places, store.Likes, store.Checkins, popularCache,
		services.PopularityOptions{
			TopN:            cfg.Popularity.TopN,
			CacheTTLSeconds: cfg.Popularity.CacheTTLSeconds,
			Location:        loc,
		}, metrics)
	profileService := services.NewProfileService(store.Places, store.Likes, store.Checkins, cfg.Listing.DefaultLimit)


	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()

	router := routes.NewRouter(
		handlers.NewPlaceHandler(searchService, engagementService, checkinService, occupancyService),
		handlers.NewPopularHandler(popularityService),
		handlers.NewProfileHandler(profileService),
		handlers.NewHealthHandler(checks),
		middleware.NewAuthenticator(cfg.Auth),
		limiter,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
