package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthreach/careaccess-backend/internal/adapters/cache"
	"github.com/healthreach/careaccess-backend/internal/adapters/database"
	"github.com/healthreach/careaccess-backend/internal/adapters/events"
	"github.com/healthreach/careaccess-backend/internal/adapters/providers/geolocation"
	"github.com/healthreach/careaccess-backend/internal/api/handlers"
	"github.com/healthreach/careaccess-backend/internal/api/middleware"
	"github.com/healthreach/careaccess-backend/internal/api/routes"
	"github.com/healthreach/careaccess-backend/internal/application/services"
	"github.com/healthreach/careaccess-backend/internal/domain/providers"
	"github.com/healthreach/careaccess-backend/internal/domain/repositories"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/clients/postgres"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/clients/redis"
	"github.com/healthreach/careaccess-backend/internal/infrastructure/observability"
	"github.com/healthreach/careaccess-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
		// Continue without Redis - the application can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time request updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	requestAdapter := database.NewRequestAdapter(pgClient)

	// Wrap the provider adapter with caching if Redis is available
	baseProviderAdapter := database.NewProviderAdapter(pgClient)
	var providerAdapter repositories.ProviderRepository
	if cacheProvider != nil {
		providerAdapter = database.NewCachedProviderAdapter(baseProviderAdapter, cacheProvider)
		log.Println("Provider adapter wrapped with caching layer")
	} else {
		providerAdapter = baseProviderAdapter
		log.Println("Provider adapter running without cache (Redis unavailable)")
	}

	distanceCalculator := geolocation.NewHaversineProvider()

	// Initialize services

	matchingService := services.NewMatchingService(
		distanceCalculator,
		services.MatchingOptionsFromConfig(cfg.Matching),
	)

	requestService := services.NewRequestService(
		requestAdapter,
		providerAdapter,
		matchingService,
		eventBus,
		cfg.Matching.SearchRadiusMiles,
		cfg.Matching.RecommendationLimit,
	)

	providerService := services.NewProviderService(providerAdapter)

	demandService := services.NewDemandAggregationService(
		requestAdapter,
		providerAdapter,
		cfg.Demand.AssumedAvgCapacity,
		cfg.Demand.GridSizeDegrees,
	)

	// Initialize handlers

	requestHandler := handlers.NewRequestHandler(requestService)
	matchHandler := handlers.NewMatchHandler(requestService)
	providerHandler := handlers.NewProviderHandler(providerService)
	demandHandler := handlers.NewDemandHandler(demandService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		requestHandler,
		matchHandler,
		providerHandler,
		demandHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
