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

	"github.com/seunolaitan/abxguide/backend/internal/adapters/cache"
	"github.com/seunolaitan/abxguide/backend/internal/adapters/database"
	"github.com/seunolaitan/abxguide/backend/internal/api/handlers"
	"github.com/seunolaitan/abxguide/backend/internal/api/routes"
	"github.com/seunolaitan/abxguide/backend/internal/application/services"
	"github.com/seunolaitan/abxguide/backend/internal/domain/providers"
	"github.com/seunolaitan/abxguide/backend/internal/domain/repositories"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/clients/postgres"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/clients/redis"
	"github.com/seunolaitan/abxguide/backend/internal/infrastructure/observability"
	"github.com/seunolaitan/abxguide/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

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
		// Continue without Redis - the engine can work without caching
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize adapters

	// Create base corpus adapter
	baseCorpusAdapter := database.NewCorpusAdapter(pgClient)

	// Wrap with caching if Redis is available
	var corpusRepo repositories.GuidelineRepository
	if cacheProvider != nil {
		corpusRepo = database.NewCachedCorpusAdapter(baseCorpusAdapter, cacheProvider, metrics, cfg.Engine.SnapshotCacheTTLSeconds)
		log.Println("Corpus adapter wrapped with caching layer")
	} else {
		corpusRepo = baseCorpusAdapter
		log.Println("Corpus adapter running without cache (Redis unavailable)")
	}

	// Load the clinical lexicon
	var lexicon *services.Lexicon
	if cfg.Engine.LexiconPath != "" {
		lexicon, err = services.LoadLexicon(cfg.Engine.LexiconPath)
		if err != nil {
			log.Fatalf("Failed to load lexicon from %s: %v", cfg.Engine.LexiconPath, err)
		}
		log.Printf("Lexicon loaded from %s", cfg.Engine.LexiconPath)
	} else {
		lexicon = services.DefaultLexicon()
	}

	// Initialize services
	resolver := services.NewResolverService(lexicon)
	eligibility := services.NewEligibilityService(lexicon)
	scoring := services.NewScoringService(lexicon)
	recommendationService := services.NewRecommendationService(
		corpusRepo,
		resolver,
		eligibility,
		scoring,
		metrics,
		cfg.Engine.DefaultLimit,
	)
	matcher := services.NewMatcherService()

	// Initialize handlers
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService, matcher, corpusRepo)
	corpusHandler := handlers.NewCorpusHandler(corpusRepo)

	// Set up router
	router := routes.NewRouter(
		recommendationHandler,
		corpusHandler,
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

	log.Println("Server stopped")
}
