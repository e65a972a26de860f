// @title Competitor Discovery API
// @version 1.0.0
// @description Competitor discovery pipeline: run orchestration, candidate
// persistence, and enrichment.
// @license.name MIT
// @BasePath /

package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/compintel/discovery/internal/api"
	"github.com/compintel/discovery/internal/config"
	"github.com/compintel/discovery/internal/dedup"
	"github.com/compintel/discovery/internal/enrichment"
	"github.com/compintel/discovery/internal/extraction/competitor"
	"github.com/compintel/discovery/internal/llmclient"
	"github.com/compintel/discovery/internal/middleware"
	"github.com/compintel/discovery/internal/searchprovider"
	"github.com/compintel/discovery/internal/services"
	pg_store "github.com/compintel/discovery/internal/store/postgres"
	"github.com/compintel/discovery/internal/tracing"
)

const defaultNumWorkers = 3

func main() {
	log.Println("Starting Competitor Discovery API Server...")

	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, continuing with system environment variables")
	}

	appConfig, err := config.LoadWithEnv("")
	if err != nil {
		log.Printf("Warning: failed to load config.json, using environment variables and defaults: %v", err)
	}
	log.Println("Configuration loaded with environment overrides.")

	shutdownTracing, err := tracing.Init(appConfig.Tracing.BackendURL)
	if err != nil {
		log.Printf("Warning: tracing disabled, failed to initialize exporter: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	} else if appConfig.Tracing.BackendURL != "" {
		log.Printf("Tracing enabled, exporting to %s", appConfig.Tracing.BackendURL)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("Warning: tracer shutdown error: %v", err)
		}
	}()

	dsn := config.GetDatabaseDSN(appConfig.Server.DatabaseConfig)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("FATAL: could not connect to PostgreSQL database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(appConfig.Server.DBMaxOpenConns)
	db.SetMaxIdleConns(appConfig.Server.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(appConfig.Server.DBConnMaxLifetimeMinutes) * time.Minute)
	log.Println("Successfully connected to PostgreSQL database.")

	discoveryStore := pg_store.NewDiscoveryStore(db)
	competitorStore := pg_store.NewCompetitorStore(db)
	projectLookup := pg_store.NewProjectLookup(db)
	log.Println("PostgreSQL-backed stores initialized.")

	llmClient := llmclient.New(llmclient.Config{
		APIKey:    appConfig.LLM.APIKey,
		BaseURL:   appConfig.LLM.BaseURL,
		Model:     appConfig.LLM.Model,
		Timeout:   appConfig.LLM.Timeout,
		MaxTokens: appConfig.LLM.MaxTokens,
	})
	embeddingClient := llmclient.NewEmbeddingClient(llmclient.EmbeddingConfig{
		APIKey:  appConfig.Embedding.APIKey,
		BaseURL: appConfig.Embedding.BaseURL,
		Model:   appConfig.Embedding.Model,
		Timeout: appConfig.Embedding.Timeout,
	})

	primaryProvider := searchprovider.NewWebScrapeProvider(searchprovider.PrimaryConfig{
		APIKey:         appConfig.Providers.WebSearchScrape.APIKey,
		BaseURL:        appConfig.Providers.WebSearchScrape.BaseURL,
		SearchTimeout:  appConfig.Providers.WebSearchScrape.SearchTimeout,
		ScrapeTimeout:  appConfig.Providers.WebSearchScrape.ScrapeTimeout,
		MaxContentRead: appConfig.Providers.WebSearchScrape.MaxContentRead,
	})
	fallbackProvider := searchprovider.NewAIFallbackProvider(llmClient)
	providerRegistry := searchprovider.NewRegistry(primaryProvider, fallbackProvider)
	log.Println("Search provider registry initialized (primary + AI fallback).")

	extractor := competitor.New(llmClient)
	deduper := dedup.New(embeddingClient)
	enricher := enrichment.New(primaryProvider, extractor, llmClient)
	log.Println("Extraction, dedup, and enrichment engines initialized.")

	var quotaChecker services.QuotaChecker // nil: quota enforcement is an external billing concern (spec.md §1)

	orchestrator := services.NewDiscoveryOrchestratorService(
		discoveryStore,
		competitorStore,
		projectLookup,
		quotaChecker,
		providerRegistry,
		extractor,
		deduper,
		enricher,
		embeddingClient,
		appConfig,
		db,
	)
	log.Println("DiscoveryOrchestratorService initialized.")

	serverInstanceID, _ := os.Hostname()
	if serverInstanceID == "" {
		serverInstanceID = uuid.NewString()
	}
	workerService := services.NewDiscoveryWorkerService(discoveryStore, orchestrator, serverInstanceID, appConfig, db, dsn)
	log.Println("DiscoveryWorkerService initialized.")

	apiHandler := api.NewAPIHandler(appConfig, db, discoveryStore, competitorStore, orchestrator)
	log.Println("APIHandler initialized.")

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	numWorkers := appConfig.Worker.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	go workerService.StartWorkers(appCtx, numWorkers)
	log.Printf("Started %d discovery worker(s).", numWorkers)

	gin.SetMode(appConfig.Server.GinMode)
	router := gin.Default()

	apiKey := os.Getenv("DISCOVERY_API_KEY")
	if apiKey == "" {
		log.Println("Warning: DISCOVERY_API_KEY not set; protected routes will reject every bearer token")
	}

	rateLimiter := middleware.NewRateLimiter(appConfig.RateLimiter)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-appCtx.Done():
				return
			case <-ticker.C:
				rateLimiter.Cleanup()
			}
		}
	}()

	var rawDB *sql.DB = db.DB
	api.RegisterRoutes(router, apiHandler, rawDB, apiKey, rateLimiter)
	log.Println("Routes registered.")

	port := appConfig.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %s", err)
		}
	}()
	log.Printf("Server starting on %s (Gin Mode: %s)", srv.Addr, appConfig.Server.GinMode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server and workers...")

	appCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("Server and workers exited gracefully.")
}
