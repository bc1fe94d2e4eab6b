package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lenslabs/paperlens/internal/analysis"
	"github.com/lenslabs/paperlens/internal/arxiv"
	"github.com/lenslabs/paperlens/internal/config"
	"github.com/lenslabs/paperlens/internal/database"
	"github.com/lenslabs/paperlens/internal/handler"
	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/qa"
	"github.com/lenslabs/paperlens/internal/retriever"
	"github.com/lenslabs/paperlens/internal/scheduler"
	"github.com/lenslabs/paperlens/internal/service"
	"github.com/lenslabs/paperlens/internal/worker"
	"github.com/lenslabs/paperlens/pkg/middleware"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	config.InitLogger(cfg)

	slog.Info("Starting PaperLens Analysis Service", "version", version)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job store: MongoDB when enabled, in-memory otherwise
	var (
		db       *database.MongoDB
		jobStore service.JobStore
		purger   scheduler.JobPurger
	)

	if cfg.MongoEnabled {
		var err error
		db, err = database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			slog.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				slog.Error("Failed to disconnect from MongoDB", "error", err)
			}
		}()

		if err := database.CreateIndexes(ctx, db); err != nil {
			slog.Error("Failed to create indexes", "error", err)
			os.Exit(1)
		}

		repo := database.NewJobRepository(db)
		jobStore = repo
		purger = repo
	} else {
		slog.Info("MongoDB disabled, using in-memory job store")
		store := model.NewMemoryJobStore()
		jobStore = store
		purger = store
	}

	// Initialize the paper retrieval stack
	arxivClient := arxiv.NewClient(cfg.ArxivBaseURL, cfg.ArxivTimeout)

	blobStore, err := retriever.NewFSStore(cfg.PapersDir)
	if err != nil {
		slog.Error("Failed to initialize paper cache", "error", err)
		os.Exit(1)
	}

	paperRetriever := retriever.NewRetriever(arxivClient, blobStore, cfg.FetchConcurrency)

	// Initialize the QA engine
	engine, err := qa.NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxCorpusDocChars, cfg.GeminiTimeout)
	if err != nil {
		slog.Error("Failed to initialize QA engine", "error", err)
		os.Exit(1)
	}

	// Initialize the pipeline executor
	analyzer := analysis.NewExecutor(engine, analysis.PDFText)
	executor := service.NewPipelineExecutor(
		paperRetriever,
		analyzer,
		engine,
		analysis.PDFText,
		cfg.CodeArtifactPath,
		cfg.DefaultMaxResults,
	)

	// Initialize worker pool and orchestrator
	pool := worker.NewPool(cfg.WorkerPoolSize, cfg.JobQueueSize)
	orchestrator := service.NewOrchestrator(jobStore, pool, executor)
	orchestrator.Start()

	// Initialize janitor
	janitor := scheduler.NewJanitor(cfg, purger)
	if err := janitor.Start(); err != nil {
		slog.Error("Failed to start janitor", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	jobHandler := handler.NewJobHandler(orchestrator)
	healthHandler := handler.NewHealthHandler(db, version)

	// Create CORS config
	corsConfig := middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	}

	// Create router
	router := handler.NewRouter(jobHandler, healthHandler, corsConfig)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("Received shutdown signal, initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new jobs arrive
	slog.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Stop janitor
	janitor.Stop(shutdownCtx)

	// Drain and stop the worker pool
	slog.Info("Stopping worker pool...")
	orchestrator.Stop()

	slog.Info("PaperLens Analysis Service stopped")
}
