package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routhusundeep/ai-job-assistant/internal/config"
	"github.com/routhusundeep/ai-job-assistant/internal/embedder"
	"github.com/routhusundeep/ai-job-assistant/internal/llm"
	"github.com/routhusundeep/ai-job-assistant/internal/refiner"
	"github.com/routhusundeep/ai-job-assistant/internal/repository/postgres"
	"github.com/routhusundeep/ai-job-assistant/internal/server"
	"github.com/routhusundeep/ai-job-assistant/internal/service"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting ranking service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"embedding_model", cfg.OllamaEmbeddingModel,
	)

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	slog.Info("connected to PostgreSQL")

	// Initialize repositories
	jobRepo := postgres.NewJobRepo(db)
	embeddingRepo := postgres.NewEmbeddingRepo(db)
	scoreRepo := postgres.NewScoreRepo(db)

	// Embedders are built per run so a request can pin a model; the models
	// themselves stay loaded in the Ollama runtime across runs.
	newEmbedder := func(model string) embedder.Embedder {
		return embedder.NewOllamaEmbedder(embedder.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   model,
		})
	}

	// Refinement providers, in auto-select order: local runtime first,
	// then the hosted APIs by credential presence.
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	gateway := refiner.NewGateway([]refiner.Provider{
		refiner.NewOllamaProvider(llmClient, cfg.OllamaLLMModel),
		refiner.NewGeminiProvider(cfg.GoogleAPIKey, cfg.GeminiModel),
		refiner.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}, refiner.WithLogger(slog.Default()))

	rankSvc := service.NewRankService(jobRepo, scoreRepo, embeddingRepo, newEmbedder, cfg.OllamaEmbeddingModel, gateway, slog.Default())

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:        cfg.HTTPPort,
		Logger:      slog.Default(),
		APIKey:      cfg.APIKey,
		ResumePath:  cfg.ResumePath,
		DefaultTopN: cfg.RefineTopN,
	}, rankSvc, jobRepo, scoreRepo)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", cfg.HTTPPort)
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
