// Command rank runs one ranking pass from the terminal and prints the top
// results. It shares the pipeline with the rankd service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/routhusundeep/ai-job-assistant/internal/config"
	"github.com/routhusundeep/ai-job-assistant/internal/embedder"
	"github.com/routhusundeep/ai-job-assistant/internal/llm"
	"github.com/routhusundeep/ai-job-assistant/internal/refiner"
	"github.com/routhusundeep/ai-job-assistant/internal/repository/postgres"
	"github.com/routhusundeep/ai-job-assistant/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ranking failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var (
		dbURL       = flag.String("db-url", cfg.DatabaseURL, "PostgreSQL connection URL")
		resumePath  = flag.String("resume", cfg.ResumePath, "Path to the resume text file")
		model       = flag.String("model", cfg.OllamaEmbeddingModel, "Embedding model name")
		useLLM      = flag.Bool("use-llm", false, "Enable LLM reranking (prefers local Ollama, falls back to Gemini/OpenAI)")
		llmProvider = flag.String("llm-provider", "", "Pin the LLM provider (ollama|gemini|openai)")
		llmModel    = flag.String("llm-model", "", "Override the LLM model id")
		llmTopN     = flag.Int("llm-top-n", cfg.RefineTopN, "Number of top jobs to send to the LLM")
		limit       = flag.Int("limit", 5, "Number of top results to print")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := postgres.New(ctx, *dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	newEmbedder := func(model string) embedder.Embedder {
		return embedder.NewOllamaEmbedder(embedder.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   model,
		})
	}

	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	gateway := refiner.NewGateway([]refiner.Provider{
		refiner.NewOllamaProvider(llmClient, cfg.OllamaLLMModel),
		refiner.NewGeminiProvider(cfg.GoogleAPIKey, cfg.GeminiModel),
		refiner.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}, refiner.WithLogger(logger))

	rankSvc := service.NewRankService(
		postgres.NewJobRepo(db),
		postgres.NewScoreRepo(db),
		postgres.NewEmbeddingRepo(db),
		newEmbedder,
		*model,
		gateway,
		logger,
	)

	result, err := rankSvc.Rank(ctx, service.RankRequest{
		ResumePath:  *resumePath,
		Model:       *model,
		UseLLM:      *useLLM,
		LLMProvider: *llmProvider,
		LLMModel:    *llmModel,
		TopN:        *llmTopN,
	})
	if err != nil {
		return err
	}

	printTopResults(result, *limit)

	fmt.Printf("Updated %d records at %s.\n", result.Persisted, result.UpdatedAt.Format("2006-01-02T15:04:05"))
	if result.Failed > 0 {
		fmt.Printf("%d score writes failed; see logs.\n", result.Failed)
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d postings without description text.\n", len(result.Skipped))
	}
	return nil
}

// printTopResults prints the top-N scores in a simple table. A job without
// a refined score prints "-" so absence never reads as zero.
func printTopResults(result *service.RankResult, limit int) {
	if len(result.Ranked) == 0 {
		fmt.Println("No scores to display.")
		return
	}
	if limit > len(result.Ranked) {
		limit = len(result.Ranked)
	}

	fmt.Printf("%-24s %10s %18s\n", "job_id", "score", "llm_refined_score")
	for _, entry := range result.Ranked[:limit] {
		refined := "-"
		if entry.RefinedScore != nil {
			refined = fmt.Sprintf("%.4f", *entry.RefinedScore)
		}
		fmt.Printf("%-24s %10.4f %18s\n", entry.JobID, entry.BaseScore, refined)
	}
}
