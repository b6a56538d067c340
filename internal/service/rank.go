// Package service composes the ranking pipeline: embedding cache, similarity
// index, refinement gateway, and score persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/routhusundeep/ai-job-assistant/internal/embedder"
	"github.com/routhusundeep/ai-job-assistant/internal/index"
	"github.com/routhusundeep/ai-job-assistant/internal/refiner"
	"github.com/routhusundeep/ai-job-assistant/internal/repository"
)

// DefaultTopN is the number of top candidates sent to the refinement stage
// when the caller does not specify one.
const DefaultTopN = 5

// ErrInvalidRequest marks caller-correctable configuration problems: an
// unreadable or empty resume, or an unrecognized refinement provider.
var ErrInvalidRequest = errors.New("invalid ranking request")

// RankRequest parameterizes one ranking run.
type RankRequest struct {
	// ResumePath locates the reference resume text. The path doubles as the
	// cache identity for the resume embedding.
	ResumePath string

	// Model optionally overrides the embedding model for this run. Empty
	// selects the service default.
	Model string

	// UseLLM enables the refinement stage for the top candidates.
	UseLLM bool

	// LLMProvider optionally pins the refinement provider
	// (ollama | gemini | openai). Empty means auto-select.
	LLMProvider string

	// LLMModel optionally overrides the provider's model id.
	LLMModel string

	// TopN is the number of top-ranked jobs sent to refinement. Values
	// below 1 fall back to DefaultTopN.
	TopN int
}

// RankedJob is one entry of the ranking report.
type RankedJob struct {
	JobID        string   `json:"job_id"`
	BaseScore    float64  `json:"base_score"`
	RefinedScore *float64 `json:"refined_score,omitempty"`
}

// RankResult summarizes one completed ranking run.
type RankResult struct {
	RunID     uuid.UUID   `json:"run_id"`
	Ranked    []RankedJob `json:"ranked"`
	Skipped   []string    `json:"skipped,omitempty"`
	Persisted int         `json:"persisted"`
	Failed    int         `json:"failed"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// EmbedderFactory builds an embedder for a model id. The Ollama-backed
// embedder is a stateless client, so per-run construction is cheap; the
// model itself stays loaded in the runtime across runs.
type EmbedderFactory func(model string) embedder.Embedder

// RankService runs the ranking pipeline end to end.
type RankService struct {
	jobs         repository.JobStore
	scores       repository.ScoreStore
	embeddings   repository.EmbeddingStore
	newEmbedder  EmbedderFactory
	defaultModel string
	gateway      *refiner.Gateway
	logger       *slog.Logger
}

// NewRankService creates a new RankService. defaultModel is the embedding
// model used when a run does not name one.
func NewRankService(
	jobs repository.JobStore,
	scores repository.ScoreStore,
	embeddings repository.EmbeddingStore,
	newEmbedder EmbedderFactory,
	defaultModel string,
	gateway *refiner.Gateway,
	logger *slog.Logger,
) *RankService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankService{
		jobs:         jobs,
		scores:       scores,
		embeddings:   embeddings,
		newEmbedder:  newEmbedder,
		defaultModel: defaultModel,
		gateway:      gateway,
		logger:       logger,
	}
}

// Rank executes one ranking run: load or compute the resume and job
// embeddings, rank every job against the resume, optionally refine the top
// slice, and persist the scores. An unreadable or empty resume and an
// unreachable embedding backend are fatal; an empty corpus is an empty
// result; jobs without description text are skipped and reported.
func (s *RankService) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	runID := uuid.New()
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	logger := s.logger.With("run_id", runID, "model", model)
	cache := embedder.NewCache(s.embeddings, s.newEmbedder(model), logger)

	resumeText, err := LoadReferenceText(req.ResumePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	jobs, err := s.jobs.ListForRanking(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load job postings: %w", err)
	}

	var (
		items   []embedder.JobText
		skipped []string
	)
	for _, job := range jobs {
		if !hasText(job.Description) {
			skipped = append(skipped, job.JobID)
			continue
		}
		items = append(items, embedder.JobText{JobID: job.JobID, Text: job.Description})
	}
	if len(skipped) > 0 {
		logger.Warn("skipping jobs without description text", "count", len(skipped))
	}

	result := &RankResult{
		RunID:     runID,
		Ranked:    []RankedJob{},
		Skipped:   skipped,
		UpdatedAt: time.Now().UTC(),
	}
	if len(items) == 0 {
		logger.Info("no rankable job postings")
		return result, nil
	}

	resumeVector, err := cache.ResumeVector(ctx, req.ResumePath, resumeText)
	if err != nil {
		return nil, err
	}

	vectors, err := cache.JobVectors(ctx, items)
	if err != nil {
		return nil, err
	}

	// Building the index first validates every job vector against the
	// resume dimension; a cached vector that drifted from the model's
	// output width must fail the run, not corrupt it. The exhaustive dot
	// products computed after are the persisted base scores.
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.JobID
	}

	flat := index.NewFlat(len(resumeVector))
	if err := flat.Add(ids, vectors); err != nil {
		return nil, fmt.Errorf("failed to build similarity index: %w", err)
	}
	order, err := flat.Search(resumeVector, 0)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	baseScores := make(map[string]float64, len(items))
	for i, item := range items {
		baseScores[item.JobID] = index.Dot(resumeVector, vectors[i])
	}

	refined := map[string]float64{}
	if req.UseLLM {
		refined, err = s.refineTop(ctx, req, order, items, baseScores, logger)
		if err != nil {
			return nil, err
		}
	}

	for _, hit := range order {
		entry := RankedJob{JobID: hit.ID, BaseScore: baseScores[hit.ID]}
		if value, ok := refined[hit.ID]; ok {
			v := value
			entry.RefinedScore = &v
		}
		result.Ranked = append(result.Ranked, entry)
	}

	// One upsert per row: a failed write must not abort the remaining rows.
	for _, entry := range result.Ranked {
		if err := s.scores.Upsert(ctx, entry.JobID, entry.BaseScore, entry.RefinedScore); err != nil {
			logger.Error("failed to persist score", "job_id", entry.JobID, "error", err)
			result.Failed++
			continue
		}
		result.Persisted++
	}

	logger.Info("ranking run complete",
		"ranked", len(result.Ranked),
		"skipped", len(result.Skipped),
		"refined", len(refined),
		"persisted", result.Persisted,
		"failed", result.Failed,
	)
	return result, nil
}

// refineTop sends the top-N ranked jobs to the refinement gateway.
func (s *RankService) refineTop(
	ctx context.Context,
	req RankRequest,
	order []index.Result,
	items []embedder.JobText,
	baseScores map[string]float64,
	logger *slog.Logger,
) (map[string]float64, error) {
	topN := req.TopN
	if topN < 1 {
		topN = DefaultTopN
	}
	if topN > len(order) {
		topN = len(order)
	}

	texts := make(map[string]string, len(items))
	for _, item := range items {
		texts[item.JobID] = item.Text
	}

	candidates := make([]refiner.Candidate, 0, topN)
	for _, hit := range order[:topN] {
		candidates = append(candidates, refiner.Candidate{
			JobID:       hit.ID,
			Score:       baseScores[hit.ID],
			Description: texts[hit.ID],
		})
	}

	logger.Info("requesting LLM refinement", "candidates", len(candidates), "provider", req.LLMProvider)
	refined, err := s.gateway.Refine(ctx, candidates, refiner.Options{
		Provider: req.LLMProvider,
		Model:    req.LLMModel,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	logger.Info("LLM refinement returned scores", "count", len(refined))
	return refined, nil
}
