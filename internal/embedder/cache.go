package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/routhusundeep/ai-job-assistant/internal/repository"
)

// JobText pairs a job id with the text to embed for it.
type JobText struct {
	JobID string
	Text  string
}

// Cache is the persistent embedding cache. Entries are keyed by
// (subject id, model); each entry carries the SHA-256 hash of the text it
// was computed from, and a hash mismatch on read counts as a miss so a
// changed text can never serve a stale vector.
type Cache struct {
	store    repository.EmbeddingStore
	embedder Embedder
	logger   *slog.Logger
}

// NewCache creates a cache backed by the given store and embedder.
func NewCache(store repository.EmbeddingStore, emb Embedder, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, embedder: emb, logger: logger}
}

// HashText returns the hex SHA-256 content hash used for cache invalidation.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ResumeVector returns the cached resume embedding, computing and persisting
// it on a miss. The resume always embeds in the query role.
func (c *Cache) ResumeVector(ctx context.Context, resumePath, text string) ([]float32, error) {
	model := c.embedder.ModelName()
	hash := HashText(text)

	rec, err := c.store.FetchResumeEmbedding(ctx, resumePath, model)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to read resume embedding cache: %w", err)
	}
	if rec != nil && rec.ContentHash == hash {
		return rec.Vector, nil
	}

	c.logger.Info("embedding resume", "path", resumePath, "model", model)
	vector, err := c.embedder.Embed(ctx, text, RoleQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed resume: %w", err)
	}
	if err := c.store.UpsertResumeEmbedding(ctx, resumePath, model, hash, vector); err != nil {
		return nil, fmt.Errorf("failed to persist resume embedding: %w", err)
	}
	return vector, nil
}

// JobVector returns the cached embedding for one job, computing it on a miss.
func (c *Cache) JobVector(ctx context.Context, jobID, text string) ([]float32, error) {
	vectors, err := c.JobVectors(ctx, []JobText{{JobID: jobID, Text: text}})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// JobVectors returns embeddings for all items in input order. Cached entries
// are reused; the misses are computed in one batched call to the embedder
// and persisted individually. Job texts always embed in the passage role.
func (c *Cache) JobVectors(ctx context.Context, items []JobText) ([][]float32, error) {
	if len(items) == 0 {
		return [][]float32{}, nil
	}

	model := c.embedder.ModelName()
	jobIDs := make([]string, len(items))
	for i, item := range items {
		jobIDs[i] = item.JobID
	}

	cached, err := c.store.FetchJobEmbeddings(ctx, jobIDs, model)
	if err != nil {
		return nil, fmt.Errorf("failed to read job embedding cache: %w", err)
	}

	vectors := make([][]float32, len(items))
	var missing []int
	for i, item := range items {
		rec, ok := cached[item.JobID]
		if ok && rec.ContentHash == HashText(item.Text) {
			vectors[i] = rec.Vector
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) > 0 {
		c.logger.Info("embedding new job descriptions", "count", len(missing), "model", model)
		texts := make([]string, len(missing))
		for i, idx := range missing {
			texts[i] = items[idx].Text
		}
		computed, err := c.embedder.EmbedBatch(ctx, texts, RolePassage)
		if err != nil {
			return nil, fmt.Errorf("failed to embed job descriptions: %w", err)
		}
		for i, idx := range missing {
			item := items[idx]
			if err := c.store.UpsertJobEmbedding(ctx, item.JobID, model, HashText(item.Text), computed[i]); err != nil {
				return nil, fmt.Errorf("failed to persist embedding for job %s: %w", item.JobID, err)
			}
			vectors[idx] = computed[i]
		}
	}

	for i, vec := range vectors {
		if len(vec) != len(vectors[0]) {
			return nil, fmt.Errorf("embedding dimension mismatch for job %s: %d != %d", items[i].JobID, len(vec), len(vectors[0]))
		}
	}

	return vectors, nil
}
