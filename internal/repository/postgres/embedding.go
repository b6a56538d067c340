package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/routhusundeep/ai-job-assistant/internal/repository"
)

// EmbeddingRepo implements repository.EmbeddingStore
type EmbeddingRepo struct {
	db *DB
}

// NewEmbeddingRepo creates a new embedding cache repository
func NewEmbeddingRepo(db *DB) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// FetchJobEmbeddings returns cached embeddings for the given job ids under
// one model, keyed by job_id. Absent ids are simply missing from the map.
func (r *EmbeddingRepo) FetchJobEmbeddings(ctx context.Context, jobIDs []string, model string) (map[string]repository.EmbeddingRecord, error) {
	if len(jobIDs) == 0 {
		return map[string]repository.EmbeddingRecord{}, nil
	}

	query := `
		SELECT job_id, content_hash, embedding, updated_at
		FROM job_embeddings
		WHERE model_name = $1 AND job_id = ANY($2)
	`
	rows, err := r.db.Pool.Query(ctx, query, model, jobIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job embeddings: %w", err)
	}
	defer rows.Close()

	cached := make(map[string]repository.EmbeddingRecord)
	for rows.Next() {
		var (
			jobID string
			rec   repository.EmbeddingRecord
			blob  []byte
		)
		if err := rows.Scan(&jobID, &rec.ContentHash, &blob, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job embedding: %w", err)
		}
		vector, err := repository.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding for job %s: %w", jobID, err)
		}
		rec.Vector = vector
		cached[jobID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job embeddings: %w", err)
	}
	return cached, nil
}

// UpsertJobEmbedding stores one job embedding, last writer wins.
func (r *EmbeddingRepo) UpsertJobEmbedding(ctx context.Context, jobID, model, contentHash string, vector []float32) error {
	query := `
		INSERT INTO job_embeddings (job_id, model_name, content_hash, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id, model_name) DO UPDATE SET
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			updated_at = now()
	`
	if _, err := r.db.Pool.Exec(ctx, query, jobID, model, contentHash, repository.EncodeVector(vector)); err != nil {
		return fmt.Errorf("failed to upsert job embedding: %w", err)
	}
	return nil
}

// FetchResumeEmbedding retrieves the cached resume embedding if present.
func (r *EmbeddingRepo) FetchResumeEmbedding(ctx context.Context, resumePath, model string) (*repository.EmbeddingRecord, error) {
	query := `
		SELECT content_hash, embedding, updated_at
		FROM resume_embeddings
		WHERE resume_path = $1 AND model_name = $2
	`
	var (
		rec  repository.EmbeddingRecord
		blob []byte
	)
	err := r.db.Pool.QueryRow(ctx, query, resumePath, model).Scan(&rec.ContentHash, &blob, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch resume embedding: %w", err)
	}
	vector, err := repository.DecodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("corrupt resume embedding: %w", err)
	}
	rec.Vector = vector
	return &rec, nil
}

// UpsertResumeEmbedding stores the resume embedding for reuse.
func (r *EmbeddingRepo) UpsertResumeEmbedding(ctx context.Context, resumePath, model, contentHash string, vector []float32) error {
	query := `
		INSERT INTO resume_embeddings (resume_path, model_name, content_hash, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resume_path, model_name) DO UPDATE SET
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			updated_at = now()
	`
	if _, err := r.db.Pool.Exec(ctx, query, resumePath, model, contentHash, repository.EncodeVector(vector)); err != nil {
		return fmt.Errorf("failed to upsert resume embedding: %w", err)
	}
	return nil
}

// Ensure EmbeddingRepo implements EmbeddingStore interface.
var _ repository.EmbeddingStore = (*EmbeddingRepo)(nil)
