// Package repository defines domain models and data access interfaces for job
// postings, cached embeddings, and similarity scores.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// JobPosting represents a scraped job posting stored for ranking
type JobPosting struct {
	JobID        string
	Title        string
	Company      string
	CompanyURL   string
	RecruiterURL string
	SalaryMin    *float64
	SalaryMax    *float64
	Description  string
	URL          string
	CreatedAt    time.Time
}

// Score holds the persisted similarity scores for one job posting.
// RefinedScore is nil when the LLM refinement stage never produced a
// parseable value for this job; callers must not conflate that with 0.
type Score struct {
	JobID        string
	BaseScore    float64
	RefinedScore *float64
	UpdatedAt    time.Time
}

// EmbeddingRecord is a cached embedding vector together with the SHA-256 hash
// of the text it was computed from. A hash mismatch on read means the source
// text changed since the vector was computed and the entry must be treated as
// a cache miss.
type EmbeddingRecord struct {
	Vector      []float32
	ContentHash string
	UpdatedAt   time.Time
}

// JobStore defines operations for job posting persistence
type JobStore interface {
	// Insert stores a job posting. Returns false if a posting with the same
	// URL already existed.
	Insert(ctx context.Context, job *JobPosting) (bool, error)

	// GetByID retrieves a posting by job id.
	GetByID(ctx context.Context, jobID string) (*JobPosting, error)

	// ListForRanking returns every posting that carries a job id, including
	// postings with empty descriptions so the caller can report them as
	// skipped rather than silently dropping them.
	ListForRanking(ctx context.Context) ([]*JobPosting, error)
}

// EmbeddingStore defines operations for the persistent embedding cache.
// Job embeddings are keyed by (job_id, model); the resume embedding is keyed
// by (resume path, model). Writes are single-statement upserts, so concurrent
// ranking runs resolve write races last-writer-wins.
type EmbeddingStore interface {
	FetchJobEmbeddings(ctx context.Context, jobIDs []string, model string) (map[string]EmbeddingRecord, error)
	UpsertJobEmbedding(ctx context.Context, jobID, model, contentHash string, vector []float32) error

	FetchResumeEmbedding(ctx context.Context, resumePath, model string) (*EmbeddingRecord, error)
	UpsertResumeEmbedding(ctx context.Context, resumePath, model, contentHash string, vector []float32) error
}

// ScoreStore defines operations for score persistence
type ScoreStore interface {
	// Upsert writes the base score and, when non-nil, the refined score for
	// one job. Each call is a single statement; a failure affects only this
	// row.
	Upsert(ctx context.Context, jobID string, baseScore float64, refinedScore *float64) error

	// Get retrieves the scores for a single job.
	Get(ctx context.Context, jobID string) (*Score, error)

	// List returns up to limit scores ordered by base score descending.
	List(ctx context.Context, limit int) ([]*Score, error)
}
