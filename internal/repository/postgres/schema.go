package postgres

import (
	"context"
	"fmt"
)

// ddl mirrors the tables the ranking pipeline depends on. job_postings is
// populated by the external scraping pipeline; scores and the two embedding
// caches are owned here.
const ddl = `
CREATE TABLE IF NOT EXISTS job_postings (
    id BIGSERIAL PRIMARY KEY,
    job_id TEXT,
    title TEXT NOT NULL,
    company TEXT NOT NULL,
    company_url TEXT,
    recruiter_url TEXT,
    salary_min DOUBLE PRECISION,
    salary_max DOUBLE PRECISION,
    description TEXT NOT NULL,
    url TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_job_postings_job_id
    ON job_postings(job_id)
    WHERE job_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS scores (
    job_id TEXT PRIMARY KEY,
    score DOUBLE PRECISION,
    llm_refined_score DOUBLE PRECISION,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_embeddings (
    job_id TEXT NOT NULL,
    model_name TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    embedding BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (job_id, model_name)
);

CREATE TABLE IF NOT EXISTS resume_embeddings (
    resume_path TEXT NOT NULL,
    model_name TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    embedding BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (resume_path, model_name)
);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
