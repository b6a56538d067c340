package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/routhusundeep/ai-job-assistant/internal/repository"
)

// ScoreRepo implements repository.ScoreStore
type ScoreRepo struct {
	db *DB
}

// NewScoreRepo creates a new score repository
func NewScoreRepo(db *DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

// Upsert writes the scores for one job in a single statement. The base score
// is always overwritten; the refined score is overwritten only when non-nil,
// so a run without refinement keeps whatever an earlier run produced.
func (r *ScoreRepo) Upsert(ctx context.Context, jobID string, baseScore float64, refinedScore *float64) error {
	query := `
		INSERT INTO scores (job_id, score, llm_refined_score)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET
			score = excluded.score,
			llm_refined_score = COALESCE(excluded.llm_refined_score, scores.llm_refined_score),
			updated_at = now()
	`
	if _, err := r.db.Pool.Exec(ctx, query, jobID, baseScore, refinedScore); err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

// Get retrieves the scores for a single job
func (r *ScoreRepo) Get(ctx context.Context, jobID string) (*repository.Score, error) {
	query := `
		SELECT job_id, score, llm_refined_score, updated_at
		FROM scores
		WHERE job_id = $1
	`
	var score repository.Score
	err := r.db.Pool.QueryRow(ctx, query, jobID).Scan(
		&score.JobID, &score.BaseScore, &score.RefinedScore, &score.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return &score, nil
}

// List returns up to limit scores ordered by base score descending
func (r *ScoreRepo) List(ctx context.Context, limit int) ([]*repository.Score, error) {
	query := `
		SELECT job_id, score, llm_refined_score, updated_at
		FROM scores
		ORDER BY score DESC
		LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*repository.Score
	for rows.Next() {
		var score repository.Score
		if err := rows.Scan(&score.JobID, &score.BaseScore, &score.RefinedScore, &score.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, &score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scores: %w", err)
	}
	return scores, nil
}

// Ensure ScoreRepo implements ScoreStore interface.
var _ repository.ScoreStore = (*ScoreRepo)(nil)
