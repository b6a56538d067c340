package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/routhusundeep/ai-job-assistant/internal/repository"
)

// JobRepo implements repository.JobStore
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new job posting repository
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Insert stores a job posting, ignoring duplicates by URL.
func (r *JobRepo) Insert(ctx context.Context, job *repository.JobPosting) (bool, error) {
	query := `
		INSERT INTO job_postings (job_id, title, company, company_url, recruiter_url, salary_min, salary_max, description, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO NOTHING
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		job.JobID, job.Title, job.Company, job.CompanyURL, job.RecruiterURL,
		job.SalaryMin, job.SalaryMax, job.Description, job.URL)
	if err != nil {
		return false, fmt.Errorf("failed to insert job posting: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a posting by job id
func (r *JobRepo) GetByID(ctx context.Context, jobID string) (*repository.JobPosting, error) {
	query := `
		SELECT job_id, title, company, COALESCE(company_url, ''), COALESCE(recruiter_url, ''),
		       salary_min, salary_max, description, url, created_at
		FROM job_postings
		WHERE job_id = $1
	`
	var job repository.JobPosting
	err := r.db.Pool.QueryRow(ctx, query, jobID).Scan(
		&job.JobID, &job.Title, &job.Company, &job.CompanyURL, &job.RecruiterURL,
		&job.SalaryMin, &job.SalaryMax, &job.Description, &job.URL, &job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return &job, nil
}

// ListForRanking returns every posting with a job id, empty descriptions
// included so the ranking stage can report them as skipped.
func (r *JobRepo) ListForRanking(ctx context.Context) ([]*repository.JobPosting, error) {
	query := `
		SELECT job_id, title, company, description, url, created_at
		FROM job_postings
		WHERE job_id IS NOT NULL
		ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list job postings: %w", err)
	}
	defer rows.Close()

	var jobs []*repository.JobPosting
	for rows.Next() {
		var job repository.JobPosting
		if err := rows.Scan(&job.JobID, &job.Title, &job.Company, &job.Description, &job.URL, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job posting: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job postings: %w", err)
	}
	return jobs, nil
}

// Ensure JobRepo implements JobStore interface.
var _ repository.JobStore = (*JobRepo)(nil)
