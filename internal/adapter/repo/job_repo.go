package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidgen/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

const jobColumns = `id, camera_control, video_size, duration_seconds, small_image_url, prompt, prediction_id, status, error_message, video_url, created_at, updated_at`

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1;`, jobColumns)
	return r.scanJob(r.pool.QueryRow(ctx, query, jobID))
}

// GetByPredictionID fetches the job holding the given prediction handle.
func (r *JobRepositoryPG) GetByPredictionID(ctx context.Context, predictionID string) (*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE prediction_id = $1;`, jobColumns)
	return r.scanJob(r.pool.QueryRow(ctx, query, predictionID))
}

// ListGenerating returns up to limit jobs still waiting on the external
// prediction service, oldest first.
func (r *JobRepositoryPG) ListGenerating(ctx context.Context, limit int) ([]*domain.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE status = 'generating' ORDER BY updated_at ASC LIMIT $1;`, jobColumns)
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*domain.Job
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetUploaded records the signed small-image URL after upload.
func (r *JobRepositoryPG) SetUploaded(ctx context.Context, jobID, smallImageURL string) error {
	query := `
UPDATE jobs
SET small_image_url = $2,
    updated_at = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, smallImageURL)
	return err
}

// MarkGenerating records prompt and prediction handle and moves the job to
// generating. The guards keep the handle write-once and leave terminal rows
// untouched; a guarded write that matches no row is a conflict, never a
// silent success.
func (r *JobRepositoryPG) MarkGenerating(ctx context.Context, jobID, prompt, predictionID string) error {
	query := `
UPDATE jobs
SET prompt = $2,
    prediction_id = $3,
    status = 'generating',
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('succeeded', 'failed')
  AND (prediction_id IS NULL OR prediction_id = '');
`
	tag, err := r.pool.Exec(ctx, query, jobID, prompt, predictionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: job %s is finished or already has a prediction", domain.ErrConflict, jobID)
	}
	return nil
}

// MarkTerminal moves the job to succeeded or failed. Terminal rows are never
// overwritten, so the transition is monotonic under concurrent pollers.
func (r *JobRepositoryPG) MarkTerminal(ctx context.Context, jobID string, status domain.JobStatus, videoURL, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	query := `
UPDATE jobs
SET status = $2,
    video_url = CASE WHEN $2 = 'succeeded' THEN $3 ELSE video_url END,
    error_message = CASE WHEN $2 = 'failed' THEN $4 ELSE error_message END,
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('succeeded', 'failed');
`
	_, err := r.pool.Exec(ctx, query, jobID, status, videoURL, errMsg)
	return err
}

func (r *JobRepositoryPG) scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.CameraControl,
		&job.VideoSize,
		&job.Duration,
		&job.SmallImageURL,
		&job.Prompt,
		&job.PredictionID,
		&job.Status,
		&job.ErrorMessage,
		&job.VideoURL,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
