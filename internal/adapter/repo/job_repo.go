package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository against PostgreSQL.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by the given executor.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// FetchRunnable returns the oldest jobs the worker can advance, bounded by
// limit: queued jobs of any type plus processing video jobs awaiting their
// next transition.
func (r *JobRepositoryPG) FetchRunnable(ctx context.Context, limit int) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx, sqlinline.QFetchRunnableJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch runnable jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var (
			job   domain.Job
			input []byte
		)
		if err := rows.Scan(
			&job.ID,
			&job.StoreID,
			&job.UserID,
			&job.Type,
			&job.Provider,
			&job.ProviderModel,
			&job.Status,
			&input,
			&job.ProviderRef,
			&job.Progress,
			&job.ErrorMessage,
			&job.ErrorCode,
			&job.CreatedAt,
			&job.StartedAt,
			&job.CompletedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		if len(input) > 0 {
			if err := json.Unmarshal(input, &job.Input); err != nil {
				return nil, fmt.Errorf("decode job input %s: %w", job.ID, err)
			}
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimQueued performs the conditional queued-to-processing transition. The
// update only matches rows still in queued, so two overlapping invocations
// cannot both claim the same job; the loser observes zero rows and backs off.
func (r *JobRepositoryPG) ClaimQueued(ctx context.Context, jobID string) (bool, error) {
	var id string
	err := r.db.QueryRow(ctx, sqlinline.QClaimQueuedJob, jobID).Scan(&id)
	if err != nil {
		if infra.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim job %s: %w", jobID, err)
	}
	return true, nil
}

// SetVideoOperation records the vendor operation handle after submit.
func (r *JobRepositoryPG) SetVideoOperation(ctx context.Context, jobID, providerRef string, progress int) error {
	if _, err := r.db.Exec(ctx, sqlinline.QSetVideoOperation, jobID, providerRef, progress); err != nil {
		return fmt.Errorf("set video operation %s: %w", jobID, err)
	}
	return nil
}

// SetProgress persists an estimated progress value; the query uses GREATEST
// so the stored value never decreases.
func (r *JobRepositoryPG) SetProgress(ctx context.Context, jobID string, progress int) error {
	if _, err := r.db.Exec(ctx, sqlinline.QSetJobProgress, jobID, progress); err != nil {
		return fmt.Errorf("set progress %s: %w", jobID, err)
	}
	return nil
}

// MarkDone finalizes a processing job with its result payload. Terminal rows
// are excluded by the status guard in the query.
func (r *JobRepositoryPG) MarkDone(ctx context.Context, jobID string, result []byte) error {
	if _, err := r.db.Exec(ctx, sqlinline.QMarkJobDone, jobID, result); err != nil {
		return fmt.Errorf("mark done %s: %w", jobID, err)
	}
	return nil
}

// MarkFailed finalizes a processing job with the captured error.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, message, code string) error {
	if _, err := r.db.Exec(ctx, sqlinline.QMarkJobFailed, jobID, message, code); err != nil {
		return fmt.Errorf("mark failed %s: %w", jobID, err)
	}
	return nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
