package domain

import "context"

// JobRepository defines the worker's read/write contract against the job
// store. The worker is the sole mutator of status, progress, provider_ref,
// result and error fields; job rows themselves are created by an external
// producer.
type JobRepository interface {
	// FetchRunnable returns the oldest jobs the worker can advance: queued
	// jobs of any type plus in-flight video jobs awaiting their next saga
	// transition.
	FetchRunnable(ctx context.Context, limit int) ([]Job, error)
	// ClaimQueued atomically moves a job from queued to processing and
	// stamps started_at. It reports false when another invocation already
	// claimed the row.
	ClaimQueued(ctx context.Context, jobID string) (bool, error)
	// SetVideoOperation records the vendor-assigned async operation handle
	// after the submit step.
	SetVideoOperation(ctx context.Context, jobID, providerRef string, progress int) error
	// SetProgress persists an estimated progress value. Writes never lower
	// the stored progress.
	SetProgress(ctx context.Context, jobID string, progress int) error
	// MarkDone finalizes a job with its result payload and progress=100.
	MarkDone(ctx context.Context, jobID string, result []byte) error
	// MarkFailed finalizes a job with an error message and code.
	MarkFailed(ctx context.Context, jobID, message, code string) error
}

// AssetRepository persists generated assets.
type AssetRepository interface {
	Insert(ctx context.Context, asset *Asset) error
}
