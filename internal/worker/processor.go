// Package worker drives queued media-generation jobs through their state
// machine: claim, generate, upload, record. Image jobs complete within one
// invocation; video jobs advance one saga step per invocation and are picked
// up again on the next run.
package worker

import (
	"context"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/storage"
)

// FailureCodeProvider is the single error code written on failed jobs. The
// producer UI keys its retry affordance off this value; the human-readable
// cause lives in the error message.
const FailureCodeProvider = "PROVIDER_ERROR"

// uploader is the storage surface the handlers need.
type uploader interface {
	Upload(ctx context.Context, scope storage.Scope, kind domain.AssetKind, data []byte, mimeType string) (*storage.Result, error)
}

// handler advances one job. A nil result with a nil error means the job made
// progress but is not finished yet (video saga steps); a non-nil result means
// the job is complete and the payload should be persisted with MarkDone.
type handler interface {
	Handle(ctx context.Context, job domain.Job) ([]byte, error)
}

// Processor owns the per-job lifecycle around the type-specific handlers:
// the atomic claim, terminal-state writes, and centralized failure capture.
type Processor struct {
	jobs  domain.JobRepository
	image handler
	video handler
	log   infra.Logger
	now   func() time.Time
}

// NewProcessor wires the processor over its repositories and handlers.
func NewProcessor(jobs domain.JobRepository, image, video handler, log infra.Logger) *Processor {
	return &Processor{jobs: jobs, image: image, video: video, log: log, now: time.Now}
}

// Process advances one fetched job. It reports false when the job was not
// actually run: either another invocation won the claim race, or the row is
// in a state this worker has nothing to do for. Any handler error is recorded
// on the job row before being returned.
func (p *Processor) Process(ctx context.Context, job domain.Job) (bool, error) {
	switch job.Status {
	case domain.JobStatusQueued:
		claimed, err := p.jobs.ClaimQueued(ctx, job.ID)
		if err != nil {
			return false, err
		}
		if !claimed {
			p.log.Debug().Str("job_id", job.ID).Msg("job already claimed, skipping")
			return false, nil
		}
	case domain.JobStatusProcessing:
		// Only the video saga legitimately re-enters processing rows.
		if job.Type != domain.JobTypeVideo {
			return false, nil
		}
	default:
		return false, nil
	}

	result, err := p.dispatch(ctx, job)
	if err != nil {
		p.log.Error().Err(err).
			Str("job_id", job.ID).
			Str("type", string(job.Type)).
			Str("provider", job.Provider).
			Msg("job failed")
		if markErr := p.jobs.MarkFailed(ctx, job.ID, err.Error(), FailureCodeProvider); markErr != nil {
			p.log.Error().Err(markErr).Str("job_id", job.ID).Msg("failed to record job failure")
		}
		return true, err
	}

	if result != nil {
		if err := p.jobs.MarkDone(ctx, job.ID, result); err != nil {
			p.log.Error().Err(err).Str("job_id", job.ID).Msg("failed to record job completion")
			return true, err
		}
		p.log.Info().Str("job_id", job.ID).Str("type", string(job.Type)).Msg("job completed")
	}
	return true, nil
}

func (p *Processor) dispatch(ctx context.Context, job domain.Job) ([]byte, error) {
	switch job.Type {
	case domain.JobTypeImage:
		return p.image.Handle(ctx, job)
	case domain.JobTypeVideo:
		return p.video.Handle(ctx, job)
	default:
		return nil, domain.ErrUnsupportedJobType
	}
}
