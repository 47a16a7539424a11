package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/providers"
	"mediaworker/internal/storage"
)

// videoResult is the result column payload for completed video jobs. The
// dashboard reads these keys verbatim; the media url is the signed url.
type videoResult struct {
	AssetID  string `json:"assetId"`
	MediaURL string `json:"mediaUrl"`
}

// VideoHandler advances the async video saga one step per invocation:
// submit on the first pass, then poll on each subsequent pass until the
// vendor reports completion, then fetch, upload and record. The sub-state
// lives entirely in the job row's provider_ref, so any invocation can pick
// the job up where the last one left it.
type VideoHandler struct {
	registry providers.Registry
	uploader uploader
	assets   domain.AssetRepository
	jobs     domain.JobRepository
	log      infra.Logger
	now      func() time.Time
}

// NewVideoHandler builds the video workflow.
func NewVideoHandler(registry providers.Registry, up uploader, assets domain.AssetRepository, jobs domain.JobRepository, log infra.Logger) *VideoHandler {
	return &VideoHandler{
		registry: registry,
		uploader: up,
		assets:   assets,
		jobs:     jobs,
		log:      log,
		now:      time.Now,
	}
}

// Handle performs the next saga transition. It returns a nil payload with a
// nil error while the operation is still in flight.
func (h *VideoHandler) Handle(ctx context.Context, job domain.Job) ([]byte, error) {
	adapter, ok := h.registry.For(job.Provider)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", job.Provider)
	}

	if job.ProviderRef == "" {
		return nil, h.submit(ctx, adapter, job)
	}

	status, err := adapter.PollVideoStatus(ctx, job.ProviderRef)
	if err != nil {
		return nil, err
	}

	if !status.Done {
		progress := EstimateProgress(h.elapsed(job))
		if err := h.jobs.SetProgress(ctx, job.ID, progress); err != nil {
			h.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to update progress")
		}
		h.log.Debug().Str("job_id", job.ID).Int("progress", progress).Msg("video still rendering")
		return nil, nil
	}

	if status.ErrorMessage != "" {
		return nil, errors.New(status.ErrorMessage)
	}
	if status.VideoURI == "" {
		return nil, &domain.ValidationError{Reason: "vendor reported completion without a video uri"}
	}

	return h.finalize(ctx, adapter, job, status.VideoURI)
}

func (h *VideoHandler) submit(ctx context.Context, adapter providers.Adapter, job domain.Job) error {
	spec := providers.VideoSpec{
		Prompt:            job.Input.Prompt,
		Seconds:           job.Input.Seconds,
		AspectRatio:       job.Input.AspectRatio,
		FormatName:        job.Input.FormatName,
		FormatDescription: job.Input.FormatDescription,
	}

	ref, err := adapter.StartVideoGeneration(ctx, spec)
	if err != nil {
		return err
	}
	if err := h.jobs.SetVideoOperation(ctx, job.ID, ref, 10); err != nil {
		return fmt.Errorf("record video operation: %w", err)
	}
	h.log.Info().Str("job_id", job.ID).Str("provider_ref", ref).Msg("video generation submitted")
	return nil
}

func (h *VideoHandler) finalize(ctx context.Context, adapter providers.Adapter, job domain.Job, videoURI string) ([]byte, error) {
	data, err := adapter.DownloadVideo(ctx, videoURI)
	if err != nil {
		return nil, err
	}

	scope := storage.Scope{StoreID: job.StoreID, StoreSlug: job.Input.StoreSlug, UserID: job.UserID}
	stored, err := h.uploader.Upload(ctx, scope, domain.AssetKindVideo, data, "video/mp4")
	if err != nil {
		return nil, err
	}
	mediaURL := stored.SignedURL
	if mediaURL == "" {
		mediaURL = stored.PublicURL
	}
	if mediaURL == "" {
		return nil, &domain.ValidationError{Reason: "upload produced no url"}
	}

	asset := &domain.Asset{
		ID:              stored.AssetID,
		JobID:           job.ID,
		StoreID:         job.StoreID,
		UserID:          job.UserID,
		Type:            domain.AssetKindVideo,
		Provider:        job.Provider,
		ProviderModel:   job.ProviderModel,
		Prompt:          job.Input.Prompt,
		StoragePath:     stored.Path,
		Filename:        stored.Filename,
		SignedURL:       stored.SignedURL,
		SignedExpiresAt: stored.SignedExpiresAt,
		MIMEType:        "video/mp4",
	}
	if err := h.assets.Insert(ctx, asset); err != nil {
		return nil, fmt.Errorf("record asset: %w", err)
	}

	return json.Marshal(videoResult{AssetID: stored.AssetID, MediaURL: mediaURL})
}

func (h *VideoHandler) elapsed(job domain.Job) time.Duration {
	start := job.CreatedAt
	if job.StartedAt != nil {
		start = *job.StartedAt
	}
	return h.now().Sub(start)
}
