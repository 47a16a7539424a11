package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/providers"
	"mediaworker/internal/retry"
	"mediaworker/internal/storage"
)

// resultMeta is the meta block of the result column. The dashboard reads
// these keys verbatim, so the JSON names are part of the external contract.
type resultMeta struct {
	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
	Variations int `json:"variations,omitempty"`
}

// singleImageResult is the result payload for variations == 1.
type singleImageResult struct {
	AssetID  string     `json:"assetId"`
	MediaURL string     `json:"mediaUrl"`
	Meta     resultMeta `json:"meta"`
}

// multiImageResult is the result payload for multi-variation jobs: parallel
// id/url arrays indexed by variation order.
type multiImageResult struct {
	AssetIDs  []string   `json:"assetIds"`
	MediaURLs []string   `json:"mediaUrls"`
	Meta      resultMeta `json:"meta"`
}

// ImageHandler generates N variations sequentially, uploading and recording
// each before starting the next. A variation that fails after all generation
// attempts fails the whole job; assets already recorded stay recorded.
type ImageHandler struct {
	registry providers.Registry
	uploader uploader
	assets   domain.AssetRepository
	jobs     domain.JobRepository
	generate retry.Policy
	log      infra.Logger
}

// NewImageHandler builds the image workflow. maxAttempts and backoffBase
// shape the per-variation generation retry.
func NewImageHandler(registry providers.Registry, up uploader, assets domain.AssetRepository, jobs domain.JobRepository, maxAttempts int, backoffBase time.Duration, log infra.Logger) *ImageHandler {
	return &ImageHandler{
		registry: registry,
		uploader: up,
		assets:   assets,
		jobs:     jobs,
		generate: retry.Policy{
			MaxAttempts: maxAttempts,
			Backoff:     retry.Exponential(backoffBase),
		},
		log: log,
	}
}

// Handle runs the full image workflow and returns the result payload.
func (h *ImageHandler) Handle(ctx context.Context, job domain.Job) ([]byte, error) {
	adapter, ok := h.registry.For(job.Provider)
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", job.Provider)
	}

	variations := job.Input.Variations
	if variations < 1 {
		variations = 1
	}

	width, height := parseSize(job.Input.Size)
	spec := providers.ImageSpec{
		Prompt:            job.Input.Prompt,
		Width:             width,
		Height:            height,
		AspectRatio:       job.Input.AspectRatio,
		FormatName:        job.Input.FormatName,
		FormatDescription: job.Input.FormatDescription,
	}
	if len(job.Input.InputImages) > 0 {
		spec.SourceImage = &providers.ImageRef{URL: job.Input.InputImages[0]}
	}
	if job.Input.Mask != "" {
		spec.Mask = &providers.ImageRef{URL: job.Input.Mask}
	}

	scope := storage.Scope{StoreID: job.StoreID, StoreSlug: job.Input.StoreSlug, UserID: job.UserID}
	assetIDs := make([]string, 0, variations)
	mediaURLs := make([]string, 0, variations)
	var meta resultMeta

	for i := 1; i <= variations; i++ {
		var generated *providers.GeneratedImage
		err := h.generate.Do(ctx, func(ctx context.Context) error {
			var genErr error
			generated, genErr = adapter.GenerateImage(ctx, spec)
			return genErr
		})
		if err != nil {
			return nil, fmt.Errorf("variation %d/%d: %w", i, variations, err)
		}

		stored, err := h.uploader.Upload(ctx, scope, domain.AssetKindImage, generated.Data, generated.MIME)
		if err != nil {
			return nil, fmt.Errorf("variation %d/%d: %w", i, variations, err)
		}
		mediaURL := stored.PublicURL
		if mediaURL == "" {
			mediaURL = stored.SignedURL
		}
		if mediaURL == "" {
			return nil, &domain.ValidationError{Reason: fmt.Sprintf("variation %d/%d: upload produced no url", i, variations)}
		}

		asset := &domain.Asset{
			ID:            stored.AssetID,
			JobID:         job.ID,
			StoreID:       job.StoreID,
			UserID:        job.UserID,
			Type:          domain.AssetKindImage,
			Provider:      job.Provider,
			ProviderModel: job.ProviderModel,
			Prompt:        job.Input.Prompt,
			StoragePath:   stored.Path,
			Filename:      stored.Filename,
			PublicURL:     stored.PublicURL,
			MIMEType:      generated.MIME,
			Meta: domain.AssetMeta{
				Width:           generated.Width,
				Height:          generated.Height,
				Variation:       i,
				TotalVariations: variations,
			},
		}
		if err := h.assets.Insert(ctx, asset); err != nil {
			return nil, fmt.Errorf("variation %d/%d: record asset: %w", i, variations, err)
		}

		assetIDs = append(assetIDs, stored.AssetID)
		mediaURLs = append(mediaURLs, mediaURL)
		meta.Width = generated.Width
		meta.Height = generated.Height

		progress := 10 + (85*i)/variations
		if err := h.jobs.SetProgress(ctx, job.ID, progress); err != nil {
			h.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to update progress")
		}
	}

	if variations == 1 {
		return json.Marshal(singleImageResult{AssetID: assetIDs[0], MediaURL: mediaURLs[0], Meta: meta})
	}
	meta.Variations = variations
	return json.Marshal(multiImageResult{AssetIDs: assetIDs, MediaURLs: mediaURLs, Meta: meta})
}

// parseSize splits a "WxH" token into pixel dimensions; malformed tokens
// yield zeros and leave sizing to the vendor default.
func parseSize(size string) (int, int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(size)), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0
	}
	return w, h
}
