package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/providers"
)

func newVideoHandler(adapter *fakeAdapter, up *fakeUploader, assets *fakeAssetRepo, jobs *fakeJobRepo) *VideoHandler {
	registry := providers.Registry{domain.ProviderGemini: adapter}
	return NewVideoHandler(registry, up, assets, jobs, testLogger())
}

func TestVideoHandleSubmitStep(t *testing.T) {
	adapter := &fakeAdapter{startRef: "operations/op-123"}
	jobs := newFakeJobRepo()
	h := newVideoHandler(adapter, &fakeUploader{}, &fakeAssetRepo{}, jobs)

	result, err := h.Handle(context.Background(), videoJob("job-1"))
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result != nil {
		t.Fatal("submit step must not complete the job")
	}
	if jobs.operations["job-1"] != "operations/op-123" {
		t.Fatalf("provider ref = %q", jobs.operations["job-1"])
	}
	if got := jobs.progress["job-1"]; len(got) != 1 || got[0] != 10 {
		t.Fatalf("progress writes = %v, want [10]", got)
	}
	if len(adapter.polledRefs) != 0 {
		t.Fatal("submit step must not poll")
	}
}

func TestVideoHandlePollStillRendering(t *testing.T) {
	adapter := &fakeAdapter{pollStatus: &providers.VideoStatus{}}
	jobs := newFakeJobRepo()
	h := newVideoHandler(adapter, &fakeUploader{}, &fakeAssetRepo{}, jobs)

	started := time.Now().Add(-3 * time.Minute)
	job := videoJob("job-1")
	job.Status = domain.JobStatusProcessing
	job.ProviderRef = "operations/op-123"
	job.StartedAt = &started

	result, err := h.Handle(context.Background(), job)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result != nil {
		t.Fatal("in-flight poll must not complete the job")
	}
	if adapter.polledRefs[0] != "operations/op-123" {
		t.Fatalf("polled ref = %q", adapter.polledRefs[0])
	}
	if got := jobs.progress["job-1"]; len(got) != 1 || got[0] != 40 {
		t.Fatalf("progress writes = %v, want the 3-minute estimate [40]", got)
	}
}

func TestVideoHandleVendorFailure(t *testing.T) {
	adapter := &fakeAdapter{pollStatus: &providers.VideoStatus{Done: true, ErrorMessage: "render failed"}}
	h := newVideoHandler(adapter, &fakeUploader{}, &fakeAssetRepo{}, newFakeJobRepo())

	job := videoJob("job-1")
	job.Status = domain.JobStatusProcessing
	job.ProviderRef = "operations/op-123"

	_, err := h.Handle(context.Background(), job)
	if err == nil || !strings.Contains(err.Error(), "render failed") {
		t.Fatalf("err = %v, want vendor message surfaced", err)
	}
}

func TestVideoHandleCompletion(t *testing.T) {
	adapter := &fakeAdapter{
		pollStatus: &providers.VideoStatus{Done: true, VideoURI: "https://files.test/video/abc"},
		videoData:  []byte("mp4-bytes"),
	}
	up := &fakeUploader{}
	assets := &fakeAssetRepo{}
	jobs := newFakeJobRepo()
	h := newVideoHandler(adapter, up, assets, jobs)

	job := videoJob("job-1")
	job.Status = domain.JobStatusProcessing
	job.ProviderRef = "operations/op-123"

	result, err := h.Handle(context.Background(), job)
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if result == nil {
		t.Fatal("completed poll must return a result payload")
	}

	// Key names are the dashboard contract: singular assetId/mediaUrl.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(result, &keys); err != nil {
		t.Fatalf("decode result: %v\n%s", err, result)
	}
	for _, want := range []string{"assetId", "mediaUrl"} {
		if _, ok := keys[want]; !ok {
			t.Fatalf("result %s is missing key %q", result, want)
		}
	}

	var payload videoResult
	if err := json.Unmarshal(result, &payload); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if payload.AssetID == "" {
		t.Fatal("result must carry the asset id")
	}
	if payload.MediaURL == "" || !strings.Contains(payload.MediaURL, "signed") {
		t.Fatalf("result media url = %q, want the signed url", payload.MediaURL)
	}

	if adapter.downloadURIs[0] != "https://files.test/video/abc" {
		t.Fatalf("downloaded uri = %q", adapter.downloadURIs[0])
	}
	if len(up.uploads) != 1 || up.uploads[0].kind != domain.AssetKindVideo {
		t.Fatalf("uploads = %+v, want one video upload", up.uploads)
	}

	if len(assets.inserted) != 1 {
		t.Fatalf("inserted assets = %d, want 1", len(assets.inserted))
	}
	asset := assets.inserted[0]
	if asset.SignedURL == "" || asset.PublicURL != "" {
		t.Fatal("video asset must carry a signed url and no public url")
	}
	if asset.SignedExpiresAt == nil {
		t.Fatal("video asset must record the signed url expiry")
	}
}

func TestVideoHandleCompletionWithoutURI(t *testing.T) {
	adapter := &fakeAdapter{pollStatus: &providers.VideoStatus{Done: true}}
	h := newVideoHandler(adapter, &fakeUploader{}, &fakeAssetRepo{}, newFakeJobRepo())

	job := videoJob("job-1")
	job.Status = domain.JobStatusProcessing
	job.ProviderRef = "operations/op-123"

	_, err := h.Handle(context.Background(), job)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestVideoHandleUploadWithoutURLFails(t *testing.T) {
	adapter := &fakeAdapter{
		pollStatus: &providers.VideoStatus{Done: true, VideoURI: "https://files.test/video/abc"},
		videoData:  []byte("mp4-bytes"),
	}
	assets := &fakeAssetRepo{}
	h := newVideoHandler(adapter, &fakeUploader{noURLs: true}, assets, newFakeJobRepo())

	job := videoJob("job-1")
	job.Status = domain.JobStatusProcessing
	job.ProviderRef = "operations/op-123"

	_, err := h.Handle(context.Background(), job)
	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError for a url-less upload", err)
	}
	if len(assets.inserted) != 0 {
		t.Fatal("no asset may be recorded without a usable url")
	}
}

func TestVideoHandleSubmitFailure(t *testing.T) {
	adapter := &fakeAdapter{startErr: &domain.ProviderError{Vendor: domain.ProviderGemini, Status: 500}}
	jobs := newFakeJobRepo()
	h := newVideoHandler(adapter, &fakeUploader{}, &fakeAssetRepo{}, jobs)

	_, err := h.Handle(context.Background(), videoJob("job-1"))
	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if jobs.operations["job-1"] != "" {
		t.Fatal("failed submit must not record a provider ref")
	}
}
