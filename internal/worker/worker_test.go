package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mediaworker/internal/domain"
	"mediaworker/internal/providers"
	"mediaworker/internal/storage"
)

// fakeJobRepo records every write the workflows perform.
type fakeJobRepo struct {
	mu sync.Mutex

	runnable    []domain.Job
	fetchErr    error
	claimDenied map[string]bool
	claimErr    error

	claimed    []string
	operations map[string]string
	progress   map[string][]int
	doneResult map[string][]byte
	failedMsg  map[string]string
	failedCode map[string]string
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		claimDenied: map[string]bool{},
		operations:  map[string]string{},
		progress:    map[string][]int{},
		doneResult:  map[string][]byte{},
		failedMsg:   map[string]string{},
		failedCode:  map[string]string{},
	}
}

func (r *fakeJobRepo) FetchRunnable(ctx context.Context, limit int) ([]domain.Job, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if len(r.runnable) > limit {
		return r.runnable[:limit], nil
	}
	return r.runnable, nil
}

func (r *fakeJobRepo) ClaimQueued(ctx context.Context, jobID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimErr != nil {
		return false, r.claimErr
	}
	if r.claimDenied[jobID] {
		return false, nil
	}
	r.claimed = append(r.claimed, jobID)
	return true, nil
}

func (r *fakeJobRepo) SetVideoOperation(ctx context.Context, jobID, providerRef string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[jobID] = providerRef
	r.progress[jobID] = append(r.progress[jobID], progress)
	return nil
}

func (r *fakeJobRepo) SetProgress(ctx context.Context, jobID string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[jobID] = append(r.progress[jobID], progress)
	return nil
}

func (r *fakeJobRepo) MarkDone(ctx context.Context, jobID string, result []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doneResult[jobID] = result
	return nil
}

func (r *fakeJobRepo) MarkFailed(ctx context.Context, jobID, message, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedMsg[jobID] = message
	r.failedCode[jobID] = code
	return nil
}

type fakeAssetRepo struct {
	mu        sync.Mutex
	inserted  []*domain.Asset
	insertErr error
}

func (r *fakeAssetRepo) Insert(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, asset)
	return nil
}

// fakeAdapter scripts vendor behavior per call.
type fakeAdapter struct {
	mu sync.Mutex

	generateErrs  []error
	generateCalls int
	generated     *providers.GeneratedImage

	startRef string
	startErr error

	pollStatus *providers.VideoStatus
	pollErr    error
	polledRefs []string

	videoData    []byte
	downloadErr  error
	downloadURIs []string
}

func (a *fakeAdapter) GenerateImage(ctx context.Context, spec providers.ImageSpec) (*providers.GeneratedImage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	call := a.generateCalls
	a.generateCalls++
	if call < len(a.generateErrs) && a.generateErrs[call] != nil {
		return nil, a.generateErrs[call]
	}
	if a.generated != nil {
		return a.generated, nil
	}
	return &providers.GeneratedImage{Data: []byte("png"), MIME: "image/png", Width: 1024, Height: 1024}, nil
}

func (a *fakeAdapter) StartVideoGeneration(ctx context.Context, spec providers.VideoSpec) (string, error) {
	if a.startErr != nil {
		return "", a.startErr
	}
	return a.startRef, nil
}

func (a *fakeAdapter) PollVideoStatus(ctx context.Context, providerRef string) (*providers.VideoStatus, error) {
	a.polledRefs = append(a.polledRefs, providerRef)
	if a.pollErr != nil {
		return nil, a.pollErr
	}
	return a.pollStatus, nil
}

func (a *fakeAdapter) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	a.downloadURIs = append(a.downloadURIs, uri)
	if a.downloadErr != nil {
		return nil, a.downloadErr
	}
	return a.videoData, nil
}

type fakeUploader struct {
	mu        sync.Mutex
	uploads   []fakeUpload
	uploadErr error
	expires   time.Time
	noURLs    bool
}

type fakeUpload struct {
	scope storage.Scope
	kind  domain.AssetKind
	data  []byte
	mime  string
}

func (u *fakeUploader) Upload(ctx context.Context, scope storage.Scope, kind domain.AssetKind, data []byte, mimeType string) (*storage.Result, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	n := len(u.uploads)
	u.uploads = append(u.uploads, fakeUpload{scope: scope, kind: kind, data: data, mime: mimeType})

	result := &storage.Result{
		AssetID:  "asset-" + string(rune('a'+n)),
		Path:     "marketing/store/user/" + string(kind) + "/2026/03/asset.bin",
		Filename: "asset.bin",
	}
	if u.noURLs {
		return result, nil
	}
	if kind == domain.AssetKindVideo {
		expires := u.expires
		if expires.IsZero() {
			expires = time.Date(2026, time.March, 8, 12, 0, 0, 0, time.UTC)
		}
		result.SignedURL = "https://store.test/signed/" + result.AssetID
		result.SignedExpiresAt = &expires
	} else {
		result.PublicURL = "https://store.test/public/" + result.AssetID
	}
	return result, nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func imageJob(id string) domain.Job {
	return domain.Job{
		ID:       id,
		StoreID:  "store-1",
		UserID:   "user-1",
		Type:     domain.JobTypeImage,
		Provider: domain.ProviderGemini,
		Status:   domain.JobStatusQueued,
		Input:    domain.JobInput{Prompt: "a plate of nasi goreng", Size: "1080x1080"},
	}
}

func videoJob(id string) domain.Job {
	return domain.Job{
		ID:       id,
		StoreID:  "store-1",
		UserID:   "user-1",
		Type:     domain.JobTypeVideo,
		Provider: domain.ProviderGemini,
		Status:   domain.JobStatusQueued,
		Input:    domain.JobInput{Prompt: "pan over a food stall", Seconds: 8},
	}
}
