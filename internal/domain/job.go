package domain

import "time"

// JobType enumerates supported generation job categories.
type JobType string

const (
	JobTypeImage JobType = "image"
	JobTypeVideo JobType = "video"
)

// JobStatus enumerates job lifecycle states. The done and failed states are
// terminal: once written, no status field on the row may change again.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Provider tags for the supported generation vendors.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// JobInput is the producer-written request payload stored as JSONB on the
// job row. Size is a "WxH" pixel token. Seconds only applies to video jobs,
// Variations and Mask only to image jobs.
type JobInput struct {
	Prompt            string   `json:"prompt"`
	Size              string   `json:"size,omitempty"`
	AspectRatio       string   `json:"aspect_ratio,omitempty"`
	Seconds           int      `json:"seconds,omitempty"`
	FormatName        string   `json:"format_name,omitempty"`
	FormatDescription string   `json:"format_description,omitempty"`
	InputImages       []string `json:"input_images,omitempty"`
	Mask              string   `json:"mask,omitempty"`
	Variations        int      `json:"variations,omitempty"`
	StoreSlug         string   `json:"store_slug,omitempty"`
}

// Job encapsulates one media-generation request and doubles as the persisted
// state of its workflow. ProviderRef is set only for video jobs, and only
// after the vendor has accepted the async operation; until then the video
// workflow is in its not-started sub-state.
type Job struct {
	ID            string
	StoreID       string
	UserID        string
	Type          JobType
	Provider      string
	ProviderModel string
	Status        JobStatus
	Input         JobInput
	ProviderRef   string
	Progress      int
	Result        []byte
	ErrorMessage  string
	ErrorCode     string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}
