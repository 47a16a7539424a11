// Package providers defines the capability contract shared by all generation
// vendors. The worker's state machine talks to this interface only; vendor
// peculiarities (request encoding, size enums, duration limits, download
// shape) live inside each adapter.
package providers

import "context"

// ImageRef points at conditioning input for inpainting workflows: either raw
// bytes or a URL the adapter fetches itself.
type ImageRef struct {
	URL  string
	Data []byte
	MIME string
}

// ImageSpec describes one image to generate.
type ImageSpec struct {
	Prompt            string
	Width             int
	Height            int
	AspectRatio       string
	FormatName        string
	FormatDescription string
	SourceImage       *ImageRef
	Mask              *ImageRef
}

// VideoSpec describes one video generation request.
type VideoSpec struct {
	Prompt            string
	Seconds           int
	AspectRatio       string
	FormatName        string
	FormatDescription string
}

// GeneratedImage is the normalized result of a single image generation.
type GeneratedImage struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// VideoStatus reports the state of an in-flight video operation. VideoURI is
// only set once Done is true with no error; it is the handle DownloadVideo
// accepts.
type VideoStatus struct {
	Done         bool
	ErrorMessage string
	VideoURI     string
}

// Adapter is the capability interface implemented per vendor.
type Adapter interface {
	GenerateImage(ctx context.Context, spec ImageSpec) (*GeneratedImage, error)
	StartVideoGeneration(ctx context.Context, spec VideoSpec) (string, error)
	PollVideoStatus(ctx context.Context, providerRef string) (*VideoStatus, error)
	DownloadVideo(ctx context.Context, uri string) ([]byte, error)
}

// Registry maps provider tags to adapters.
type Registry map[string]Adapter

// For returns the adapter registered for the provider tag.
func (r Registry) For(provider string) (Adapter, bool) {
	adapter, ok := r[provider]
	return adapter, ok
}
