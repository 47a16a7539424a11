// Package openai adapts the OpenAI image and video APIs to the shared
// provider contract. The image API only accepts a fixed set of output sizes,
// so requested dimensions are negotiated to the nearest orientation fit.
// Responses may carry inline base64 payloads or a URL that requires a
// secondary fetch; inpainting goes through the multipart edits endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/providers"
)

// The image API's fixed output sizes.
const (
	sizeSquare    = "1024x1024"
	sizePortrait  = "1024x1536"
	sizeLandscape = "1536x1024"
)

// Options configures the OpenAI client.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
}

// Client performs HTTP calls against the OpenAI APIs.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	httpClient *http.Client
}

// New constructs an OpenAI client with sane defaults.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gpt-image-1"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "sora-2"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: httpClient,
	}, nil
}

type imageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json,omitempty"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
}

type videoCreateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Seconds string `json:"seconds,omitempty"`
	Size    string `json:"size,omitempty"`
}

type videoResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

// GenerateImage produces one image, routing through the edits endpoint when
// conditioning input is present.
func (c *Client) GenerateImage(ctx context.Context, spec providers.ImageSpec) (*providers.GeneratedImage, error) {
	size := nearestSize(spec)

	var (
		response imageResponse
		err      error
	)
	if spec.SourceImage != nil || spec.Mask != nil {
		err = c.invokeImageEdit(ctx, spec, size, &response)
	} else {
		payload := imageGenerationRequest{
			Model:  c.imageModel,
			Prompt: providers.EnrichImagePrompt(spec),
			N:      1,
			Size:   size,
		}
		err = c.invokeJSON(ctx, http.MethodPost, c.baseURL+"/images/generations", payload, &response)
	}
	if err != nil {
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, &domain.ValidationError{Reason: "openai returned no image data"}
	}

	entry := response.Data[0]
	width, height := sizeDimensions(size)

	if entry.B64JSON != "" {
		data, decodeErr := base64.StdEncoding.DecodeString(entry.B64JSON)
		if decodeErr != nil {
			return nil, &domain.ValidationError{Reason: "openai b64_json payload is not valid base64"}
		}
		return &providers.GeneratedImage{Data: data, MIME: "image/png", Width: width, Height: height}, nil
	}

	if entry.URL != "" {
		data, mime, fetchErr := c.fetch(ctx, entry.URL, false)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if mime == "" {
			mime = "image/png"
		}
		return &providers.GeneratedImage{Data: data, MIME: mime, Width: width, Height: height}, nil
	}

	return nil, &domain.ValidationError{Reason: "openai image entry has neither b64_json nor url"}
}

// StartVideoGeneration submits a video job and returns its id.
func (c *Client) StartVideoGeneration(ctx context.Context, spec providers.VideoSpec) (string, error) {
	payload := videoCreateRequest{
		Model:  c.videoModel,
		Prompt: providers.EnrichVideoPrompt(spec),
	}
	if spec.Seconds > 0 {
		payload.Seconds = strconv.Itoa(spec.Seconds)
	}

	var response videoResponse
	if err := c.invokeJSON(ctx, http.MethodPost, c.baseURL+"/videos", payload, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.ID) == "" {
		return "", &domain.ValidationError{Reason: "openai returned no video id"}
	}
	return response.ID, nil
}

// PollVideoStatus fetches the video job state. Completed jobs expose their
// rendered bytes at the content sub-resource.
func (c *Client) PollVideoStatus(ctx context.Context, providerRef string) (*providers.VideoStatus, error) {
	var response videoResponse
	if err := c.invokeJSON(ctx, http.MethodGet, c.baseURL+"/videos/"+providerRef, nil, &response); err != nil {
		return nil, err
	}

	switch response.Status {
	case "completed":
		return &providers.VideoStatus{Done: true, VideoURI: c.baseURL + "/videos/" + providerRef + "/content"}, nil
	case "failed":
		message := "video generation failed"
		if response.Error != nil && response.Error.Message != "" {
			message = response.Error.Message
		}
		return &providers.VideoStatus{Done: true, ErrorMessage: message}, nil
	case "queued", "in_progress":
		return &providers.VideoStatus{}, nil
	default:
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("openai reported unknown video status %q", response.Status)}
	}
}

// DownloadVideo fetches the rendered bytes from the content URL.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	data, _, err := c.fetch(ctx, uri, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Reason: "openai download returned no bytes"}
	}
	return data, nil
}

func (c *Client) invokeImageEdit(ctx context.Context, spec providers.ImageSpec, size string, out *imageResponse) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("model", c.imageModel); err != nil {
		return fmt.Errorf("openai: write form field: %w", err)
	}
	if err := form.WriteField("prompt", providers.EnrichImagePrompt(spec)); err != nil {
		return fmt.Errorf("openai: write form field: %w", err)
	}
	if err := form.WriteField("size", size); err != nil {
		return fmt.Errorf("openai: write form field: %w", err)
	}

	if spec.SourceImage != nil {
		if err := c.writeImagePart(ctx, form, "image", "source.png", spec.SourceImage); err != nil {
			return err
		}
	}
	if spec.Mask != nil {
		if err := c.writeImagePart(ctx, form, "mask", "mask.png", spec.Mask); err != nil {
			return err
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("openai: close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", &buf)
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) writeImagePart(ctx context.Context, form *multipart.Writer, field, filename string, ref *providers.ImageRef) error {
	data := ref.Data
	if len(data) == 0 && ref.URL != "" {
		fetched, _, err := c.fetch(ctx, ref.URL, false)
		if err != nil {
			return err
		}
		data = fetched
	}
	if len(data) == 0 {
		return &domain.ValidationError{Reason: "input image has no bytes and no fetchable url"}
	}

	part, err := form.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("openai: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("openai: write form file: %w", err)
	}
	return nil
}

func (c *Client) invokeJSON(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("openai: marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: invoke api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return &domain.ProviderError{Vendor: domain.ProviderOpenAI, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ValidationError{Reason: "openai response is not valid json"}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, target string, authenticated bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("openai: create fetch request: %w", err)
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("openai: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return nil, "", &domain.ProviderError{Vendor: domain.ProviderOpenAI, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("openai: read body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// nearestSize maps the requested dimensions onto the vendor's fixed size
// enum: equal sides go square, taller goes portrait, wider goes landscape.
// When no pixel size is present the aspect ratio decides.
func nearestSize(spec providers.ImageSpec) string {
	width, height := spec.Width, spec.Height
	if width <= 0 || height <= 0 {
		width, height = aspectDimensions(spec.AspectRatio)
	}
	switch {
	case width == height:
		return sizeSquare
	case height > width:
		return sizePortrait
	default:
		return sizeLandscape
	}
}

func aspectDimensions(aspect string) (int, int) {
	parts := strings.Split(strings.TrimSpace(aspect), ":")
	if len(parts) == 2 {
		w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
		h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 1, 1
}

func sizeDimensions(size string) (int, int) {
	switch size {
	case sizePortrait:
		return 1024, 1536
	case sizeLandscape:
		return 1536, 1024
	default:
		return 1024, 1024
	}
}

var _ providers.Adapter = (*Client)(nil)
