// Package gemini adapts the Gemini image API and the Veo long-running video
// API to the shared provider contract. Image responses arrive as inline
// base64 parts; video generation is asynchronous, returning an operation
// name that is polled until a downloadable file URI appears.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediaworker/internal/domain"
	"mediaworker/internal/providers"
)

// Veo only renders clips inside a fixed duration window.
const (
	veoMinSeconds = 4
	veoMaxSeconds = 8
)

// Options configures the Gemini client.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
}

// Client performs HTTP calls against the Gemini generative APIs.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	httpClient *http.Client
}

// New constructs a Gemini client with sane defaults.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		httpClient: httpClient,
	}, nil
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// GenerateImage submits one enriched prompt and returns the first inline
// image part of the response.
func (c *Client) GenerateImage(ctx context.Context, spec providers.ImageSpec) (*providers.GeneratedImage, error) {
	parts := []part{{Text: providers.EnrichImagePrompt(spec)}}

	if spec.SourceImage != nil {
		source, err := c.inlinePart(ctx, spec.SourceImage)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *source)
	}
	if spec.Mask != nil {
		mask, err := c.inlinePart(ctx, spec.Mask)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{Text: "Apply changes only inside the masked region of the following mask."}, *mask)
	}

	payload := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE"}},
	}

	var response generateContentResponse
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, http.MethodPost, endpoint, payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, &domain.ValidationError{Reason: "gemini inline data is not valid base64"}
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			width, height := decodeDimensions(data)
			if width == 0 || height == 0 {
				width, height = spec.Width, spec.Height
			}
			return &providers.GeneratedImage{Data: data, MIME: mime, Width: width, Height: height}, nil
		}
	}

	return nil, &domain.ValidationError{Reason: "gemini returned no image data"}
}

// StartVideoGeneration submits a Veo request and returns the operation name
// used for subsequent polling.
func (c *Client) StartVideoGeneration(ctx context.Context, spec providers.VideoSpec) (string, error) {
	payload := predictLongRunningRequest{
		Instances: []videoInstance{{Prompt: providers.EnrichVideoPrompt(spec)}},
		Parameters: videoParameters{
			AspectRatio:     spec.AspectRatio,
			DurationSeconds: clampSeconds(spec.Seconds),
		},
	}

	var response operationResponse
	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, endpoint, payload, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(response.Name) == "" {
		return "", &domain.ValidationError{Reason: "gemini returned no operation name"}
	}
	return response.Name, nil
}

// PollVideoStatus fetches the operation state.
func (c *Client) PollVideoStatus(ctx context.Context, providerRef string) (*providers.VideoStatus, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(providerRef, "/")

	var response operationResponse
	if err := c.invoke(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	if !response.Done {
		return &providers.VideoStatus{}, nil
	}
	if response.Error != nil && response.Error.Message != "" {
		return &providers.VideoStatus{Done: true, ErrorMessage: response.Error.Message}, nil
	}
	if response.Response != nil {
		samples := response.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 && samples[0].Video.URI != "" {
			return &providers.VideoStatus{Done: true, VideoURI: samples[0].Video.URI}, nil
		}
	}
	return nil, &domain.ValidationError{Reason: "gemini operation finished without a video uri"}
}

// DownloadVideo fetches the rendered bytes from the file URI reported by the
// finished operation. The API key rides along as a query parameter, matching
// how the file service authenticates downloads.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderError{Vendor: domain.ProviderGemini, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read video body: %w", err)
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Reason: "gemini download returned no bytes"}
	}
	return data, nil
}

func (c *Client) invoke(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gemini: marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: invoke api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(resp.Body)
		return &domain.ProviderError{Vendor: domain.ProviderGemini, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ValidationError{Reason: "gemini response is not valid json"}
	}
	return nil
}

func (c *Client) inlinePart(ctx context.Context, ref *providers.ImageRef) (*part, error) {
	data := ref.Data
	mime := ref.MIME
	if len(data) == 0 && ref.URL != "" {
		fetched, fetchedMIME, err := c.fetch(ctx, ref.URL)
		if err != nil {
			return nil, err
		}
		data = fetched
		if mime == "" {
			mime = fetchedMIME
		}
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Reason: "input image has no bytes and no fetchable url"}
	}
	if mime == "" {
		mime = "image/png"
	}
	return &part{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}}, nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: create fetch request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: fetch input image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", &domain.ProviderError{Vendor: domain.ProviderGemini, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("gemini: read input image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func clampSeconds(seconds int) int {
	if seconds < veoMinSeconds {
		return veoMinSeconds
	}
	if seconds > veoMaxSeconds {
		return veoMaxSeconds
	}
	return seconds
}

func decodeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

var _ providers.Adapter = (*Client)(nil)
