// Package genai is the HTTP client for the generative-AI API. The rest of the
// system treats it as opaque: a request either completes with a result or
// fails, and only the completion matters for usage accounting.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yijiawu/genstudio/internal/model"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Default models per feature, overridable per request.
const (
	DefaultTextModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultVideoModel = "veo-3.1-fast-generate-preview"

	videoPollInterval = 10 * time.Second
)

// Client talks to the generative API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// pollInterval is overridable in tests.
	pollInterval time.Duration
}

// NewClient creates a client. baseURL may be empty for the public endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		pollInterval: videoPollInterval,
	}
}

// Request is one generation request.
type Request struct {
	Feature model.FeatureKind
	Model   string
	Prompt  string
	// Ratio is the aspect ratio for image and video output, e.g. "16:9".
	Ratio string
	// PrevImageURL optionally carries a previous data: image result so image
	// requests can refine it.
	PrevImageURL string
}

// Result is a completed generation.
type Result struct {
	Feature model.FeatureKind
	// Text is set for text generations.
	Text string
	// ResultURL is a data: URL for images or a download URL for videos.
	ResultURL string
}

// wire types, trimmed to the fields we use

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ImageConfig *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type videoRequest struct {
	Prompt string       `json:"prompt"`
	Config *videoConfig `json:"config,omitempty"`
}

type videoConfig struct {
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GeneratedVideos []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedVideos"`
	} `json:"response"`
	Error *apiError `json:"error,omitempty"`
}

// Generate runs one request to completion. Video requests block while the
// remote operation is polled; cancel via ctx.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	switch req.Feature {
	case model.FeatureText:
		return c.generateText(ctx, req)
	case model.FeatureImage:
		return c.generateImage(ctx, req)
	case model.FeatureVideo:
		return c.generateVideo(ctx, req)
	}
	return nil, fmt.Errorf("%w: feature kind %d", model.ErrInvalidArgument, int(req.Feature))
}

func (c *Client) generateText(ctx context.Context, req Request) (*Result, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = DefaultTextModel
	}

	body := generateRequest{
		Contents: []content{{Parts: []contentPart{{Text: req.Prompt}}}},
	}

	var resp generateResponse
	if err := c.post(ctx, "/v1beta/models/"+modelName+":generateContent", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("text generation failed: %s", resp.Error.Message)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			text.WriteString(part.Text)
		}
		break
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("text generation returned no content")
	}
	return &Result{Feature: model.FeatureText, Text: text.String()}, nil
}

func (c *Client) generateImage(ctx context.Context, req Request) (*Result, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = DefaultImageModel
	}

	parts := []contentPart{{Text: req.Prompt}}
	// A previous data: image becomes context for refinement.
	if data, mime, ok := splitDataURL(req.PrevImageURL); ok {
		parts = append([]contentPart{{InlineData: &inlineData{MimeType: mime, Data: data}}}, parts...)
	}

	body := generateRequest{Contents: []content{{Parts: parts}}}
	if req.Ratio != "" {
		body.GenerationConfig = &generationConfig{ImageConfig: &imageConfig{AspectRatio: req.Ratio}}
	}

	var resp generateResponse
	if err := c.post(ctx, "/v1beta/models/"+modelName+":generateContent", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("image generation failed: %s", resp.Error.Message)
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				url := "data:" + part.InlineData.MimeType + ";base64," + part.InlineData.Data
				return &Result{Feature: model.FeatureImage, ResultURL: url}, nil
			}
		}
	}
	return nil, fmt.Errorf("image generation returned no image part")
}

func (c *Client) generateVideo(ctx context.Context, req Request) (*Result, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = DefaultVideoModel
	}

	body := videoRequest{
		Prompt: req.Prompt,
		Config: &videoConfig{NumberOfVideos: 1, AspectRatio: req.Ratio, Resolution: "720p"},
	}

	var op operation
	if err := c.post(ctx, "/v1beta/models/"+modelName+":predictLongRunning", body, &op); err != nil {
		return nil, err
	}
	if op.Error != nil {
		return nil, fmt.Errorf("video generation failed: %s", op.Error.Message)
	}
	if op.Name == "" {
		return nil, fmt.Errorf("video generation returned no operation name")
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		if err := c.get(ctx, "/v1beta/"+op.Name, &op); err != nil {
			return nil, err
		}
		if op.Error != nil {
			return nil, fmt.Errorf("video generation failed: %s", op.Error.Message)
		}
	}

	if len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video.URI == "" {
		return nil, fmt.Errorf("video generation completed without a download link")
	}
	// The download link needs the API key appended, same as the fetch the
	// browser front end used to do.
	uri := op.Response.GeneratedVideos[0].Video.URI
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return &Result{Feature: model.FeatureVideo, ResultURL: uri + sep + "key=" + c.apiKey}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) url(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return c.baseURL + path + sep + "key=" + c.apiKey
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generative API request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("generative API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generative API returned status %d: %s", resp.StatusCode, truncate(data, 200))
	}
	return json.Unmarshal(data, out)
}

// splitDataURL extracts the base64 payload and mime type from a data: URL.
func splitDataURL(url string) (data, mime string, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", "", false
	}
	meta, payload, found := strings.Cut(url[len("data:"):], ",")
	if !found {
		return "", "", false
	}
	mime = strings.TrimSuffix(meta, ";base64")
	return payload, mime, mime != ""
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
