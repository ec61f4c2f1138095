package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yijiawu/genstudio/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-key")
	c.pollInterval = time.Millisecond
	return c
}

func TestGenerateText(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing key query parameter")
		}
		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content content `json:"content"`
			}{
				{Content: content{Parts: []contentPart{{Text: "Hello "}, {Text: "world"}}}},
			},
		})
	}))

	result, err := c.Generate(context.Background(), Request{Feature: model.FeatureText, Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Text != "Hello world" {
		t.Errorf("text = %q, want %q", result.Text, "Hello world")
	}
	want := "/v1beta/models/" + DefaultTextModel + ":generateContent"
	if gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestGenerateTextNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{})
	}))

	_, err := c.Generate(context.Background(), Request{Feature: model.FeatureText, Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerateImage(t *testing.T) {
	var gotBody generateRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{
			Candidates: []struct {
				Content content `json:"content"`
			}{
				{Content: content{Parts: []contentPart{
					{InlineData: &inlineData{MimeType: "image/png", Data: "aaaa"}},
				}}},
			},
		})
	}))

	result, err := c.Generate(context.Background(), Request{
		Feature:      model.FeatureImage,
		Prompt:       "make it darker",
		Ratio:        "16:9",
		PrevImageURL: "data:image/png;base64,prev",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.ResultURL != "data:image/png;base64,aaaa" {
		t.Errorf("result URL = %q", result.ResultURL)
	}

	parts := gotBody.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts (context image + prompt), got %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.Data != "prev" {
		t.Errorf("first part should be the previous image, got %+v", parts[0])
	}
	if parts[1].Text != "make it darker" {
		t.Errorf("second part should be the prompt, got %+v", parts[1])
	}
	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ImageConfig.AspectRatio != "16:9" {
		t.Errorf("aspect ratio not forwarded: %+v", gotBody.GenerationConfig)
	}
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	var polls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
			json.NewEncoder(w).Encode(operation{Name: "operations/op-1"})
			return
		}
		if r.URL.Path != "/v1beta/operations/op-1" {
			t.Errorf("unexpected poll path %q", r.URL.Path)
		}
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(operation{Name: "operations/op-1"})
			return
		}
		op := operation{Name: "operations/op-1", Done: true}
		op.Response.GeneratedVideos = []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		}{{}}
		op.Response.GeneratedVideos[0].Video.URI = "https://example.com/v.mp4"
		json.NewEncoder(w).Encode(op)
	}))

	result, err := c.Generate(context.Background(), Request{Feature: model.FeatureVideo, Prompt: "a cat surfing"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.ResultURL != "https://example.com/v.mp4?key=test-key" {
		t.Errorf("result URL = %q", result.ResultURL)
	}
	if polls.Load() != 3 {
		t.Errorf("polled %d times, want 3", polls.Load())
	}
}

func TestGenerateVideoCancel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Never completes.
		json.NewEncoder(w).Encode(operation{Name: "operations/op-1"})
	}))
	c.pollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(ctx, Request{Feature: model.FeatureVideo, Prompt: "x"})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not unblock the poll loop")
	}
}

func TestGenerateAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":429,"message":"quota"}}`, http.StatusTooManyRequests)
	}))

	_, err := c.Generate(context.Background(), Request{Feature: model.FeatureText, Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestSplitDataURL(t *testing.T) {
	tests := []struct {
		in   string
		data string
		mime string
		ok   bool
	}{
		{"data:image/png;base64,abcd", "abcd", "image/png", true},
		{"https://example.com/x.png", "", "", false},
		{"data:nocomma", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		data, mime, ok := splitDataURL(tt.in)
		if data != tt.data || mime != tt.mime || ok != tt.ok {
			t.Errorf("splitDataURL(%q) = %q, %q, %v", tt.in, data, mime, ok)
		}
	}
}
