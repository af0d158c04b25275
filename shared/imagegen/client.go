// Package imagegen turns image-generation prompts into saved PNG files. The
// configured endpoint is an OpenAI-compatible chat completions API; the
// response may carry image data in any of three known shapes, which are
// tried in order against each response.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xhs-agent/shared/config"
)

// ErrExhausted signals that every attempt for one prompt failed to yield an
// image. The batch absorbs it; callers only see a shorter path list.
var ErrExhausted = errors.New("image generation attempts exhausted")

const promptFraming = "Create a beautiful, high-quality image suitable for Xiaohongshu (Little Red Book) social media post. Style: clean, aesthetic, Instagram-worthy. "

type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client

	// Fixed, not exponential. promptPause spaces distinct prompts;
	// retryBackoff spaces attempts of the same prompt.
	maxRetries   int
	retryBackoff time.Duration
	promptPause  time.Duration
}

func NewClient(cfg *config.ImageConfig) (*Client, error) {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "IMAGE_API_KEY")
	}
	if cfg.BaseURL == "" {
		missing = append(missing, "IMAGE_BASE_URL")
	}
	if cfg.Model == "" {
		missing = append(missing, "IMAGE_MODEL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required image generation settings: %s", strings.Join(missing, ", "))
	}

	return &Client{
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		endpoint:     normalizeEndpoint(cfg.BaseURL),
		httpClient:   &http.Client{Timeout: 3 * time.Minute},
		maxRetries:   2,
		retryBackoff: 3 * time.Second,
		promptPause:  2 * time.Second,
	}, nil
}

func hasGeminiHint(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini")
}

// normalizeEndpoint accepts a bare host, a /v1 root, or a full chat
// completions URL and returns the full URL.
func normalizeEndpoint(base string) string {
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	MaxTokens  int           `json:"max_tokens"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateBatch produces one image per prompt into outputDir, skipping
// prompts whose attempts are exhausted. It returns however many paths
// actually succeeded, possibly none; deciding whether zero images is
// acceptable is the caller's policy.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image output directory: %w", err)
	}

	var paths []string
	for i, prompt := range prompts {
		log.Printf("Generating image %d/%d...", i+1, len(prompts))

		path := filepath.Join(outputDir, fmt.Sprintf("image_%d.png", i+1))
		if err := c.generateOne(ctx, prompt, path); err != nil {
			log.Printf("Warning: image %d/%d skipped: %v", i+1, len(prompts), err)
		} else {
			paths = append(paths, path)
		}

		if i < len(prompts)-1 {
			time.Sleep(c.promptPause)
		}
	}
	return paths, nil
}

// generateOne runs the attempt loop for a single prompt: at most
// maxRetries+1 requests with a fixed backoff between them.
func (c *Client) generateOne(ctx context.Context, prompt, path string) error {
	payload := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: promptFraming + prompt}},
		MaxTokens: 4096,
	}
	// Gemini image models on OpenRouter-style gateways need the modalities
	// hint to return image output at all.
	if hasGeminiHint(c.model) {
		payload.Modalities = []string{"image", "text"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal image request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.retryBackoff)
		}

		data, err := c.requestImage(ctx, body)
		if err != nil {
			lastErr = err
			continue
		}

		if err := flattenAndSave(data, path); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, c.maxRetries+1, lastErr)
}

// requestImage performs one HTTP attempt and extracts image bytes from the
// raw response body.
func (c *Client) requestImage(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	// Read the raw bytes rather than streaming a decoder: large base64
	// payloads must not be truncated by a partial read.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image endpoint returned status %d", resp.StatusCode)
	}

	data, ok := c.extractImage(body)
	if !ok {
		return nil, fmt.Errorf("image response contained no recognizable image data")
	}
	return data, nil
}
