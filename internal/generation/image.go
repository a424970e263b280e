package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"socialdeck/internal/models"
)

// maxResponseBytes bounds how much of a backend response is read.
const maxResponseBytes = 1 << 20

type imageRequest struct {
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

type imageResponse struct {
	ArtifactURL string `json:"artifactUrl"`
	Text        string `json:"text"`
	Score       *int   `json:"score"`
	Error       string `json:"error"`
}

// ImageGenerator calls a remote text-to-image endpoint.
type ImageGenerator struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewImageGenerator creates a generator posting to endpoint. timeout bounds
// each HTTP exchange; callers add their own deadline through ctx.
func NewImageGenerator(endpoint, apiKey string, timeout time.Duration) *ImageGenerator {
	return &ImageGenerator{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

func (g *ImageGenerator) Kind() models.ArtifactKind { return models.KindImage }

func (g *ImageGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(imageRequest{Prompt: req.Prompt, Options: req.Options})
	if err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read image response: %w", err)
	}

	var out imageResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%w: invalid response body: %v", ErrBackend, err)
		}
	}

	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrBackend, out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrBackend, resp.StatusCode)
	}
	if out.ArtifactURL == "" && out.Text == "" {
		return nil, fmt.Errorf("%w: empty result", ErrBackend)
	}

	score := PromptScore(req.Prompt)
	if out.Score != nil {
		score = clampScore(*out.Score)
	}
	return &Result{URL: out.ArtifactURL, Text: out.Text, Score: score}, nil
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
