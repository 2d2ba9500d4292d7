// Package ai is the AI Invocation Gateway: given prompt text it returns generated text or fails.
// No retry is attempted here, the caller bounds the latency with its context.
package ai

import (
	"bytes"
	"collab-chat/contract"
	"collab-chat/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config configures the responses endpoint and HTTP behavior.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// HTTPGateway calls a responses-style text generation API.
type HTTPGateway struct {
	cfg Config
}

var _ contract.Generator = (*HTTPGateway)(nil)

func NewHTTPGateway(cfg Config) *HTTPGateway {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPGateway{cfg: cfg}
}

type responsesRequest struct {
	Model        string `json:"model"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

type responsesPayload struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Generate sends the prompt and returns the first non empty output text.
// Every failure wraps errors.ErrGeneration.
func (g *HTTPGateway) Generate(ctx context.Context, prompt contract.Prompt) (string, error) {
	requestBody, err := json.Marshal(responsesRequest{
		Model:        g.cfg.Model,
		Input:        prompt.Text,
		Instructions: Instructions(prompt.Language),
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", errors.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/responses", bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", errors.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key only travels in the Authorization header, never in errors.
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", errors.ErrGeneration, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", errors.ErrGeneration, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload responsesPayload
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", errors.ErrGeneration, err)
	}

	if text := strings.TrimSpace(payload.OutputText); text != "" {
		return text, nil
	}
	for _, item := range payload.Output {
		for _, content := range item.Content {
			if text := strings.TrimSpace(content.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: response missing output text", errors.ErrGeneration)
}

// Unavailable is used when no API key is configured. Every call fails.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, contract.Prompt) (string, error) {
	return "", fmt.Errorf("%w: no AI provider configured", errors.ErrGeneration)
}
