package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://127.0.0.1:8089/v1/perplexity"
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBody       = 512
)

// Config captures the settings for the scoring service.
type Config struct {
	BaseURL        string
	Model          string
	APIKey         string
	TimeoutSeconds int
}

// Client scores texts through the perplexity service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a scoring client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type scoreRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

type scoreResponse struct {
	Perplexity *float64 `json:"perplexity"`
	Error      string   `json:"error"`
}

// Score returns the perplexity of text.
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("perplexity score: text required")
	}
	body, err := json.Marshal(scoreRequest{Model: c.cfg.Model, Text: text})
	if err != nil {
		return 0, fmt.Errorf("perplexity score: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("perplexity score: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("perplexity score: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("perplexity score: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("perplexity score: http %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(payload))))
	}

	var parsed scoreResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return 0, fmt.Errorf("perplexity score: decode response: %w", err)
	}
	if parsed.Error != "" {
		return 0, fmt.Errorf("perplexity score: api error: %s", strings.TrimSpace(parsed.Error))
	}
	if parsed.Perplexity == nil {
		return 0, errors.New("perplexity score: response missing perplexity")
	}
	value := *parsed.Perplexity
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, fmt.Errorf("perplexity score: invalid value %v", value)
	}
	return value, nil
}

func truncate(body string) string {
	if len(body) <= maxErrorBody {
		return body
	}
	return body[:maxErrorBody] + "..."
}
