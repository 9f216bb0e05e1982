package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatkit/internal/aierr"
)

// Fixed sampling constants of the completion endpoint. Not configurable.
const (
	topK = 40
	topP = 0.95
)

const (
	defaultModel           = "gemini-2.5-flash"
	defaultBaseURL         = "https://generativelanguage.googleapis.com"
	defaultTemperature     = 0.7
	defaultMaxOutputTokens = 2048
	defaultTimeout         = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// Config holds the immutable settings of a Client.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration // per-call timeout
	HTTPClient      *http.Client
}

// Client calls the Gemini generateContent API. All fields are set at
// construction and never mutated, so a single Client is safe for
// concurrent use.
type Client struct {
	cfg Config
}

var _ Completer = (*Client)(nil)

// New builds a client with defaults applied. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{cfg: cfg}, nil
}

// Generate sends the prompt to the generateContent endpoint and returns the
// first candidate's first text part. Caller cancellation passes through
// unwrapped so errors.Is(err, context.Canceled) keeps working.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            topK,
			TopP:            topP,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpointURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &aierr.TransportError{Endpoint: "completion", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &aierr.TransportError{Endpoint: "completion", Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &aierr.TransportError{
			Endpoint: "completion",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}

	return ExtractText(respBody)
}

func (c *Client) endpointURL() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
}
