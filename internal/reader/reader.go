// Package reader fetches the extracted plain-text content of a web page
// from a reader endpoint (r.jina.ai by default). No HTML parsing happens
// locally; sanitization is the endpoint's job.
package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatkit/internal/aierr"
)

// Fetcher is the page-extraction interface, allowing a mock in tests.
type Fetcher interface {
	// Fetch returns the extracted text of the page at url.
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	defaultBaseURL = "https://r.jina.ai"
	defaultTimeout = 30 * time.Second

	maxResponseBytes = 8 << 20
)

// Config holds the immutable settings of a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the reader endpoint. Immutable after construction and safe
// for concurrent use.
type Client struct {
	cfg Config
}

var _ Fetcher = (*Client)(nil)

// New builds a reader client with defaults applied.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &Client{cfg: cfg}
}

// Fetch GETs {baseURL}/{url} and returns the raw response body as text.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", &aierr.DomainError{Msg: "page url is empty"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.BaseURL+"/"+pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &aierr.TransportError{Endpoint: "reader", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &aierr.TransportError{Endpoint: "reader", Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &aierr.TransportError{
			Endpoint: "reader",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}
	return string(body), nil
}
