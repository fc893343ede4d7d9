package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// Client sends JSON requests to one provider. Failures come back
// classified by StatusError and TransportError.
type Client struct {
	provider string
	baseURL  string
	http     *http.Client
	header   http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithHTTPClient replaces the default client, whose only setting is the timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient creates a client for baseURL. provider prefixes error messages.
func NewClient(provider, baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		header:   make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends in as JSON to path and decodes a 2xx reply into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get requests path and decodes a 2xx reply into out. A nil out only
// checks the status.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: %w", c.provider, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return TransportError(c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxBody))
		return StatusError(c.provider, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Retryable(fmt.Errorf("%s: read response: %w", c.provider, err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}
