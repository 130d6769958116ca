// Package gusto provides a thin client for the Gusto REST API.
package gusto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production Gusto API.
	DefaultBaseURL = "https://api.gusto.com/v1"
	// DemoBaseURL is the Gusto sandbox API.
	DemoBaseURL = "https://api.gusto-demo.com/v1"

	defaultTimeout = 30 * time.Second
)

// Config holds the immutable settings a Client is bound to.
type Config struct {
	BaseURL     string
	AccessToken string
	UserAgent   string
}

// LogValue keeps the access token out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.Bool("token_set", c.AccessToken != ""),
	)
}

// Client performs authenticated calls against one Gusto base URL.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
}

// New returns a new client. If httpClient is nil, a default with a 30s timeout is used.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     cfg.AccessToken,
		userAgent: cfg.UserAgent,
		http:      httpClient,
	}
}

// BaseURL returns the base URL every request path is joined to.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOption adjusts an outgoing request before it is sent.
type RequestOption func(h http.Header)

// WithHeader sets a header on the request. An empty Authorization value is ignored
// so the bearer credential cannot be dropped.
func WithHeader(key, value string) RequestOption {
	return func(h http.Header) {
		if strings.EqualFold(key, "Authorization") && strings.TrimSpace(value) == "" {
			return
		}
		h.Set(key, value)
	}
}

// Get issues a GET for path and returns the decoded JSON body.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts)
}

// Post issues a POST for path with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gusto: encode request body: %w", err)
		}
	}
	return c.do(ctx, http.MethodPost, path, payload, opts)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, opts []RequestOption) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("gusto: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for _, opt := range opts {
		opt(req.Header)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	// The body is read in full even when the status is an error.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(raw),
		}
	}
	return decodeJSON(raw)
}

// decodeJSON checks that the body is a single JSON value and returns it compacted.
func decodeJSON(raw []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("gusto: decode response: %w", err)
	}
	return json.RawMessage(buf.Bytes()), nil
}

// statusText strips the numeric code net/http prefixes onto resp.Status.
func statusText(resp *http.Response) string {
	prefix := fmt.Sprintf("%d ", resp.StatusCode)
	if text := strings.TrimPrefix(resp.Status, prefix); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
