package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/logger"
)

// DefaultBaseURL is used when Config.BaseURL is empty
const DefaultBaseURL = config.DefaultAPIURL

// Config configures the API origin
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// ConfigFrom builds a transport Config from the application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}
}

// Client sends JSON requests to a single API origin
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *log.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger replaces the component logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for cfg.BaseURL
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    config.NormalizeBaseURL(cfg.BaseURL),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.Transport(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the origin requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PathSegment percent-encodes a single path segment such as a poll ID
func PathSegment(s string) string {
	return url.PathEscape(s)
}

// Get performs a GET request and decodes the JSON response into T.
// A 204 response returns (nil, nil).
func Get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	res, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decode[T](res)
}

// Post sends body as JSON and decodes the JSON response into Resp.
// A 204 response returns (nil, nil).
func Post[Req, Resp any](ctx context.Context, c *Client, path string, body Req) (*Resp, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("failed to encode request: %v", err), Err: err}
	}

	res, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	return decode[Resp](res)
}

// Delete performs a DELETE request. Any 2xx status is success regardless
// of the body; only failure responses are parsed.
func (c *Client) Delete(ctx context.Context, path string) error {
	res, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if isSuccess(res.StatusCode) {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return errorFromResponse(res.StatusCode, res.Status, body)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("invalid request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Request failed", "method", method, "path", path, "error", err)
		return nil, &Error{Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}

	c.log.Debug("Request completed",
		"method", method,
		"path", path,
		"status", res.StatusCode,
		"duration", time.Since(start))

	return res, nil
}

func decode[T any](res *http.Response) (*T, error) {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Status: res.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if !isSuccess(res.StatusCode) {
		return nil, errorFromResponse(res.StatusCode, res.Status, body)
	}

	if res.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Status: res.StatusCode, Message: fmt.Sprintf("invalid JSON response: %v", err), Err: err}
	}
	return &out, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
