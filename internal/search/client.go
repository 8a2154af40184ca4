package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout  = 8 * time.Second
	maxResponseBody = 4 << 20
)

// ErrInFlight is the failure reason for an overlapping call.
var ErrInFlight = errors.New("search already in flight")

// Client performs at most one search at a time against the lesson endpoint.
// Failed searches are reported, never retried.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	logger    *slog.Logger

	inFlight atomic.Bool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, for tests and custom TLS setups.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.http = c
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		if d > 0 {
			client.http.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each search.
func WithUserAgent(ua string) Option {
	return func(client *Client) {
		client.userAgent = strings.TrimSpace(ua)
	}
}

// NewClient builds a client for endpoint, the full URL of the search route.
func NewClient(endpoint string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured search URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Search sends query unmodified and classifies the reply.
func (c *Client) Search(ctx context.Context, query string) Outcome {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logWarn("overlapping search rejected", "query_length", len(query))
		return Failure("%s", ErrInFlight.Error())
	}
	defer c.inFlight.Store(false)

	started := time.Now()
	lessons, err := c.do(ctx, query)
	if err != nil {
		c.logWarn("lesson search failed",
			"error", err.Error(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return Failure("%s", err.Error())
	}

	c.logDebug("lesson search complete",
		"lessons", len(lessons),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return Success(lessons)
}

func (c *Client) do(ctx context.Context, query string) ([]Lesson, error) {
	if c.endpoint == "" {
		return nil, errors.New("search endpoint is not configured")
	}

	body, err := json.Marshal(request{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.endpoint)
	}

	var decoded response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Success == nil {
		return nil, errors.New("decode response: missing success field")
	}
	if !*decoded.Success {
		if msg := strings.TrimSpace(decoded.Error); msg != "" {
			return nil, fmt.Errorf("service reported failure: %s", msg)
		}
		return nil, errors.New("service reported failure")
	}

	lessons := make([]Lesson, 0, len(decoded.Lessons))
	for _, wire := range decoded.Lessons {
		lessons = append(lessons, wire.lesson())
	}
	return lessons, nil
}

func (c *Client) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}

func (c *Client) logDebug(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
