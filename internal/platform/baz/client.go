// Package baz is a client for the remote baz service.
package baz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arxiv/zero/internal/domain"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrNoBaz indicates the baz service has no baz with the requested id.
	ErrNoBaz = errors.New("no such baz")

	// ErrBazUnavailable indicates the baz could not be retrieved.
	ErrBazUnavailable = errors.New("baz service unavailable")
)

// Defaults applied by New when Config leaves a field unset.
const (
	DefaultBaseURL    = "https://asdf.com"
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 2
	DefaultBackoff    = 100 * time.Millisecond
)

// Config holds client configuration
type Config struct {
	BaseURL string
	// Param is forwarded to the baz service as the "param" query value.
	Param      string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the first retry delay; later delays double.
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client retrieves bazs over HTTP.
type Client struct {
	baseURL    string
	param      string
	maxRetries uint64
	backoff    time.Duration
	client     *http.Client
	logger     *slog.Logger
}

// New creates a baz client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.Backoff <= 0 {
		config.Backoff = DefaultBackoff
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		param:      config.Param,
		maxRetries: uint64(config.MaxRetries),
		backoff:    config.Backoff,
		client:     config.HTTPClient,
		logger:     config.Logger.With("component", "baz_client"),
	}
}

// Healthy reports whether the baz service answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		c.logger.DebugContext(ctx, "failed to create health request", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "baz service unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// RetrieveBaz fetches the baz with the given id. Transport failures and 5xx
// responses are retried with exponential backoff.
func (c *Client) RetrieveBaz(ctx context.Context, id int64) (domain.Baz, error) {
	c.logger.DebugContext(ctx, "retrieving baz", "baz_id", id)

	var baz domain.Baz
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		baz, err = c.fetch(ctx, id)
		return err
	})
	if err != nil {
		return domain.Baz{}, err
	}

	c.logger.DebugContext(ctx, "retrieved baz", "baz_id", id, "foo", baz.Foo)
	return baz, nil
}

func (c *Client) fetch(ctx context.Context, id int64) (domain.Baz, error) {
	url := fmt.Sprintf("%s/baz/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Baz{}, fmt.Errorf("%w: create request: %w", ErrBazUnavailable, err)
	}
	if c.param != "" {
		q := req.URL.Query()
		q.Set("param", c.param)
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Baz{}, fmt.Errorf("%w: %w", ErrBazUnavailable, err)
		}
		c.logger.DebugContext(ctx, "baz request failed", "error", err, "baz_id", id)
		return domain.Baz{}, retry.RetryableError(fmt.Errorf("%w: %w", ErrBazUnavailable, err))
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Baz{}, ErrNoBaz
	case resp.StatusCode >= 500:
		c.logger.DebugContext(ctx, "baz responded with server error", "status", resp.StatusCode, "baz_id", id)
		return domain.Baz{}, retry.RetryableError(
			fmt.Errorf("%w: could not get baz: %d", ErrBazUnavailable, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.DebugContext(ctx, "baz responded with status", "status", resp.StatusCode, "baz_id", id)
		return domain.Baz{}, fmt.Errorf("%w: could not get baz: %d", ErrBazUnavailable, resp.StatusCode)
	}

	var baz domain.Baz
	if err := json.NewDecoder(resp.Body).Decode(&baz); err != nil {
		c.logger.DebugContext(ctx, "baz response could not be decoded", "error", err)
		return domain.Baz{}, fmt.Errorf("%w: could not read the baz: %w", ErrBazUnavailable, err)
	}
	return baz, nil
}
