// Package dexscreener retrieves Solana token listings from the public DexScreener API
// and normalizes them into core.TokenRecord values.
package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/raykavin/dexscout/pkg/throttle"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultWebURL  = "https://dexscreener.com"

	// WrappedSOL is the reference asset whose pairs list recently traded Solana tokens
	WrappedSOL = "So11111111111111111111111111111111111111112"

	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxResponseSize = 8 << 20
)

var (
	ErrStatus           = errors.New("unexpected response status")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Client performs GET requests against the DexScreener API
type Client struct {
	baseURL  string
	webURL   string
	http     *http.Client
	attempts int
	log      logger.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL points the client at another API host, mostly for tests
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithWebURL changes the host used to build token detail links
func WithWebURL(url string) ClientOption {
	return func(c *Client) {
		c.webURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// WithAttempts sets how many times a request is tried on transient failures
func WithAttempts(attempts int) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithClientLogger sets the logger used for retry diagnostics
func WithClientLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates an API client
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		baseURL:  DefaultBaseURL,
		webURL:   DefaultWebURL,
		http:     &http.Client{},
		attempts: 2,
		log:      logger.Nop{},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// TokenURL returns the public detail page of a Solana token
func (c *Client) TokenURL(address string) string {
	return fmt.Sprintf("%s/solana/%s", c.webURL, address)
}

// Get fetches path bounded by timeout. Network errors, 429 and 5xx responses are retried
// with exponential backoff while the deadline allows it.
func (c *Client) Get(ctx context.Context, path string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	retry := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		body, retryable, err := c.do(ctx, path)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable || attempt == c.attempts {
			break
		}

		wait := retry.Duration()
		c.log.WithError(err).
			WithFields(map[string]any{"path": path, "attempt": attempt, "wait": wait.String()}).
			Debug("retrying request")

		if err := throttle.Sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("failed to get %s: %w", path, lastErr)
}

func (c *Client) do(ctx context.Context, path string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, ctx.Err() == nil, err
	}

	return body, false, nil
}
