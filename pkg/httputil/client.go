package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/wonny/pennyscan/pkg/config"
	"github.com/wonny/pennyscan/pkg/logger"
)

// Client is an HTTP client wrapper with capped retry, optional pacing and logging
// ⭐ SSOT: every outbound HTTP request goes through this client
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is returned when the upstream answers with a non-2xx status
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// New creates a new HTTP client from config
// ⭐ SSOT: http.Client instances are only created here
func New(cfg *config.Config, log *logger.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
		},
		logger: log.Component("httputil"),
		retryConfig: RetryConfig{
			MaxRetries:   cfg.HTTP.MaxRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Enabled:      cfg.HTTP.MaxRetries > 0,
		},
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 10 * time.Second
	}
	if cfg.HTTP.RequestsPerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.HTTP.RequestsPerSec), cfg.HTTP.RequestsPerSec)
	}
	return c
}

// NewWithTimeout creates a client with custom timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	client := New(cfg, log)
	client.httpClient.Timeout = timeout
	return client
}

// Clone returns a copy sharing the transport and limiter, so retry settings can differ per caller
func (c *Client) Clone() *Client {
	clone := *c
	return &clone
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = maxRetries > 0
	return c
}

// DisableRetry disables automatic retry
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.GetWithHeaders(ctx, url, nil)
}

// GetWithHeaders performs a GET request with extra headers
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	return c.do(req)
}

// GetJSON performs a GET request and decodes a 2xx JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, headers http.Header, dest interface{}) error {
	resp, err := c.GetWithHeaders(ctx, url, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, URL: redact(url)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

// PostForm performs a POST request with form data
func (c *Client) PostForm(ctx context.Context, targetURL string, formData url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// Do executes a prepared request through the same pacing, retry and logging path
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req)
}

// do executes the request with pacing, retry logic and logging
func (c *Client) do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	target := redact(req.URL.String())
	method := req.Method

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"method": method,
		"url":    target,
	}).Debug("HTTP request started")

	var resp *http.Response
	var err error
	if c.retryConfig.Enabled {
		resp, err = c.doWithRetry(req)
	} else {
		resp, err = c.httpClient.Do(req)
		err = redactError(err)
	}

	duration := time.Since(startTime)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   method,
			"url":      target,
			"duration": duration,
			"error":    err.Error(),
		}).Debug("HTTP request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      method,
		"url":         target,
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("HTTP request completed")

	return resp, nil
}

// doWithRetry executes the request with capped exponential backoff
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryConfig.InitialDelay
	policy.MaxInterval = c.retryConfig.MaxDelay
	policy.MaxElapsedTime = 0 // bounded by MaxRetries instead

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			err = redactError(err)
			if req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if IsRetryableError(r.StatusCode) {
			_, _ = io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return &StatusError{StatusCode: r.StatusCode, URL: redact(req.URL.String())}
		}
		resp = r
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay,
			"url":     redact(req.URL.String()),
			"error":   err.Error(),
		}).Warn("Retrying HTTP request")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retryConfig.MaxRetries)), req.Context())
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// Retry on 5xx server errors and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// redact strips credentials before a URL is logged: token query parameters
// and Bot API style /bot<id>:<secret> path segments
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, key := range []string{"token", "apikey", "apiKey", "auth"} {
		if q.Has(key) {
			q.Set(key, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "bot") && strings.Contains(seg, ":") {
			segments[i] = "botREDACTED"
		}
	}
	if path := strings.Join(segments, "/"); path != u.Path {
		u.Path = path
		u.RawPath = ""
	}
	return u.String()
}

// redactError rewrites the URL carried by transport errors, which
// net/http embeds verbatim in the message
func redactError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL)
	}
	return err
}
