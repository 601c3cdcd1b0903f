// Package fetch provides the shared HTTP layer for provider adapters:
// retrying requests with exponential backoff, streaming downloads with
// stall detection, and lightweight URL probing.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/mediahaul/mediahaul/internal/config"
	"github.com/mediahaul/mediahaul/internal/domain"
)

// Client performs HTTP requests on behalf of provider adapters. It keeps
// two underlying clients: a short-timeout client for metadata requests and
// a no-timeout client for streaming downloads, where a per-read stall
// window guards against dead connections instead.
type Client struct {
	// client is used for short requests (Probe, Fetch) with overall timeout
	client *http.Client
	// streamClient is used for streaming downloads without overall timeout
	streamClient *http.Client
	userAgent    string
	cfg          config.ProvidersConfig
	logger       *slog.Logger
}

// NewClient creates a new HTTP client from provider configuration.
func NewClient(cfg config.ProvidersConfig) *Client {
	// Transport for streaming downloads - no overall timeout, but header timeout
	streamTransport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		streamClient: &http.Client{
			Transport: streamTransport,
			// No Timeout - we use per-read stall detection instead
		},
		userAgent: cfg.UserAgent,
		cfg:       cfg,
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for retry reporting.
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Fetch retrieves the full response body for a URL. Intended for small
// payloads such as playlists and feeds.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.doRetry(ctx, url, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// Stream opens a streaming download for a URL. The returned reader detects
// stalls and must be closed by the caller. Size is -1 when unknown.
func (c *Client) Stream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	resp, err := c.doRetry(ctx, url, true)
	if err != nil {
		return nil, 0, err
	}

	size := resp.ContentLength
	if size < 0 {
		if cl := resp.Header.Get("Content-Length"); cl != "" {
			size, _ = strconv.ParseInt(cl, 10, 64)
		}
	}

	return newStallReader(resp.Body, c.cfg.ReadTimeout), size, nil
}

// SaveTo streams a URL into the file at path. The report callback, when
// non-nil, receives cumulative bytes written and the expected total after
// every chunk. Returns the number of bytes written.
func (c *Client) SaveTo(ctx context.Context, url, path string, report func(written, total int64)) (int64, error) {
	rc, total, err := c.Stream(ctx, url)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	var written int64
	buf := make([]byte, 256*1024)
	for {
		if err := ctx.Err(); err != nil {
			f.Close()
			return written, err
		}

		n, rerr := rc.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				f.Close()
				return written, fmt.Errorf("write output file: %w", werr)
			}
			written += int64(n)
			if report != nil {
				report(written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			return written, fmt.Errorf("read stream: %w", rerr)
		}
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("close output file: %w", err)
	}
	return written, nil
}

// ProbeResult contains information about a remote URL.
type ProbeResult struct {
	ContentType   string
	ContentLength int64
	Accessible    bool
	Error         string
}

// Probe checks URL accessibility without downloading content.
func (c *Client) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &ProbeResult{
			Accessible: false,
			Error:      err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	result := &ProbeResult{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Accessible:    resp.StatusCode == http.StatusOK,
	}
	if !result.Accessible {
		result.Error = fmt.Sprintf("status code %d", resp.StatusCode)
	}

	return result, nil
}

// doRetry issues a GET with retry on transient failures. Responses with a
// non-retryable status are mapped to domain errors and returned immediately.
func (c *Client) doRetry(ctx context.Context, url string, stream bool) (*http.Response, error) {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
			c.logger.Debug("retrying request", "url", url, "attempt", attempt+1, "error", lastErr)
		}

		resp, err := c.do(ctx, url, stream)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("send request: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent {
			return resp, nil
		}

		code := resp.StatusCode
		resp.Body.Close()
		lastErr = statusError(code)
		if !retryableStatus(code) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) do(ctx context.Context, url string, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	if stream {
		return c.streamClient.Do(req)
	}
	return c.client.Do(req)
}

// backoff returns the delay before the given attempt, exponentially grown
// from RetryDelay, capped at MaxRetryDelay, with up to a quarter of jitter
// either side.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.RetryDelay * time.Duration(1<<(attempt-1))
	if delay > c.cfg.MaxRetryDelay {
		delay = c.cfg.MaxRetryDelay
	}
	if delay <= 0 {
		return 0
	}
	if half := int64(delay) / 2; half > 0 {
		delay += time.Duration(rand.Int63n(half)) - delay/4
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// statusError maps an HTTP status to a domain error.
func statusError(code int) error {
	switch {
	case code == http.StatusForbidden || code == http.StatusUnauthorized:
		return domain.ErrURLExpired
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("%w: unexpected status %d", domain.ErrDownloadFailed, code)
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// stallReader wraps an io.ReadCloser and fails the read when no data has
// arrived for the configured window.
type stallReader struct {
	reader   io.ReadCloser
	window   time.Duration
	lastRead time.Time
	mu       sync.Mutex
	closed   bool
}

func newStallReader(r io.ReadCloser, window time.Duration) *stallReader {
	return &stallReader{
		reader:   r,
		window:   window,
		lastRead: time.Now(),
	}
}

func (s *stallReader) Read(buf []byte) (int, error) {
	n, err := s.reader.Read(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	if n > 0 {
		s.lastRead = time.Now()
	}
	if err == nil && s.window > 0 && time.Since(s.lastRead) > s.window {
		return n, fmt.Errorf("download stalled: no data received for %v", s.window)
	}

	return n, err
}

func (s *stallReader) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.reader.Close()
}
