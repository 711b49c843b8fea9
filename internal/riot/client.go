// Package riot implements the rate-limited Riot API client and its typed
// endpoint wrappers.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Gustavo-Feijo/league-crawler/internal/telemetry"
)

// defaultRetryAfter is applied when a 429 response omits the Retry-After header.
const defaultRetryAfter = time.Second

// FetchError reports a request that kept failing after the retry budget was
// spent. A 429 never produces a FetchError; rate limiting is absorbed by the
// client's backoff loop.
type FetchError struct {
	Status int
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config holds client construction knobs.
type Config struct {
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// Client issues GET requests against the Riot API, pacing itself with a
// client-side token bucket and honoring server-signaled backoff.
//
// The retry counter and the pending backoff are shared by every call made
// through one instance: rate limits are enforced per API key per worker, so
// each crawl worker owns exactly one Client and serializes its calls. A
// Client is not safe for concurrent use.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	maxRetries int

	retries int
	backoff time.Duration

	// seam for tests
	sleep func(context.Context, time.Duration) error
}

// New constructs a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		sleep:      sleepCtx,
	}
}

// get fetches url and decodes the JSON body into out.
//
// 200 resets the retry counter. 429 records the server's Retry-After as a
// pending backoff and loops without consuming retry budget. Any other status
// consumes budget and fails with a FetchError once the budget is gone.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	for {
		if c.backoff > 0 {
			telemetry.ObserveRateLimitSleep(c.backoff)
			if err := c.sleep(ctx, c.backoff); err != nil {
				return fmt.Errorf("backoff wait: %w", err)
			}
			c.backoff = 0
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("limiter wait: %w", err)
			}
		}

		status, body, wait, err := c.do(ctx, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
			}
			if c.retries >= c.maxRetries {
				return &FetchError{URL: rawURL, Err: err}
			}
			c.retries++
			continue
		}
		telemetry.ObserveRequest(hostOf(rawURL), status)

		switch {
		case status == http.StatusOK:
			c.retries = 0
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s: %w", rawURL, err)
			}
			return nil
		case status == http.StatusTooManyRequests:
			c.backoff = wait
			c.logger.Warn("rate limited",
				zap.String("url", rawURL),
				zap.Duration("retry_after", c.backoff),
			)
		default:
			if c.retries >= c.maxRetries {
				return &FetchError{Status: status, URL: rawURL}
			}
			c.retries++
		}
	}
}

func (c *Client) do(ctx context.Context, rawURL string) (int, []byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, parseRetryAfter(resp.Header), nil
}

// parseRetryAfter reads the server-signaled backoff, defaulting to one second
// when the header is missing or malformed.
func parseRetryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Hostname()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
