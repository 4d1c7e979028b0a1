// Package httpclient is the single outbound HTTP surface every
// SocialMapper component uses: Overpass, the Census geocoder, TIGERweb,
// and the Census Data API all flow through one rate-limited, retrying
// client, adapted from sells-group-research-cli's fetcher idiom.
package httpclient

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/socialmapper/socialmapper/internal/errs"
)

// Options configures a Client.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RateLimits map[string]int // host -> requests/minute
	Adaptive   bool            // opt-in per-host adaptive rate, off by default
	Logger     *slog.Logger
}

// DefaultOptions returns sane defaults; RateLimits is left for the
// caller to populate per host.
func DefaultOptions() Options {
	return Options{
		UserAgent:  "socialmapper/1.0",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RateLimits: map[string]int{},
	}
}

// Client is a shared HTTP client with per-host rate limiting and
// exponential-backoff retry on transient failures.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries int
	adaptive   bool
	logger     *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	adaptives map[string]*adaptiveLimiter
	defaultRPM int
}

// New builds a Client from Options.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		adaptive:   opts.Adaptive,
		logger:     logger.With("component", "httpclient"),
		limiters:   map[string]*rate.Limiter{},
		adaptives:  map[string]*adaptiveLimiter{},
		defaultRPM: 60,
	}
	for host, rpm := range opts.RateLimits {
		if host == "default" {
			c.defaultRPM = rpm
			continue
		}
		c.register(host, rpm)
	}
	return c
}

func (c *Client) register(host string, rpm int) {
	limit := rate.Limit(float64(rpm) / 60.0)
	c.limiters[host] = rate.NewLimiter(limit, maxInt(1, rpm/10))
	if c.adaptive {
		c.adaptives[host] = newAdaptiveLimiter(c.limiters[host])
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[host]; ok {
		return l
	}
	c.register(host, c.defaultRPM)
	return c.limiters[host]
}

func (c *Client) adaptiveFor(host string) *adaptiveLimiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adaptives[host]
}

// Get performs a rate-limited, retrying GET request and returns the
// response body. The host is extracted from req.URL for rate-limiting
// purposes.
func (c *Client) Get(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.doWithRetry(ctx, req)
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	host := req.URL.Host
	limiter := c.limiterFor(host)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, errs.Wrap(errs.KindRateLimit, "httpclient", err,
				"rate limiter wait cancelled")
		}

		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			c.logger.Warn("request failed", "host", host, "attempt", attempt, "error", err)
			if !c.sleepBackoff(ctx, attempt, 0) {
				break
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if !c.sleepBackoff(ctx, attempt, 0) {
				break
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if a := c.adaptiveFor(host); a != nil {
				a.OnRateLimit()
			}
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			lastErr = errs.New(errs.KindRateLimit, "httpclient",
				"upstream returned 429", "reduce rate_limit_rpm for this host")
			if !c.sleepBackoff(ctx, attempt, retryAfter) {
				break
			}
			continue
		case resp.StatusCode >= 500:
			lastErr = errs.New(errs.KindExternalService, "httpclient",
				"upstream returned "+strconv.Itoa(resp.StatusCode))
			if !c.sleepBackoff(ctx, attempt, 0) {
				break
			}
			continue
		case resp.StatusCode >= 400:
			return body, resp, errs.New(errs.KindExternalService, "httpclient",
				"upstream returned "+strconv.Itoa(resp.StatusCode),
				"check request parameters and API key")
		default:
			if a := c.adaptiveFor(host); a != nil {
				a.OnSuccess()
			}
			return body, resp, nil
		}
	}
	return nil, nil, errs.Wrap(errs.KindExternalService, "httpclient", lastErr,
		"request failed after retries", "check network connectivity and host availability")
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int, retryAfter time.Duration) bool {
	if attempt >= c.maxRetries {
		return false
	}
	backoff := retryAfter
	if backoff <= 0 {
		base := time.Duration(1<<attempt) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		jitter := time.Duration(rand.Int64N(int64(time.Second)))
		backoff = base + jitter
	}
	select {
	case <-time.After(backoff):
		return true
	case <-ctx.Done():
		return false
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}
