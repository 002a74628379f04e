package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/privacy-cli/internal/resilience"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RatePerSecond limits requests per host. Zero disables limiting.
	RatePerSecond float64
	// Headers are sent with every request.
	Headers http.Header
	// HostHeaders are sent only to the keyed host name, e.g. a session
	// Cookie for the table API. Keys are matched case-insensitively without
	// the port.
	HostHeaders map[string]http.Header
	// Backoff is the initial retry delay (default 1s).
	Backoff time.Duration
}

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// On success it increases the rate by 20% (up to 2x initial).
// On 429 it halves the rate (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess increases the rate by 20%, up to 2x initial.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = min(a.currentRate*1.2, a.maxRate)
	a.limiter.SetLimit(a.currentRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = max(a.currentRate*0.5, a.minRate)
	a.limiter.SetLimit(a.currentRate)
	zap.L().Warn("fetcher: reducing rate after 429",
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// HTTPFetcher implements Fetcher using net/http with retry and per-host
// rate limiting.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "privacy-cli/1.0"
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*AdaptiveLimiter),
	}
}

// limiterFor returns the per-host limiter, creating it on first use. It
// returns nil when rate limiting is disabled.
func (f *HTTPFetcher) limiterFor(u *url.URL) *AdaptiveLimiter {
	if f.opts.RatePerSecond <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		burst := max(int(f.opts.RatePerSecond), 1)
		lim = NewAdaptiveLimiter(rate.Limit(f.opts.RatePerSecond), burst)
		f.limiters[u.Host] = lim
	}
	return lim
}

// Get fetches rawURL, retrying network errors, 429 and 5xx responses.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("fetcher: unsupported url scheme %q", u.Scheme)
	}

	cfg := resilience.RetryConfig{
		MaxAttempts:    f.opts.MaxRetries + 1,
		InitialBackoff: f.opts.Backoff,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		OnRetry:        resilience.RetryLogger("fetcher", u.Host),
	}

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Response, error) {
		return f.do(ctx, u)
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, eris.Wrapf(err, "fetcher: get %s", rawURL)
	}
	return resp, nil
}

func (f *HTTPFetcher) do(ctx context.Context, u *url.URL) (*Response, error) {
	lim := f.limiterFor(u)
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	for k, vs := range f.opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for host, h := range f.opts.HostHeaders {
		if !strings.EqualFold(host, u.Hostname()) {
			continue
		}
		for k, vs := range h {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		se := &StatusError{URL: u.String(), StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests && lim != nil {
			lim.OnRateLimit()
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(se, resp.StatusCode)
		}
		return nil, se
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "read body"), 0)
	}
	if lim != nil {
		lim.OnSuccess()
	}

	return &Response{
		URL:        u.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
