package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetchTimeout = 10 * time.Second
	defaultRatePerHost  = 2.0
	defaultBurst        = 2
	maxResponseBytes    = 8 << 20
)

type FetcherOptions struct {
	UserAgent   string
	Timeout     time.Duration
	RatePerHost float64
	HTTPClient  *http.Client
}

// Fetcher performs GET requests with a shared user agent and a per-host rate
// limit.
type Fetcher struct {
	client    *http.Client
	userAgent string
	rate      rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	perHost := opts.RatePerHost
	if perHost <= 0 {
		perHost = defaultRatePerHost
	}

	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		rate:      rate.Limit(perHost),
		burst:     defaultBurst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Get fetches rawURL and returns the body. Non-2xx responses are errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	if err := f.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", parsed.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
	}
	return body, nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limiter, ok := f.limiters[host]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(f.rate, f.burst)
	f.limiters[host] = limiter
	return limiter
}
