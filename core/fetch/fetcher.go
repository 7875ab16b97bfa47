// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with a browser user agent and, when a
// credential store is configured, the session cookie for the target host.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gaurav-prasanna/article2md/core"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 50 << 20
	defaultAccept   = "text/html,application/xhtml+xml,image/avif,image/webp,image/*;q=0.9,*/*;q=0.8"
)

// ErrTooLarge is returned when a response body exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Config configures the fetcher.
type Config struct {
	Timeout     time.Duration // per request, default 30s
	UserAgent   string
	MaxBytes    int64 // larger bodies fail with ErrTooLarge, default 50MB
	Credentials core.Credentials
	Client      *http.Client // overrides Timeout when set
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = "article2md/1.0"
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}
}

// HTTPFetcher fetches pages and images via HTTP.
type HTTPFetcher struct {
	client *http.Client
	config Config
}

// New creates an HTTPFetcher.
func New(cfg Config) *HTTPFetcher {
	cfg.defaults()
	return &HTTPFetcher{client: cfg.Client, config: cfg}
}

// Fetch retrieves the resource at rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", defaultAccept)
	if f.config.Credentials != nil {
		if cookie := f.config.Credentials.CookieHeader(parsed.Hostname()); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, f.config.MaxBytes)
	}

	return &core.FetchResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
