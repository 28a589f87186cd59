// Package httputil provides a hardened HTTP client, the page fetcher used by
// the extraction pipeline, and URL/ID sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the per-request ceiling applied to every fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is the browser profile presented to embed hosts.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodySize  = 5 * 1024 * 1024
	maxRedirects = 10
)

// NewClient creates a hardened HTTP client with secure defaults.
// A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// FetchError reports a failed page fetch: a transport error, a timeout or a
// non-2xx status.
type FetchError struct {
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher performs GET requests with a fixed browser-like header profile.
// It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher wraps client. An empty userAgent selects DefaultUserAgent.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = NewClient(DefaultTimeout)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads pageURL and returns its body. Every failure, including a
// non-2xx status, is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: pageURL, Status: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("reading response: %w", err)}
	}

	return string(body), nil
}
