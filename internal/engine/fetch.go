package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/envhound/envhound/internal/config"
)

// FetchResult is the ephemeral outcome of one request; nothing here is
// retained past the processing of a single URL.
type FetchResult struct {
	Status  int
	Body    []byte
	Headers http.Header
}

// Fetcher performs gated outbound requests. One weighted semaphore bounds
// every fetch in the process; page and JS fetches alike draw from it, so
// a JS fan-out burst and page crawling compete for the same permits.
type Fetcher struct {
	client    *http.Client
	gate      *semaphore.Weighted
	headers   map[string]string
	userAgent string
}

// NewFetcher builds the shared HTTP client from run options. Redirects are
// followed and TLS verification is skipped. Concurrency and Timeout must
// already be normalized; New does that before constructing the fetcher.
func NewFetcher(opts *config.Options) (*Fetcher, error) {
	timeout := opts.Timeout
	concurrency := opts.Concurrency

	var transport http.RoundTripper
	if opts.Transport != nil {
		transport = opts.Transport
	} else {
		t := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			MaxIdleConns:        concurrency,
			MaxIdleConnsPerHost: config.Workers(concurrency),
		}
		if opts.Proxy != "" {
			proxyURL, err := url.Parse(opts.Proxy)
			if err != nil {
				return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
			}
			t.Proxy = http.ProxyURL(proxyURL)
		}
		transport = t
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "envhound/1.0"
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		gate:      semaphore.NewWeighted(int64(concurrency)),
		headers:   opts.Headers,
		userAgent: ua,
	}, nil
}

// Fetch retrieves a URL under the global concurrency gate. Timeouts and
// network failures come back as plain errors; any received response,
// whatever its status, is a result.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*FetchResult, error) {
	if err := f.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.gate.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", target, err)
	}

	return &FetchResult{
		Status:  resp.StatusCode,
		Body:    body,
		Headers: resp.Header,
	}, nil
}

// Timeout reports the per-request deadline in use.
func (f *Fetcher) Timeout() time.Duration {
	return f.client.Timeout
}
