package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.Fetcher = (*Client)(nil)

const (
	// defaultTimeout bounds every individual request.
	defaultTimeout = 10 * time.Second

	// defaultUserAgent mirrors a mainstream browser. Many CDNs refuse or
	// degrade responses for obvious non-browser agents.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	acceptPage  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"

	// maxBodySize caps a single download at 50 MB.
	maxBodySize = 50 << 20
)

// Options configures the HTTP client.
type Options struct {
	// Timeout per request. Zero means the 10 second default.
	Timeout time.Duration

	// UserAgent overrides the default browser identity.
	UserAgent string

	// RateLimit caps requests per second per client. Zero disables limiting.
	RateLimit float64
}

// Client is the HTTP implementation of driven.Fetcher. A single client is
// shared across the page fetch, stylesheet probes and asset downloads so
// the rate limit covers the whole run.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewClient creates an HTTP fetcher.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   limiter,
	}
}

// FetchPage downloads the target page and returns it with its final URL,
// so redirected pages resolve relative assets against the landing host.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*domain.Page, error) {
	body, resp, err := c.get(ctx, pageURL, acceptPage, "")
	if err != nil {
		return nil, err
	}
	final := resp.Request.URL
	if final == nil {
		final, err = url.Parse(pageURL)
		if err != nil {
			return nil, err
		}
	}
	return &domain.Page{URL: final, HTML: body}, nil
}

// FetchAsset downloads a single asset, presenting the page as Referer for
// hosts that gate hotlinking.
func (c *Client) FetchAsset(ctx context.Context, assetURL, referer string) ([]byte, string, error) {
	body, resp, err := c.get(ctx, assetURL, acceptImage, referer)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// FetchResource downloads a supporting resource such as a stylesheet or a
// web app manifest.
func (c *Client) FetchResource(ctx context.Context, resourceURL string) ([]byte, error) {
	body, _, err := c.get(ctx, resourceURL, "*/*", "")
	return body, err
}

func (c *Client) get(ctx context.Context, rawURL, accept, referer string) ([]byte, *http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: read body: %w", rawURL, err)
	}
	return body, resp, nil
}
