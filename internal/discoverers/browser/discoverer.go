// Package browser discovers assets that only exist after JavaScript runs,
// by loading the page in headless Chrome and recording its network
// activity alongside the rendered DOM.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
	"github.com/ferrous-labs/imgcrate-cli/internal/jsonscan"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

// Ensure Discoverer implements the interface.
var _ driven.Discoverer = (*Discoverer)(nil)

const (
	defaultTimeout = 45 * time.Second

	// settleDelay gives lazy loaders and API calls time to fire after the
	// initial navigation completes.
	settleDelay = 5 * time.Second

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures the headless browser session.
type Options struct {
	// Timeout bounds the whole session. Zero means the 45 second default.
	Timeout time.Duration

	// UserAgent overrides the default browser identity.
	UserAgent string
}

// Discoverer runs a headless Chrome session against the page. It yields
// three candidate streams: image responses observed on the wire, URLs
// mined from JSON API responses, and whatever the static ruleset finds in
// the rendered DOM that it missed in the raw HTML.
type Discoverer struct {
	inner     driven.Discoverer
	timeout   time.Duration
	userAgent string
}

// New creates a live discoverer. inner is re-run against the rendered DOM
// and may be nil.
func New(inner driven.Discoverer, opts Options) *Discoverer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Discoverer{inner: inner, timeout: timeout, userAgent: userAgent}
}

// Name identifies the discoverer in logs.
func (d *Discoverer) Name() string {
	return "browser"
}

// Discover loads the page in headless Chrome and collects candidates from
// the live session.
func (d *Discoverer) Discover(ctx context.Context, page *domain.Page) ([]domain.CandidateAsset, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(d.userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, d.timeout)
	defer cancelTimeout()

	rec := newRecorder()
	chromedp.ListenTarget(taskCtx, rec.handle)

	var rendered string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(page.URL.String()),
		chromedp.Sleep(settleDelay),
		chromedp.ActionFunc(rec.fetchBodies),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", page.URL, err)
	}

	candidates := rec.candidates(page.URL.String())
	logger.Debug("browser session yielded %d network candidates", len(candidates))

	if d.inner != nil {
		more, err := d.inner.Discover(ctx, &domain.Page{URL: page.URL, HTML: []byte(rendered)})
		if err != nil {
			logger.Warn("rendered-DOM pass failed: %v", err)
		} else {
			candidates = append(candidates, more...)
		}
	}
	return candidates, nil
}

// recorder accumulates network activity from CDP events. Events arrive on
// the browser's event goroutine, so access is mutex-guarded.
type recorder struct {
	mu         sync.Mutex
	imageURLs  []string
	jsonReqs   []network.RequestID
	jsonBodies [][]byte
}

func newRecorder() *recorder {
	return &recorder{}
}

// handle records image responses and remembers API responses whose bodies
// are worth mining once loading finishes.
func (r *recorder) handle(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case resp.Type == network.ResourceTypeImage:
		r.imageURLs = append(r.imageURLs, resp.Response.URL)
	case resp.Type == network.ResourceTypeXHR || resp.Type == network.ResourceTypeFetch:
		if strings.Contains(resp.Response.MimeType, "json") {
			r.jsonReqs = append(r.jsonReqs, resp.RequestID)
		}
	}
}

// fetchBodies pulls the recorded JSON response bodies out of the browser.
// Runs inside the chromedp executor after the page has settled; bodies
// evicted from the browser cache are skipped.
func (r *recorder) fetchBodies(ctx context.Context) error {
	r.mu.Lock()
	reqs := make([]network.RequestID, len(r.jsonReqs))
	copy(reqs, r.jsonReqs)
	r.mu.Unlock()

	for _, id := range reqs {
		body, err := network.GetResponseBody(id).Do(ctx)
		if err != nil {
			logger.Debug("response body %s unavailable: %v", id, err)
			continue
		}
		r.mu.Lock()
		r.jsonBodies = append(r.jsonBodies, body)
		r.mu.Unlock()
	}
	return nil
}

// candidates converts the recorded activity into candidate assets.
func (r *recorder) candidates(source string) []domain.CandidateAsset {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.CandidateAsset
	for _, u := range r.imageURLs {
		out = append(out, domain.CandidateAsset{
			Raw:        u,
			Provenance: domain.ProvenanceNetworkRequest,
			Source:     source,
		})
	}
	for _, body := range r.jsonBodies {
		for _, u := range jsonscan.ScanBytes(body) {
			out = append(out, domain.CandidateAsset{
				Raw:        u,
				Provenance: domain.ProvenanceAPIJSON,
				Source:     source,
			})
		}
	}
	return out
}
