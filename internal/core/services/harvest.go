package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driving"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

// Ensure Harvester implements the interface.
var _ driving.Harvester = (*Harvester)(nil)

// Stage percentages. Downloading scales between downloadStart and
// downloadEnd by completed/total.
const (
	pctValidating   = 2
	pctFetchingPage = 8
	pctAnalyzing    = 15
	pctDiscovering  = 25
	pctDownloadEnd  = 90
	pctPackaging    = 95
	pctDone         = 100
)

// Harvester orchestrates the discovery and acquisition pipeline.
type Harvester struct {
	fetcher  driven.Fetcher
	static   driven.Discoverer
	live     driven.Discoverer
	acquirer *Acquirer
	archiver driven.ArchiveWriter
}

// NewHarvester wires the pipeline. live may be nil; Options.Dynamic is
// then ignored.
func NewHarvester(
	fetcher driven.Fetcher,
	static driven.Discoverer,
	live driven.Discoverer,
	acquirer *Acquirer,
	archiver driven.ArchiveWriter,
) *Harvester {
	return &Harvester{
		fetcher:  fetcher,
		static:   static,
		live:     live,
		acquirer: acquirer,
		archiver: archiver,
	}
}

// Run executes a batch harvest: every asset fetch proceeds concurrently
// and the result is observable only after the join.
func (h *Harvester) Run(ctx context.Context, pageURL string, opts driving.Options) (*driving.Result, error) {
	page, assets, err := h.discover(ctx, pageURL, opts)
	if err != nil {
		return nil, err
	}

	fetched, skipped := h.acquirer.FetchAll(ctx, page.URL.String(), assets)
	if len(fetched) == 0 {
		return nil, domain.ErrAllFetchesFailed
	}

	blob, err := h.archiver.Build(BuildEntries(fetched))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPackaging, err)
	}

	logger.Info("harvest complete: %d/%d assets archived", len(fetched), len(assets))
	return &driving.Result{
		Archive:  blob,
		Filename: ArchiveFilename(page.URL.Hostname(), h.archiver.Extension()),
		Total:    len(assets),
		Fetched:  len(fetched),
		Skipped:  skipped,
	}, nil
}

// Stream executes a streaming harvest. Assets are processed strictly in
// discovery order, one at a time, with an event after each item; the
// channel closes after exactly one terminal event.
func (h *Harvester) Stream(ctx context.Context, pageURL string, opts driving.Options) <-chan domain.ProgressEvent {
	ch := make(chan domain.ProgressEvent)
	go func() {
		defer close(ch)
		p := &progressEmitter{runID: uuid.New().String(), ch: ch, ctx: ctx}
		h.stream(ctx, pageURL, opts, p)
	}()
	return ch
}

func (h *Harvester) stream(ctx context.Context, pageURL string, opts driving.Options, p *progressEmitter) {
	if !p.emit(domain.ProgressEvent{Stage: domain.StageValidating, Percent: pctValidating}) {
		return
	}

	base, err := parsePageURL(pageURL)
	if err != nil {
		p.fail(err)
		return
	}
	if !p.emit(domain.ProgressEvent{Stage: domain.StageFetchingPage, Percent: pctFetchingPage}) {
		return
	}

	page, err := h.fetchPage(ctx, base)
	if err != nil {
		p.fail(err)
		return
	}
	if !p.emit(domain.ProgressEvent{Stage: domain.StageAnalyzing, Percent: pctAnalyzing}) {
		return
	}

	candidates, err := h.runDiscovery(ctx, page, opts)
	if err != nil {
		p.fail(err)
		return
	}
	if !p.emit(domain.ProgressEvent{Stage: domain.StageDiscovering, Percent: pctDiscovering}) {
		return
	}

	assets := Normalize(page.URL, candidates)
	if len(assets) == 0 {
		p.fail(domain.ErrNoAssetsFound)
		return
	}

	// One item at a time so each completion is reported before the next
	// fetch begins. Throughput traded for deterministic progress.
	layout := newEntryLayout()
	hashes := newHashSet()
	var entries []domain.ArchiveEntry
	total := len(assets)

	for i, asset := range assets {
		if ctx.Err() != nil {
			p.fail(ctx.Err())
			return
		}

		item := deriveFilename(asset.URL, "")
		fa, err := h.acquirer.FetchOne(ctx, page.URL.String(), asset)
		switch {
		case err != nil:
			logger.Skip(asset.URL, err)
		case !hashes.add(fa.Hash):
			logger.Debug("duplicate content for %s, discarding", asset.URL)
		default:
			entry := layout.place(*fa)
			entries = append(entries, entry)
			item = entry.Filename
		}

		ok := p.emit(domain.ProgressEvent{
			Stage:     domain.StageDownloading,
			Percent:   pctDiscovering + (i+1)*(pctDownloadEnd-pctDiscovering)/total,
			Total:     total,
			Completed: i + 1,
			Item:      item,
		})
		if !ok {
			return
		}
	}

	if len(entries) == 0 {
		p.fail(domain.ErrAllFetchesFailed)
		return
	}
	if !p.emit(domain.ProgressEvent{Stage: domain.StagePackaging, Percent: pctPackaging}) {
		return
	}

	blob, err := h.archiver.Build(entries)
	if err != nil {
		p.fail(fmt.Errorf("%w: %v", domain.ErrPackaging, err))
		return
	}

	p.emit(domain.ProgressEvent{
		Stage:    domain.StageDone,
		Percent:  pctDone,
		Total:    total,
		Archive:  blob,
		Filename: ArchiveFilename(page.URL.Hostname(), h.archiver.Extension()),
	})
}

// discover is the shared front half of a run: validate, fetch page,
// extract candidates, normalise.
func (h *Harvester) discover(ctx context.Context, pageURL string, opts driving.Options) (*domain.Page, []domain.ResolvedAsset, error) {
	base, err := parsePageURL(pageURL)
	if err != nil {
		return nil, nil, err
	}
	page, err := h.fetchPage(ctx, base)
	if err != nil {
		return nil, nil, err
	}
	candidates, err := h.runDiscovery(ctx, page, opts)
	if err != nil {
		return nil, nil, err
	}
	assets := Normalize(page.URL, candidates)
	if len(assets) == 0 {
		return nil, nil, domain.ErrNoAssetsFound
	}
	return page, assets, nil
}

func (h *Harvester) fetchPage(ctx context.Context, base *url.URL) (*domain.Page, error) {
	page, err := h.fetcher.FetchPage(ctx, base.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPageFetch, err)
	}
	return page, nil
}

func (h *Harvester) runDiscovery(ctx context.Context, page *domain.Page, opts driving.Options) ([]domain.CandidateAsset, error) {
	candidates, err := h.static.Discover(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPageFetch, err)
	}

	if opts.Dynamic && h.live != nil {
		logger.Section("Dynamic discovery")
		more, err := h.live.Discover(ctx, page)
		if err != nil {
			// Live-session failure reduces coverage, it never aborts.
			logger.Warn("%s discovery failed: %v", h.live.Name(), err)
		} else {
			candidates = append(candidates, more...)
		}
	}
	return candidates, nil
}

// parsePageURL validates caller input before any network activity.
func parsePageURL(pageURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(pageURL)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty URL", domain.ErrInvalidInput)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: URL must be absolute http(s)", domain.ErrInvalidInput)
	}
	return u, nil
}

// progressEmitter enforces the ordering invariant: percentages never
// decrease and every event carries the run ID.
type progressEmitter struct {
	runID string
	ch    chan<- domain.ProgressEvent
	ctx   context.Context
	last  int
}

// emit sends an event, clamping the percentage to keep it monotonic.
// Returns false when the consumer is gone.
func (p *progressEmitter) emit(ev domain.ProgressEvent) bool {
	if ev.Percent < p.last {
		ev.Percent = p.last
	} else {
		p.last = ev.Percent
	}
	ev.RunID = p.runID
	select {
	case p.ch <- ev:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *progressEmitter) fail(err error) {
	p.emit(domain.ProgressEvent{
		Stage:   domain.StageFailed,
		Percent: p.last,
		Err:     err.Error(),
	})
}
