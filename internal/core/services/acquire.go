package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

const (
	// defaultConcurrency bounds the batch-mode worker pool.
	defaultConcurrency = 8

	// minAssetSize rejects tracking pixels and other sub-1KB noise.
	minAssetSize = 1024
)

// magicSignatures are the leading bytes of the accepted binary formats:
// JPEG, PNG, GIF, RIFF (WebP container) and BMP.
var magicSignatures = [][]byte{
	{0xFF, 0xD8, 0xFF},
	{0x89, 0x50, 0x4E, 0x47},
	{0x47, 0x49, 0x46},
	{0x52, 0x49, 0x46, 0x46},
	{0x42, 0x4D},
}

// contentTypeExt maps declared media types to filename extensions.
var contentTypeExt = map[string]string{
	"image/png":                ".png",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
	"image/avif":               ".avif",
	"image/bmp":                ".bmp",
	"image/tiff":               ".tiff",
	"image/jpeg":               ".jpg",
}

// categoryKeywords classify by URL and filename, first match winning in
// this priority order. svg-like matching is handled separately since it
// also consults the declared content type.
var categoryKeywords = []struct {
	category domain.Category
	hints    []string
}{
	{domain.CategoryIcons, []string{"favicon", "touch-icon", "mask-icon", "shortcut", "manifest", "icon"}},
	{domain.CategoryLogos, []string{"logo", "brand"}},
}

var bannerHints = []string{"banner", "hero"}

// Acquirer fetches resolved assets, validates them as genuine image data
// and classifies them into archive folders.
type Acquirer struct {
	fetcher     driven.Fetcher
	concurrency int64
}

// NewAcquirer creates an acquisition engine. A non-positive concurrency
// falls back to the default pool size.
func NewAcquirer(fetcher driven.Fetcher, concurrency int) *Acquirer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Acquirer{fetcher: fetcher, concurrency: int64(concurrency)}
}

// FetchAll acquires every asset concurrently (batch mode) and returns the
// validated, content-deduplicated results in discovery order. Per-item
// failures are skipped, never fatal. skipped counts failures plus
// duplicate-content discards.
func (a *Acquirer) FetchAll(ctx context.Context, referer string, assets []domain.ResolvedAsset) (fetched []domain.FetchedAsset, skipped int) {
	sem := semaphore.NewWeighted(a.concurrency)
	results := make([]*domain.FetchedAsset, len(assets))

	var wg sync.WaitGroup
	for i := range assets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			fa, err := a.FetchOne(ctx, referer, assets[i])
			if err != nil {
				logger.Skip(assets[i].URL, err)
				return
			}
			results[i] = fa
		}(i)
	}
	wg.Wait()

	// Completion order is nondeterministic; deduplicate by content hash in
	// discovery order after the join so reruns are stable.
	hashes := newHashSet()
	for _, fa := range results {
		if fa == nil {
			skipped++
			continue
		}
		if !hashes.add(fa.Hash) {
			logger.Debug("duplicate content for %s, discarding", fa.Asset.URL)
			skipped++
			continue
		}
		fetched = append(fetched, *fa)
	}
	return fetched, skipped
}

// FetchOne acquires and validates a single asset. data: URIs are decoded
// locally; network URLs go through the fetcher with the page as Referer.
func (a *Acquirer) FetchOne(ctx context.Context, referer string, asset domain.ResolvedAsset) (*domain.FetchedAsset, error) {
	if strings.HasPrefix(asset.URL, "data:") {
		return decodeDataURI(asset)
	}

	body, contentType, err := a.fetcher.FetchAsset(ctx, asset.URL, referer)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	// The size floor applies to every network fetch, whatever the declared
	// type; only the binary signature check exempts vector markup.
	if len(body) < minAssetSize {
		return nil, fmt.Errorf("body %d bytes, likely tracking pixel", len(body))
	}
	if !isSVGContent(body, contentType) && !hasImageSignature(body) {
		return nil, fmt.Errorf("no image signature in leading bytes")
	}

	filename := deriveFilename(asset.URL, contentType)
	return &domain.FetchedAsset{
		Asset:       asset,
		Body:        body,
		ContentType: contentType,
		Hash:        contentHash(body),
		Category:    classify(asset.URL, filename, contentType),
		Filename:    filename,
	}, nil
}

// decodeDataURI extracts the payload of an inline data: asset.
// No network call, no size or signature gate: inline assets were embedded
// by the page author and vectors are text, not binary.
func decodeDataURI(asset domain.ResolvedAsset) (*domain.FetchedAsset, error) {
	rest, ok := strings.CutPrefix(asset.URL, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI")
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found || payload == "" {
		return nil, fmt.Errorf("malformed data URI")
	}

	mediaType := meta
	var body []byte
	if strings.HasSuffix(meta, ";base64") {
		mediaType = strings.TrimSuffix(meta, ";base64")
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		body = decoded
	} else {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		body = []byte(decoded)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty data URI payload")
	}

	mediaType = strings.TrimSpace(strings.Split(mediaType, ";")[0])
	ext, ok := contentTypeExt[mediaType]
	if !ok {
		ext = ".bin"
	}
	filename := "inline" + ext

	category := domain.CategoryImages
	if strings.Contains(mediaType, "svg") {
		category = domain.CategorySvgs
	}

	return &domain.FetchedAsset{
		Asset:       asset,
		Body:        body,
		ContentType: mediaType,
		Hash:        contentHash(body),
		Category:    category,
		Filename:    filename,
	}, nil
}

// hasImageSignature checks the leading bytes against the known magic
// numbers, plus the ISO-BMFF "ftyp" box that AVIF/HEIC use.
func hasImageSignature(body []byte) bool {
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(body, sig) {
			return true
		}
	}
	return len(body) >= 12 && bytes.Equal(body[4:8], []byte("ftyp"))
}

// isSVGContent reports whether the body is vector markup, which is exempt
// from the binary signature check.
func isSVGContent(body []byte, contentType string) bool {
	if strings.Contains(contentType, "svg") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<svg")) ||
		(bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(trimmed, []byte("<svg")))
}

// classify picks the archive folder by keyword priority:
// icons, logos, svgs, banners, then the images default.
func classify(assetURL, filename, contentType string) domain.Category {
	haystack := strings.ToLower(assetURL + " " + filename)

	for _, group := range categoryKeywords {
		for _, hint := range group.hints {
			if strings.Contains(haystack, hint) {
				return group.category
			}
		}
	}
	if strings.HasSuffix(strings.ToLower(filename), ".svg") || strings.Contains(contentType, "svg") {
		return domain.CategorySvgs
	}
	for _, hint := range bannerHints {
		if strings.Contains(haystack, hint) {
			return domain.CategoryBanners
		}
	}
	return domain.CategoryImages
}

// deriveFilename extracts a base name from the URL path and guarantees an
// extension: declared content type first, then the URL suffix, then .jpg.
func deriveFilename(assetURL, contentType string) string {
	name := "image"
	if u, err := url.Parse(assetURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	if path.Ext(name) != "" {
		return name
	}

	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if ext, ok := contentTypeExt[mediaType]; ok {
		return name + ext
	}
	if m := imageExtPattern.FindStringSubmatch(strings.ToLower(assetURL)); m != nil {
		return name + "." + m[1]
	}
	return name + ".jpg"
}

func contentHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// hashSet tracks the content hashes seen within one run.
// Safe for use from concurrent completions.
type hashSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newHashSet() *hashSet {
	return &hashSet{seen: make(map[string]bool)}
}

// add records a hash, returning false when it was already present.
func (h *hashSet) add(hash string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seen[hash] {
		return false
	}
	h.seen[hash] = true
	return true
}
