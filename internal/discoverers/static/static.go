// Package static discovers asset candidates by parsing the fetched page
// markup: source-like element attributes, srcset lists, inline and linked
// CSS, inline SVG, web manifests, favicons, social preview tags and
// embedded JSON-LD payloads.
package static

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
	"github.com/ferrous-labs/imgcrate-cli/internal/jsonscan"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

// Ensure Discoverer implements the interface.
var _ driven.Discoverer = (*Discoverer)(nil)

// imageElements selects every element that can carry a source-like attribute.
const imageElements = "img, picture source, input[type='image']"

// sourceAttrs are the direct and lazy-load source attribute variants.
var sourceAttrs = []string{
	"src", "data-src", "data-lazy-src", "data-lazy", "data-original", "data-echo", "data-image",
}

// srcsetAttrs hold comma-separated "url descriptor" lists.
var srcsetAttrs = []string{"srcset", "data-srcset"}

// cssURLProps are the CSS properties whose values accept a url() function.
var cssURLProps = []string{
	"background-image", "background", "content", "list-style-image", "border-image", "cursor",
}

// metaImageKeys are the property/name values of social preview tags.
var metaImageKeys = []string{
	"og:image", "og:image:url", "og:image:secure_url",
	"twitter:image", "twitter:image:src",
	"thumbnail", "msapplication-tileimage",
}

// faviconPaths are probed unconditionally; sites often omit the <link> tag.
var faviconPaths = []string{
	"/favicon.ico", "/favicon.png",
	"/apple-touch-icon.png", "/apple-touch-icon-precomposed.png",
}

var (
	urlFunc    = regexp.MustCompile(`url\(\s*['"]?\s*([^'")]+?)\s*['"]?\s*\)`)
	cssDecl    = regexp.MustCompile(`(?i)(?:^|[;{])\s*(` + strings.Join(cssURLProps, "|") + `)\s*:\s*([^;}]+)`)
	imageExt   = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|ico|bmp|avif|tiff?)(\?|#|$)`)
	pixelGIF   = "data:image/gif;base64,R0lGOD"
	pixelPNG1x = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAAB"
)

// Discoverer scans parsed markup for candidate assets.
type Discoverer struct {
	fetcher driven.Fetcher
}

// New creates a static-markup discoverer. The fetcher is used for the
// secondary stylesheet and manifest fetches only.
func New(fetcher driven.Fetcher) *Discoverer {
	return &Discoverer{fetcher: fetcher}
}

// Name returns the strategy identifier.
func (d *Discoverer) Name() string {
	return "static"
}

// Discover runs every heuristic pass over the page. Pass order affects
// only which duplicate's provenance survives dedup, never correctness.
func (d *Discoverer) Discover(ctx context.Context, page *domain.Page) ([]domain.CandidateAsset, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var out []domain.CandidateAsset
	out = append(out, d.elementAttributes(doc)...)
	out = append(out, d.inlineStyles(doc)...)
	out = append(out, d.styleBlocks(doc)...)
	out = append(out, d.linkedStylesheets(ctx, page, doc)...)
	out = append(out, d.inlineSVGs(doc)...)
	out = append(out, d.manifestIcons(ctx, page, doc)...)
	out = append(out, d.favicons(doc)...)
	out = append(out, d.metaTags(doc)...)
	out = append(out, d.jsonLD(doc)...)

	logger.Debug("static discovery found %d candidates", len(out))
	return out, nil
}

// elementAttributes scans the source-like attribute table over every
// image-bearing element.
func (d *Discoverer) elementAttributes(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find(imageElements).Each(func(_ int, s *goquery.Selection) {
		for _, attr := range sourceAttrs {
			val, ok := s.Attr(attr)
			if !ok || isPlaceholder(val) {
				continue
			}
			out = append(out, domain.CandidateAsset{
				Raw:        strings.TrimSpace(val),
				Provenance: domain.ProvenanceElementAttribute,
				Source:     attr,
			})
		}
		for _, attr := range srcsetAttrs {
			val, ok := s.Attr(attr)
			if !ok {
				continue
			}
			for _, u := range parseSrcSet(val) {
				out = append(out, domain.CandidateAsset{
					Raw:        u,
					Provenance: domain.ProvenanceSrcSet,
					Source:     attr,
				})
			}
		}
	})
	return out
}

// inlineStyles scans style="" attributes for url() declarations.
func (d *Discoverer) inlineStyles(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		for _, u := range cssImageURLs(style) {
			out = append(out, domain.CandidateAsset{
				Raw:        u,
				Provenance: domain.ProvenanceInlineStyle,
				Source:     "style",
			})
		}
	})
	return out
}

// styleBlocks scans embedded <style> sheets with the same url() pattern.
func (d *Discoverer) styleBlocks(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		for _, u := range cssImageURLs(s.Text()) {
			out = append(out, domain.CandidateAsset{
				Raw:        u,
				Provenance: domain.ProvenanceInlineStyle,
				Source:     "style-block",
			})
		}
	})
	return out
}

// linkedStylesheets fetches external stylesheets and scans them for url()
// tokens with a recognised image extension. Fetch failures reduce coverage
// but never abort discovery.
func (d *Discoverer) linkedStylesheets(ctx context.Context, page *domain.Page, doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		sheetURL := resolveAgainst(page.URL, href)
		if sheetURL == nil {
			return
		}
		body, err := d.fetcher.FetchResource(ctx, sheetURL.String())
		if err != nil {
			logger.Skip(sheetURL.String(), err)
			return
		}
		for _, match := range urlFunc.FindAllStringSubmatch(string(body), -1) {
			token := strings.TrimSpace(match[1])
			if token == "" || strings.HasPrefix(token, "data:") || !imageExt.MatchString(token) {
				continue
			}
			// Stylesheet-relative tokens resolve against the sheet, not the page.
			abs := resolveAgainst(sheetURL, token)
			if abs == nil {
				continue
			}
			out = append(out, domain.CandidateAsset{
				Raw:        abs.String(),
				Provenance: domain.ProvenanceStylesheet,
				Source:     sheetURL.String(),
			})
		}
	})
	return out
}

// inlineSVGs serialises each <svg> subtree into a self-contained data URI
// rather than extracting a reference.
func (d *Discoverer) inlineSVGs(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("svg").Each(func(_ int, s *goquery.Selection) {
		var buf bytes.Buffer
		for _, node := range s.Nodes {
			if err := html.Render(&buf, node); err != nil {
				return
			}
		}
		if buf.Len() == 0 {
			return
		}
		out = append(out, domain.CandidateAsset{
			Raw:        "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
			Provenance: domain.ProvenanceSvg,
			Source:     "svg",
		})
	})
	return out
}

// manifest is the subset of a web app manifest we care about.
type manifest struct {
	Icons []struct {
		Src string `json:"src"`
	} `json:"icons"`
}

// manifestIcons fetches the app manifest, if linked, and reads its icon list.
func (d *Discoverer) manifestIcons(ctx context.Context, page *domain.Page, doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("link[rel='manifest']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		manifestURL := resolveAgainst(page.URL, href)
		if manifestURL == nil {
			return
		}
		body, err := d.fetcher.FetchResource(ctx, manifestURL.String())
		if err != nil {
			logger.Skip(manifestURL.String(), err)
			return
		}
		var m manifest
		if err := unmarshalLenient(body, &m); err != nil {
			return
		}
		for _, icon := range m.Icons {
			if icon.Src == "" {
				continue
			}
			abs := resolveAgainst(manifestURL, icon.Src)
			if abs == nil {
				continue
			}
			out = append(out, domain.CandidateAsset{
				Raw:        abs.String(),
				Provenance: domain.ProvenanceManifest,
				Source:     manifestURL.String(),
			})
		}
	})
	return out
}

// favicons collects icon link relations plus the conventional paths.
func (d *Discoverer) favicons(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("link[rel*='icon']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		rel, _ := s.Attr("rel")
		out = append(out, domain.CandidateAsset{
			Raw:        strings.TrimSpace(href),
			Provenance: domain.ProvenanceElementAttribute,
			Source:     "link[rel=" + rel + "]",
		})
	})
	for _, p := range faviconPaths {
		out = append(out, domain.CandidateAsset{
			Raw:        p,
			Provenance: domain.ProvenanceElementAttribute,
			Source:     "favicon-probe",
		})
	}
	return out
}

// metaTags scans the social preview tag table.
func (d *Discoverer) metaTags(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, _ := s.Attr("property")
		if key == "" {
			key, _ = s.Attr("name")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return
		}
		for _, want := range metaImageKeys {
			if key != want {
				continue
			}
			content, ok := s.Attr("content")
			if !ok || strings.TrimSpace(content) == "" {
				return
			}
			out = append(out, domain.CandidateAsset{
				Raw:        strings.TrimSpace(content),
				Provenance: domain.ProvenanceMeta,
				Source:     key,
			})
			return
		}
	})
	return out
}

// jsonLD scans embedded JSON-LD payloads with the JSON heuristics.
func (d *Discoverer) jsonLD(doc *goquery.Document) []domain.CandidateAsset {
	var out []domain.CandidateAsset
	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		for _, u := range jsonscan.ScanBytes([]byte(s.Text())) {
			out = append(out, domain.CandidateAsset{
				Raw:        u,
				Provenance: domain.ProvenanceAPIJSON,
				Source:     "ld+json",
			})
		}
	})
	return out
}

// parseSrcSet splits a srcset value into its URL tokens, dropping the
// whitespace-delimited width/density descriptors.
func parseSrcSet(val string) []string {
	var urls []string
	for _, part := range strings.Split(val, ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		if u := fields[0]; u != "" && !isPlaceholder(u) {
			urls = append(urls, u)
		}
	}
	return urls
}

// cssImageURLs extracts url() tokens scoped to the properties that accept
// an image value.
func cssImageURLs(css string) []string {
	var out []string
	for _, decl := range cssDecl.FindAllStringSubmatch(css, -1) {
		for _, match := range urlFunc.FindAllStringSubmatch(decl[2], -1) {
			token := strings.TrimSpace(match[1])
			if token != "" && !isPlaceholder(token) {
				out = append(out, token)
			}
		}
	}
	return out
}

// isPlaceholder filters values that can never resolve to real image bytes:
// empty strings, fragment/script pseudo-links and the common transparent
// one-pixel data URIs used by lazy loaders.
func isPlaceholder(val string) bool {
	v := strings.TrimSpace(val)
	switch {
	case v == "", v == "#":
		return true
	case strings.HasPrefix(v, "javascript:"), strings.HasPrefix(v, "about:"):
		return true
	case strings.HasPrefix(v, pixelGIF), strings.HasPrefix(v, pixelPNG1x):
		return true
	}
	return false
}

func resolveAgainst(base *url.URL, ref string) *url.URL {
	rel, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil
	}
	return base.ResolveReference(rel)
}

// unmarshalLenient tolerates a UTF-8 BOM in front of manifest JSON.
func unmarshalLenient(data []byte, v any) error {
	return json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), v)
}
