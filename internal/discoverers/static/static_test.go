package static

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// stubFetcher serves canned secondary resources by URL.
type stubFetcher struct {
	resources map[string][]byte
}

func (f *stubFetcher) FetchPage(_ context.Context, _ string) (*domain.Page, error) {
	return nil, errors.New("not used")
}

func (f *stubFetcher) FetchAsset(_ context.Context, _, _ string) ([]byte, string, error) {
	return nil, "", errors.New("not used")
}

func (f *stubFetcher) FetchResource(_ context.Context, resourceURL string) ([]byte, error) {
	if body, ok := f.resources[resourceURL]; ok {
		return body, nil
	}
	return nil, errors.New("not found")
}

func newPage(t *testing.T, base, markup string) *domain.Page {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	return &domain.Page{URL: u, HTML: []byte(markup)}
}

func discover(t *testing.T, page *domain.Page, resources map[string][]byte) []domain.CandidateAsset {
	t.Helper()
	d := New(&stubFetcher{resources: resources})
	candidates, err := d.Discover(context.Background(), page)
	require.NoError(t, err)
	return candidates
}

func rawValues(candidates []domain.CandidateAsset) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Raw)
	}
	return out
}

func TestDiscover_ElementAttributes(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<html><body>
			<img src="/a.png">
			<img data-src="/b.jpg">
			<img src="">
			<img src="javascript:void(0)">
		</body></html>`)

	raws := rawValues(discover(t, page, nil))

	assert.Contains(t, raws, "/a.png")
	assert.Contains(t, raws, "/b.jpg")
	assert.NotContains(t, raws, "")
	assert.NotContains(t, raws, "javascript:void(0)")
}

func TestDiscover_SrcSet(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<img srcset="/small.jpg 300w, /large.jpg 2x">`)

	candidates := discover(t, page, nil)

	var srcsets []domain.CandidateAsset
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceSrcSet {
			srcsets = append(srcsets, c)
		}
	}
	require.Len(t, srcsets, 2)
	assert.Equal(t, "/small.jpg", srcsets[0].Raw)
	assert.Equal(t, "/large.jpg", srcsets[1].Raw)
}

func TestDiscover_PictureSource(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<picture><source srcset="/hero.webp 1x"><img src="/hero.jpg"></picture>`)

	raws := rawValues(discover(t, page, nil))

	assert.Contains(t, raws, "/hero.webp")
	assert.Contains(t, raws, "/hero.jpg")
}

func TestDiscover_InlineStyle(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<div style="background-image: url('/bg.png'); color: red"></div>
		 <style>.hero { background: #fff url(/banner.jpg) no-repeat; }</style>`)

	candidates := discover(t, page, nil)

	var styled []string
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceInlineStyle {
			styled = append(styled, c.Raw)
		}
	}
	assert.ElementsMatch(t, []string{"/bg.png", "/banner.jpg"}, styled)
}

func TestDiscover_ExternalStylesheet(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<link rel="stylesheet" href="/css/site.css">`)
	resources := map[string][]byte{
		"https://x.test/css/site.css": []byte(
			`.a { background-image: url(../img/tile.png); }
			 .b { background: url(https://cdn.x.test/far.gif); }
			 .c { background: url(/not-an-image.woff2); }`),
	}

	candidates := discover(t, page, resources)

	var sheets []string
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceStylesheet {
			sheets = append(sheets, c.Raw)
		}
	}
	// Relative tokens resolve against the stylesheet URL; non-image
	// extensions are dropped.
	assert.ElementsMatch(t, []string{
		"https://x.test/img/tile.png",
		"https://cdn.x.test/far.gif",
	}, sheets)
}

func TestDiscover_StylesheetFetchFailureIsSwallowed(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<link rel="stylesheet" href="/broken.css"><img src="/a.png">`)

	raws := rawValues(discover(t, page, nil))

	assert.Contains(t, raws, "/a.png")
}

func TestDiscover_InlineSVG(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<svg viewBox="0 0 10 10"><circle cx="5" cy="5" r="4"/></svg>`)

	candidates := discover(t, page, nil)

	var svgs []domain.CandidateAsset
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceSvg {
			svgs = append(svgs, c)
		}
	}
	require.Len(t, svgs, 1)
	assert.True(t, len(svgs[0].Raw) > len("data:image/svg+xml;base64,"))
	assert.Contains(t, svgs[0].Raw, "data:image/svg+xml;base64,")
}

func TestDiscover_Manifest(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<link rel="manifest" href="/site.webmanifest">`)
	resources := map[string][]byte{
		"https://x.test/site.webmanifest": []byte(
			`{"icons": [{"src": "/icons/192.png", "sizes": "192x192"}, {"src": "icons/512.png"}]}`),
	}

	candidates := discover(t, page, resources)

	var icons []string
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceManifest {
			icons = append(icons, c.Raw)
		}
	}
	assert.ElementsMatch(t, []string{
		"https://x.test/icons/192.png",
		"https://x.test/icons/512.png",
	}, icons)
}

func TestDiscover_FaviconLinksAndProbes(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<link rel="icon" href="/fav.svg"><link rel="apple-touch-icon" href="/touch.png">`)

	raws := rawValues(discover(t, page, nil))

	assert.Contains(t, raws, "/fav.svg")
	assert.Contains(t, raws, "/touch.png")
	// Conventional paths are probed even without a <link> tag.
	assert.Contains(t, raws, "/favicon.ico")
	assert.Contains(t, raws, "/apple-touch-icon.png")
}

func TestDiscover_MetaTags(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<head>
			<meta property="og:image" content="https://x.test/og.jpg">
			<meta name="twitter:image" content="/card.png">
			<meta name="description" content="nothing to see">
		</head>`)

	candidates := discover(t, page, nil)

	var metas []string
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceMeta {
			metas = append(metas, c.Raw)
		}
	}
	assert.ElementsMatch(t, []string{"https://x.test/og.jpg", "/card.png"}, metas)
}

func TestDiscover_JSONLD(t *testing.T) {
	page := newPage(t, "https://x.test/",
		`<script type="application/ld+json">
			{"@type": "Article", "image": "https://x.test/article-cover.jpg"}
		</script>`)

	candidates := discover(t, page, nil)

	var found []string
	for _, c := range candidates {
		if c.Provenance == domain.ProvenanceAPIJSON {
			found = append(found, c.Raw)
		}
	}
	assert.Equal(t, []string{"https://x.test/article-cover.jpg"}, found)
}

func TestParseSrcSet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"width descriptors", "/a.jpg 300w, /b.jpg 600w", []string{"/a.jpg", "/b.jpg"}},
		{"density descriptors", "/a.jpg 1x, /b.jpg 2x", []string{"/a.jpg", "/b.jpg"}},
		{"bare url", "/only.png", []string{"/only.png"}},
		{"empty entries", " , /a.png 1x, ", []string{"/a.png"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSrcSet(tt.in))
		})
	}
}
