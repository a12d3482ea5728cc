package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/logger"
)

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|ico|bmp|avif|tiff?)(\?|#|$)`)

// trackingHints mark URLs that are almost certainly analytics artifacts.
// Best-effort noise filter; the 1 KB body check catches the rest.
var trackingHints = []string{"1x1", "pixel", "spacer", "blank.gif", "beacon", "analytics"}

// imageKeywords let extension-less URLs through when the URL itself
// advertises image content.
var imageKeywords = []string{"image", "img", "photo", "picture", "thumb", "avatar", "icon", "logo", "banner", "media"}

// trustedProvenances bypass the looks-like-an-image filter: these sources
// assert image content structurally (an img attribute, a srcset entry, a
// browser-classified image request), so the post-fetch signature check is
// the authoritative gate and extension-less CDN URLs are not lost.
var trustedProvenances = map[domain.Provenance]bool{
	domain.ProvenanceElementAttribute: true,
	domain.ProvenanceSrcSet:           true,
	domain.ProvenanceNetworkRequest:   true,
}

// Normalize resolves candidates against the page base URL, filters obvious
// non-assets and deduplicates by normalised key, first occurrence winning.
// Output order is traversal order; callers must not rely on it beyond
// "each surviving URL appears exactly once".
func Normalize(base *url.URL, candidates []domain.CandidateAsset) []domain.ResolvedAsset {
	seen := make(map[string]bool, len(candidates))
	var out []domain.ResolvedAsset

	for _, c := range candidates {
		raw := strings.TrimSpace(c.Raw)
		if raw == "" {
			continue
		}

		if strings.HasPrefix(raw, "data:") {
			if !strings.HasPrefix(raw, "data:image/") {
				continue
			}
			if seen[raw] {
				continue
			}
			seen[raw] = true
			out = append(out, domain.ResolvedAsset{URL: raw, Key: raw, Provenance: c.Provenance})
			continue
		}

		rel, err := url.Parse(raw)
		if err != nil {
			logger.Debug("dropping unparsable candidate %q: %v", raw, err)
			continue
		}
		abs := base.ResolveReference(rel)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		if isTrackingArtifact(abs.String()) {
			continue
		}
		if !trustedProvenances[c.Provenance] && !looksLikeImage(abs.String()) {
			continue
		}

		key := domain.NormalizedKey(abs)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.ResolvedAsset{
			URL:        abs.String(),
			Key:        key,
			Provenance: c.Provenance,
		})
	}

	logger.Debug("normalisation kept %d of %d candidates", len(out), len(candidates))
	return out
}

func isTrackingArtifact(u string) bool {
	lower := strings.ToLower(u)
	for _, hint := range trackingHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func looksLikeImage(u string) bool {
	if imageExtPattern.MatchString(u) {
		return true
	}
	lower := strings.ToLower(u)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
