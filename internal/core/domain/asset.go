package domain

import (
	"net/url"
	"strings"
)

// Provenance identifies the extraction heuristic that produced a candidate.
// Retained for diagnostics and for tie-breaking duplicate discoveries.
type Provenance string

const (
	ProvenanceElementAttribute Provenance = "element-attribute"
	ProvenanceSrcSet           Provenance = "srcset"
	ProvenanceInlineStyle      Provenance = "inline-style"
	ProvenanceStylesheet       Provenance = "external-stylesheet"
	ProvenanceSvg              Provenance = "inline-svg"
	ProvenanceMeta             Provenance = "meta"
	ProvenanceManifest         Provenance = "manifest"
	ProvenanceNetworkRequest   Provenance = "network-request"
	ProvenanceAPIJSON          Provenance = "api-json"
)

// CandidateAsset is an unvalidated string extracted from a page that might
// reference an image. Created during extraction and consumed once by
// normalisation; never mutated.
type CandidateAsset struct {
	// Raw is the string exactly as found in the page.
	Raw string

	// Provenance records which heuristic pass found it.
	Provenance Provenance

	// Source is the selector, attribute or JSON key it came from.
	Source string
}

// ResolvedAsset is a candidate resolved to an absolute, deduplicated URL.
type ResolvedAsset struct {
	// URL is the absolute http(s) or data: URL.
	URL string

	// Key is the dedup key: URL with query and fragment stripped, lowercased.
	Key string

	// Provenance is carried over from the winning candidate.
	Provenance Provenance
}

// FetchedAsset holds the validated bytes of one acquired asset.
type FetchedAsset struct {
	Asset ResolvedAsset

	// Body is the asset content as fetched. Always non-empty.
	Body []byte

	// ContentType is the declared media type, if any.
	ContentType string

	// Hash is the SHA-256 hex digest of Body, used for content-level dedup.
	Hash string

	// Category is the archive folder this asset belongs in.
	Category Category

	// Filename is the derived, extension-bearing base name (pre-collision).
	Filename string
}

// ArchiveEntry is one named blob in the output archive.
// Within a folder, Filename is unique and contains no path separators,
// quotes or control characters.
type ArchiveEntry struct {
	Folder   Category
	Filename string
	Body     []byte
}

// Category is the archive folder an asset is classified into.
type Category string

const (
	CategoryIcons   Category = "icons"
	CategoryLogos   Category = "logos"
	CategorySvgs    Category = "svgs"
	CategoryBanners Category = "banners"
	CategoryImages  Category = "images"
)

// Page is a fetched, unparsed web page.
type Page struct {
	// URL is the final page URL after redirects.
	URL *url.URL

	// HTML is the raw page markup.
	HTML []byte
}

// NormalizedKey returns the URL-level dedup key for an absolute URL:
// query string and fragment stripped, lowercased.
func NormalizedKey(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.Fragment = ""
	c.RawFragment = ""
	return strings.ToLower(c.String())
}
