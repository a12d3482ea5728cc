// Package jsonscan surfaces plausible image URLs from arbitrary JSON
// payloads, such as API responses observed during a live browser session
// or JSON-LD blocks embedded in markup.
//
// The scan is a best-effort heuristic: false positives are tolerated
// because the acquisition stage re-validates every body by content
// signature, and false negatives are an accepted coverage limitation.
package jsonscan

import (
	"encoding/json"
	"regexp"
	"strings"
)

// minURLLength filters out fragments too short to be a real asset URL.
const minURLLength = 10

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|ico|bmp|avif|tiff?)(\?|#|$)`)

// imageValueHints are substrings that mark a string value as image-like.
var imageValueHints = []string{
	"image", "img", "photo", "picture", "thumb", "avatar", "media", "asset", "cdn",
}

// imageKeyHints are substrings that mark an enclosing object key as image-like.
var imageKeyHints = []string{
	"image", "img", "photo", "picture", "thumb", "avatar", "icon", "logo", "banner", "media", "src", "url",
}

// Scan walks a decoded JSON value and returns every string that is
// plausibly an asset URL, in traversal order.
func Scan(v any) []string {
	var found []string
	walk(v, "", &found)
	return found
}

// ScanBytes decodes a JSON payload and scans it. Invalid JSON yields nil.
func ScanBytes(data []byte) []string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return Scan(v)
}

func walk(v any, key string, found *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			walk(child, k, found)
		}
	case []any:
		for _, child := range val {
			walk(child, key, found)
		}
	case string:
		if qualifies(val, key) {
			*found = append(*found, val)
		}
	}
}

// qualifies applies the value-shape and key-name heuristics.
func qualifies(s, key string) bool {
	if len(s) <= minURLLength {
		return false
	}
	if !strings.HasPrefix(s, "http") && !strings.HasPrefix(s, "//") {
		return false
	}
	if imageExtPattern.MatchString(s) {
		return true
	}
	lower := strings.ToLower(s)
	for _, hint := range imageValueHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	lowerKey := strings.ToLower(key)
	for _, hint := range imageKeyHints {
		if strings.Contains(lowerKey, hint) {
			return true
		}
	}
	return false
}
