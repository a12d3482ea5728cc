package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// maxFilenameLen caps sanitised names so deeply parameterised CDN paths
// stay extractable on every filesystem.
const maxFilenameLen = 120

var (
	illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// entryLayout assigns collision-free filenames within each folder.
// Not safe for concurrent use; callers lay out after the acquisition join.
type entryLayout struct {
	taken map[domain.Category]map[string]bool
}

func newEntryLayout() *entryLayout {
	return &entryLayout{taken: make(map[domain.Category]map[string]bool)}
}

// place sanitises the filename and resolves collisions with a numeric
// suffix before the extension: name.png, name_1.png, name_2.png, ...
func (l *entryLayout) place(fa domain.FetchedAsset) domain.ArchiveEntry {
	folder := fa.Category
	if l.taken[folder] == nil {
		l.taken[folder] = make(map[string]bool)
	}

	name := SanitizeFilename(fa.Filename)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; l.taken[folder][candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
	l.taken[folder][candidate] = true

	return domain.ArchiveEntry{Folder: folder, Filename: candidate, Body: fa.Body}
}

// BuildEntries lays out fetched assets as archive entries with unique
// (folder, filename) pairs, preserving input order.
func BuildEntries(fetched []domain.FetchedAsset) []domain.ArchiveEntry {
	layout := newEntryLayout()
	entries := make([]domain.ArchiveEntry, 0, len(fetched))
	for _, fa := range fetched {
		entries = append(entries, layout.place(fa))
	}
	return entries
}

// SanitizeFilename strips path and control characters, collapses
// whitespace and caps the length, preserving the extension.
func SanitizeFilename(name string) string {
	name = illegalFilenameChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" || name == "." || name == ".." {
		name = "asset"
	}
	if len(name) > maxFilenameLen {
		ext := path.Ext(name)
		if len(ext) >= maxFilenameLen {
			ext = ""
		}
		name = name[:maxFilenameLen-len(ext)] + ext
	}
	return name
}

// ArchiveFilename derives the suggested download name from the page host.
func ArchiveFilename(host, ext string) string {
	sanitized := illegalFilenameChars.ReplaceAllString(host, "_")
	if sanitized == "" {
		sanitized = "page"
	}
	return sanitized + "_images." + ext
}
