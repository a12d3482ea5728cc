package driven

import (
	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// ArchiveWriter serialises named blobs into a single downloadable archive.
// Entries arrive with collision-free filenames; the writer only groups them
// under folder prefixes and compresses.
type ArchiveWriter interface {
	// Extension returns the archive filename extension, e.g. "zip".
	Extension() string

	// Build serialises the entries into one binary blob.
	Build(entries []domain.ArchiveEntry) ([]byte, error)
}
