package driving

import (
	"context"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// Options select per-run behaviour.
type Options struct {
	// Dynamic enables the live browser discovery strategy in addition
	// to the static parse.
	Dynamic bool
}

// Result is the outcome of a batch run.
type Result struct {
	// Archive is the serialised archive blob.
	Archive []byte

	// Filename is the suggested download name,
	// "<sanitized-hostname>_images.<ext>".
	Filename string

	// Total is the number of resolved assets attempted.
	Total int

	// Fetched is the number of assets that made it into the archive.
	Fetched int

	// Skipped counts per-item failures and duplicates.
	Skipped int
}

// Harvester runs the asset discovery and acquisition pipeline.
type Harvester interface {
	// Run executes a batch harvest: all asset fetches proceed
	// concurrently and no partial result is observable before the join.
	Run(ctx context.Context, pageURL string, opts Options) (*Result, error)

	// Stream executes a streaming harvest: assets are processed strictly
	// in discovery order and an ordered event sequence is emitted on the
	// returned channel, closed after exactly one terminal event.
	// Cancelling ctx stops the run after the in-flight item.
	Stream(ctx context.Context, pageURL string, opts Options) <-chan domain.ProgressEvent
}
