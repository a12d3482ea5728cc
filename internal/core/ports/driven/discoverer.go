package driven

import (
	"context"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// Discoverer produces candidate assets for a page.
// Each discovery strategy (static markup parse, live browser session)
// implements this interface; the acquisition and archive stages are
// oblivious to which strategy ran.
type Discoverer interface {
	// Name returns the strategy identifier for logging.
	Name() string

	// Discover scans the page and returns every candidate it can find.
	// Secondary fetch failures (stylesheets, manifests) must be swallowed:
	// they reduce coverage, they never abort the run.
	Discover(ctx context.Context, page *domain.Page) ([]domain.CandidateAsset, error)
}
