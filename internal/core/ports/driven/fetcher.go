package driven

import (
	"context"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

// Fetcher issues the outbound HTTP requests of one run.
// Implementations enforce the per-request timeout and carry the
// descriptive user-agent and accept headers.
type Fetcher interface {
	// FetchPage retrieves the target page. A transport error or a
	// non-success status is fatal to the run.
	FetchPage(ctx context.Context, pageURL string) (*domain.Page, error)

	// FetchAsset retrieves one asset, sending the originating page as
	// Referer. Returns the body and the declared content type.
	FetchAsset(ctx context.Context, assetURL, referer string) ([]byte, string, error)

	// FetchResource retrieves a secondary resource (stylesheet, manifest).
	// Callers treat failures as reduced discovery coverage.
	FetchResource(ctx context.Context, resourceURL string) ([]byte, error)
}
