package domain

import "errors"

// Domain errors represent pipeline outcomes.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates the page URL is missing or malformed.
	// Surfaced before any network activity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPageFetch indicates the target page is unreachable or returned
	// a non-success status. The run aborts before discovery.
	ErrPageFetch = errors.New("page fetch failed")

	// ErrNoAssetsFound indicates zero candidates survived normalisation.
	// This is a distinct "nothing found" outcome, not a generic failure.
	ErrNoAssetsFound = errors.New("no image assets found")

	// ErrAllFetchesFailed indicates every resolved asset failed acquisition.
	// Surfaced only after the whole run completes.
	ErrAllFetchesFailed = errors.New("all asset downloads failed")

	// ErrPackaging indicates the archive could not be serialised.
	// Fatal to the run.
	ErrPackaging = errors.New("archive packaging failed")
)
