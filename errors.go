package readmeview

import (
	"errors"

	"github.com/alnah/go-readmeview/internal/locate"
	"github.com/alnah/go-readmeview/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// ErrNotFound is returned by Result.Err when no candidate was reachable.
	// Render itself reports that outcome as StatusNotFound.
	ErrNotFound = errors.New("document not found")

	// ErrHTMLConversion wraps a failure of the full converter. The pass
	// recovers from it with the fallback converter, so callers only see it
	// in logs.
	ErrHTMLConversion = pipeline.ErrHTMLConversion

	// ErrInvalidCandidate is recorded on an Attempt for a location the
	// fetcher cannot address.
	ErrInvalidCandidate = locate.ErrInvalidCandidate

	// ErrDocumentTooLarge is recorded on an Attempt whose body exceeds
	// MaxDocumentSize.
	ErrDocumentTooLarge = locate.ErrDocumentTooLarge
)
