package main

import (
	"errors"
	"os"

	readmeview "github.com/alnah/go-readmeview"
	"github.com/alnah/go-readmeview/internal/assets"
	"github.com/alnah/go-readmeview/internal/config"
	"github.com/alnah/go-readmeview/internal/export"
	"github.com/alnah/go-readmeview/internal/highlight"
	"github.com/alnah/go-readmeview/internal/page"
)

// Exit codes for the readmeview CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Command completed
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // Source directory missing, output not writable
	ExitBrowser  = 4 // Browser/Chrome errors
	ExitNotFound = 5 // No candidate location was reachable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Not found (exit 5)
	if errors.Is(err, readmeview.ErrNotFound) {
		return ExitNotFound
	}

	// Browser errors (exit 4)
	if errors.Is(err, export.ErrBrowserConnect) ||
		errors.Is(err, export.ErrPageCreate) ||
		errors.Is(err, export.ErrPageLoad) ||
		errors.Is(err, export.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrSourceDir) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, config.ErrEnvFile) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, page.ErrInvalidTheme) ||
		errors.Is(err, highlight.ErrUnknownStyle) ||
		errors.Is(err, export.ErrInvalidOptions) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, readmeview.ErrInvalidCandidate) {
		return ExitUsage
	}

	return ExitGeneral
}
