// Package locate finds the first reachable document among an ordered list
// of candidate locations.
package locate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultFallbackName is the file JoinFallback appends when given no name.
const DefaultFallbackName = "README.md"

// DefaultCandidates returns the locations tried when none are configured.
// Priority is slice order.
func DefaultCandidates() []string {
	return []string{"/README.md", "/README.MD", "/readme.md", "/readme.MD", "README.md"}
}

// SourceDocument is a fetched document and the location it came from.
type SourceDocument struct {
	Location string
	Text     string
}

// Attempt records the outcome of fetching one location.
type Attempt struct {
	Location   string
	StatusCode int
	Err        error
}

// OK reports whether the attempt produced a usable document.
func (a Attempt) OK() bool {
	return a.Err == nil && isSuccess(a.StatusCode)
}

func (a Attempt) String() string {
	if a.Err != nil {
		return fmt.Sprintf("%s: %v", a.Location, a.Err)
	}
	return fmt.Sprintf("%s: status %d", a.Location, a.StatusCode)
}

// FallbackPolicy synthesizes one extra location from the page path once
// every candidate has failed. It returns false to skip the extra attempt.
type FallbackPolicy func(pagePath string) (string, bool)

// JoinFallback appends name to the page path, dropping trailing slashes.
func JoinFallback(name string) FallbackPolicy {
	if name == "" {
		name = DefaultFallbackName
	}
	return func(pagePath string) (string, bool) {
		return strings.TrimRight(pagePath, "/") + "/" + name, true
	}
}

// NoFallback disables the extra attempt.
func NoFallback(string) (string, bool) {
	return "", false
}

// Locator scans candidates through a Fetcher.
type Locator struct {
	fetcher  Fetcher
	fallback FallbackPolicy
	logger   *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithFallback sets the fallback policy. Nil means NoFallback.
func WithFallback(p FallbackPolicy) Option {
	return func(l *Locator) {
		if p == nil {
			p = NoFallback
		}
		l.fallback = p
	}
}

// WithLogger sets the logger attempts are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Locator. The default fallback policy is JoinFallback("README.md").
func New(fetcher Fetcher, opts ...Option) *Locator {
	l := &Locator{
		fetcher:  fetcher,
		fallback: JoinFallback(DefaultFallbackName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate tries each candidate in order and returns the first success.
// Candidates after the first success are never fetched. When all fail,
// the fallback location is tried; its document carries the fetcher's
// final location. Every attempt made is returned, in order.
//
// A cancelled context stops the scan; the attempts so far are returned
// with ok false.
func (l *Locator) Locate(ctx context.Context, candidates []string, pagePath string) (SourceDocument, bool, []Attempt) {
	attempts := make([]Attempt, 0, len(candidates)+1)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return SourceDocument{}, false, attempts
		}
		doc, attempt := l.try(ctx, candidate)
		attempts = append(attempts, attempt)
		if attempt.OK() {
			return SourceDocument{Location: candidate, Text: doc}, true, attempts
		}
	}

	if ctx.Err() != nil || l.fallback == nil {
		return SourceDocument{}, false, attempts
	}
	location, ok := l.fallback(pagePath)
	if !ok {
		return SourceDocument{}, false, attempts
	}

	resp, err := l.fetcher.Fetch(ctx, location)
	attempt := Attempt{Location: location, StatusCode: resp.StatusCode, Err: err}
	attempts = append(attempts, attempt)
	l.report(ctx, attempt)
	if !attempt.OK() {
		return SourceDocument{}, false, attempts
	}

	final := resp.Location
	if final == "" {
		final = location
	}
	return SourceDocument{Location: final, Text: resp.Body}, true, attempts
}

// try fetches one candidate and reports the attempt.
func (l *Locator) try(ctx context.Context, location string) (string, Attempt) {
	resp, err := l.fetcher.Fetch(ctx, location)
	attempt := Attempt{Location: location, StatusCode: resp.StatusCode, Err: err}
	l.report(ctx, attempt)
	return resp.Body, attempt
}

func (l *Locator) report(ctx context.Context, a Attempt) {
	if a.OK() {
		l.logger.DebugContext(ctx, "candidate found", "location", a.Location, "status", a.StatusCode)
		return
	}
	if a.Err != nil {
		l.logger.DebugContext(ctx, "candidate unreachable", "location", a.Location, "error", a.Err)
		return
	}
	l.logger.DebugContext(ctx, "candidate missing", "location", a.Location, "status", a.StatusCode)
}
