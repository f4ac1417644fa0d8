package readmeview

import (
	"context"
	"log/slog"
	"time"

	"github.com/alnah/go-readmeview/internal/pipeline"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithCandidates sets the ordered locations tried for the document.
// The slice is copied. Duplicates are kept and fetched again.
func WithCandidates(candidates ...string) Option {
	return func(r *Renderer) {
		r.candidates = append([]string(nil), candidates...)
	}
}

// WithFetcher sets how candidate locations are fetched.
func WithFetcher(f Fetcher) Option {
	return func(r *Renderer) {
		r.fetcher = f
	}
}

// WithFallbackPolicy sets how the extra location is derived after every
// candidate fails. Nil disables the extra attempt.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(r *Renderer) {
		if p == nil {
			p = NoFallback
		}
		r.fallbackPolicy = p
	}
}

// WithPagePath sets the path of the hosting page, fed to the fallback policy.
func WithPagePath(path string) Option {
	return func(r *Renderer) {
		r.pagePath = path
	}
}

// WithPageHost sets the host the page is served from. Links to any other
// host open in a new browsing context. When unset, each pass uses the
// host carried by its context (see ContextWithPageHost).
func WithPageHost(host string) Option {
	return func(r *Renderer) {
		r.pageHost = host
	}
}

type pageHostKey struct{}

// ContextWithPageHost returns a copy of ctx carrying the host the page of
// this pass is served from, such as the Host header of an HTTP request.
func ContextWithPageHost(ctx context.Context, host string) context.Context {
	return context.WithValue(ctx, pageHostKey{}, host)
}

// pageHostFrom returns the configured page host, or the one carried by ctx.
func (r *Renderer) pageHostFrom(ctx context.Context) string {
	if r.pageHost != "" {
		return r.pageHost
	}
	host, _ := ctx.Value(pageHostKey{}).(string)
	return host
}

// WithLinkBase resolves relative link and image URLs in the rendered
// document against base, an http(s) URL or a local directory.
func WithLinkBase(base string) Option {
	return func(r *Renderer) {
		r.linkBase = base
	}
}

// WithMarkdownRenderer supplies the full-featured markdown capability.
// Without one every pass uses the fallback converter.
func WithMarkdownRenderer(m MarkdownRenderer) Option {
	return func(r *Renderer) {
		r.full = pipeline.NewFullConverter(m)
	}
}

// WithHighlighter supplies the syntax highlighting capability.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) {
		r.highlighter = h
	}
}

// WithLogger sets the logger. Without one, each pass uses the logger
// carried by its context, or slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithStateHook observes every state transition.
func WithStateHook(hook StateHook) Option {
	return func(r *Renderer) {
		r.hook = hook
	}
}

// WithTimeout bounds each pass. Zero means no limit beyond the caller's
// context.
// Panics if d < 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d < 0 {
		panic("readmeview: WithTimeout duration must not be negative")
	}
	return func(r *Renderer) {
		r.timeout = d
	}
}
