package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates the full converter failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// Converter names reported in render results.
const (
	ConverterFull     = "full"
	ConverterFallback = "fallback"
)

// ConvertOptions are the options handed to a MarkdownRenderer.
type ConvertOptions struct {
	HardBreaks bool // Treat single newlines as <br>
	GFM        bool // Tables, strikethrough, autolinks, task lists
}

// FullOptions are the options the full converter always passes.
var FullOptions = ConvertOptions{HardBreaks: true, GFM: true}

// MarkdownRenderer is an externally supplied, full-featured conversion capability.
type MarkdownRenderer interface {
	RenderMarkdown(text string, opts ConvertOptions) (string, error)
}

// Converter converts markdown text to an HTML fragment.
type Converter interface {
	Convert(ctx context.Context, markdown string) (string, error)
	Name() string
}

// FullConverter delegates to an injected MarkdownRenderer.
type FullConverter struct {
	renderer MarkdownRenderer
}

// NewFullConverter wraps renderer. It returns nil if renderer is nil so that
// callers can treat absence as a plain nil check.
func NewFullConverter(renderer MarkdownRenderer) *FullConverter {
	if renderer == nil {
		return nil
	}
	return &FullConverter{renderer: renderer}
}

// Name implements Converter.
func (c *FullConverter) Name() string { return ConverterFull }

// Convert renders markdown with FullOptions.
// Supports context cancellation via goroutine + select pattern since
// renderers don't natively support context. A panicking renderer is
// reported as ErrHTMLConversion.
func (c *FullConverter) Convert(ctx context.Context, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: panic: %v", ErrHTMLConversion, r)}
			}
		}()
		out, err := c.renderer.RenderMarkdown(markdown, FullOptions)
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: out}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// GoldmarkOption configures a GoldmarkRenderer.
type GoldmarkOption func(*GoldmarkRenderer)

// WithCodeHighlighting highlights fenced code blocks at conversion time
// using the named chroma style. Output uses CSS classes, so the page must
// include the matching stylesheet.
func WithCodeHighlighting(style string) GoldmarkOption {
	return func(r *GoldmarkRenderer) {
		r.highlightStyle = style
	}
}

// GoldmarkRenderer implements MarkdownRenderer using goldmark (pure Go).
// One goldmark instance is built per distinct ConvertOptions value and
// reused afterwards.
type GoldmarkRenderer struct {
	highlightStyle string

	mu        sync.Mutex
	instances map[ConvertOptions]goldmark.Markdown
}

// NewGoldmarkRenderer creates a GoldmarkRenderer.
func NewGoldmarkRenderer(opts ...GoldmarkOption) *GoldmarkRenderer {
	r := &GoldmarkRenderer{instances: make(map[ConvertOptions]goldmark.Markdown)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderMarkdown converts text to an HTML fragment.
func (r *GoldmarkRenderer) RenderMarkdown(text string, opts ConvertOptions) (string, error) {
	md := r.instance(opts)

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// instance returns the goldmark instance for opts, building it on first use.
func (r *GoldmarkRenderer) instance(opts ConvertOptions) goldmark.Markdown {
	r.mu.Lock()
	defer r.mu.Unlock()

	if md, ok := r.instances[opts]; ok {
		return md
	}

	var extensions []goldmark.Extender
	if opts.GFM {
		extensions = append(extensions, extension.GFM) // Tables, strikethrough, autolinks, task lists
	}
	if r.highlightStyle != "" {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(r.highlightStyle),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(true), // CSS classes, stylesheet comes from the page
			),
		))
	}

	rendererOpts := []goldmark.Option{goldmark.WithExtensions(extensions...)}
	if opts.HardBreaks {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),     // Self-closing tags
		))
	}
	// Note: parser.WithAutoHeadingID() intentionally NOT used. Heading ids
	// are assigned by the outline builder so both converters share one
	// slug and collision scheme.
	// Note: WithUnsafe() intentionally NOT used; raw HTML is omitted.

	md := goldmark.New(rendererOpts...)
	r.instances[opts] = md
	return md
}
