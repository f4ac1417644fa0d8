package readmeview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/alnah/go-readmeview/internal/locate"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/pipeline"
)

// Highlighter is the optional syntax highlighting capability. Highlight is
// called once per pass with the fully assembled document body; it may
// rewrite the tree in place.
type Highlighter interface {
	Highlight(body *html.Node)
}

// Renderer runs render passes. It holds only configuration and read-only
// capabilities, so one Renderer may serve concurrent passes.
type Renderer struct {
	fetcher        Fetcher
	candidates     []string
	fallbackPolicy FallbackPolicy
	pagePath       string
	pageHost       string
	linkBase       string
	timeout        time.Duration

	preprocessor pipeline.MarkdownPreprocessor
	full         *pipeline.FullConverter
	fallback     *pipeline.FallbackConverter
	outline      pipeline.OutlineBuilder
	highlighter  Highlighter

	logger *slog.Logger
	hook   StateHook
}

// NewRenderer creates a Renderer. Without options it reads the default
// candidates from the current directory, converts with the fallback
// converter and does not highlight.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		candidates:     DefaultCandidates(),
		fallbackPolicy: JoinFallback(locate.DefaultFallbackName),
		pagePath:       "/",
		preprocessor:   &pipeline.LineEndingPreprocessor{},
		fallback:       &pipeline.FallbackConverter{},
		outline:        pipeline.NewOutlineExtraction(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.fetcher == nil {
		r.fetcher = locate.NewFSFetcher(os.DirFS("."))
	}

	return r
}

// Render locates the document and renders it.
//
// A document that cannot be found is not an error: the result has
// StatusNotFound and lists the attempts made. The error is non-nil only
// when ctx ends before the pass finishes.
func (r *Renderer) Render(ctx context.Context) (*Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p := r.newPass(ctx)
	p.enter(ctx, StateLocating)

	loc := locate.New(r.fetcher,
		locate.WithFallback(r.fallbackPolicy),
		locate.WithLogger(p.logger),
	)
	doc, ok, attempts := loc.Locate(ctx, r.candidates, r.pagePath)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !ok {
		p.enter(ctx, StateNotFound)
		p.logger.WarnContext(ctx, "document not found", "attempts", len(attempts))
		return &Result{Status: StatusNotFound, PassID: p.id, Attempts: attempts}, nil
	}

	res, err := r.run(ctx, p, doc)
	if err != nil {
		return nil, err
	}
	res.Attempts = attempts
	return res, nil
}

// RenderDocument renders an already fetched document, skipping location.
// The pass starts at StateConverting.
func (r *Renderer) RenderDocument(ctx context.Context, doc SourceDocument) (*Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.run(ctx, r.newPass(ctx), doc)
}

func (r *Renderer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

// run converts, outlines and postprocesses doc.
func (r *Renderer) run(ctx context.Context, p *pass, doc SourceDocument) (*Result, error) {
	p.logger = p.logger.With("location", doc.Location)

	// Convert
	p.enter(ctx, StateConverting)
	markdown := r.preprocessor.PreprocessMarkdown(ctx, doc.Text)
	fragment, converter, err := r.convert(ctx, p, markdown)
	if err != nil {
		return nil, err
	}

	parsed, err := pipeline.ParseDocument(fragment)
	if err != nil {
		return nil, fmt.Errorf("parsing converted document: %w", err)
	}
	if r.linkBase != "" {
		if err := pipeline.ResolveRelativeURLs(parsed, r.linkBase); err != nil {
			p.logger.WarnContext(ctx, "link rewriting skipped", "base", r.linkBase, "error", err)
		}
	}

	// Outline
	p.enter(ctx, StateBuildingToc)
	outline, err := r.outline.BuildOutline(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if outline.Empty() {
		p.logger.DebugContext(ctx, "document has no headings")
	}

	// Postprocess
	p.enter(ctx, StatePostprocessing)
	pipeline.MarkExternalLinks(parsed, r.pageHostFrom(ctx))
	r.highlight(ctx, p, parsed.Root())

	out, err := parsed.Render()
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.enter(ctx, StateDone)
	p.logger.InfoContext(ctx, "document rendered",
		"converter", converter,
		"headings", len(outline.Headings),
		"duration", time.Since(p.started),
	)

	return &Result{
		Status:         StatusDone,
		HTML:           out,
		Outline:        outlineFromPipeline(outline),
		TocHTML:        pipeline.RenderOutline(outline),
		SourceLocation: doc.Location,
		SourceText:     doc.Text,
		Converter:      converter,
		PassID:         p.id,
	}, nil
}

// convert picks one converter for the whole document. A failing full
// converter counts as absent for this pass.
func (r *Renderer) convert(ctx context.Context, p *pass, markdown string) (string, string, error) {
	if r.full != nil {
		out, err := r.full.Convert(ctx, markdown)
		if err == nil {
			return out, r.full.Name(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		p.logger.WarnContext(ctx, "full converter failed, using fallback", "error", err)
	}

	out, err := r.fallback.Convert(ctx, markdown)
	if err != nil {
		return "", "", err
	}
	return out, r.fallback.Name(), nil
}

// highlight runs the highlighter once. Its failures never fail the pass.
func (r *Renderer) highlight(ctx context.Context, p *pass, root *html.Node) {
	if r.highlighter == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.WarnContext(ctx, "highlighter panicked", "panic", fmt.Sprint(rec))
		}
	}()
	r.highlighter.Highlight(root)
}

// ---------------------------------------------------------------------------
// Pass bookkeeping
// ---------------------------------------------------------------------------

type pass struct {
	id      string
	state   State
	started time.Time
	logger  *slog.Logger
	hook    StateHook
}

func (r *Renderer) newPass(ctx context.Context) *pass {
	logger := r.logger
	if logger == nil {
		logger = logutil.FromContext(ctx)
	}
	id := uuid.NewString()
	return &pass{
		id:      id,
		state:   StateIdle,
		started: time.Now(),
		logger:  logger.With("pass_id", id),
		hook:    r.hook,
	}
}

func (p *pass) enter(ctx context.Context, next State) {
	change := StateChange{PassID: p.id, From: p.state, To: next}
	p.state = next
	p.logger.DebugContext(ctx, "state changed", "from", change.From.String(), "state", next.String())
	if p.hook != nil {
		p.hook(change)
	}
}

// IsCancellation reports whether err ended a pass because its context was
// cancelled or timed out.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
