package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	readmeview "github.com/alnah/go-readmeview"
	"github.com/alnah/go-readmeview/internal/export"
	"github.com/alnah/go-readmeview/internal/hints"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/page"
	"github.com/alnah/go-readmeview/internal/pipeline"
	"github.com/alnah/go-readmeview/internal/server"
)

const defaultPDFOutput = "README.pdf"

// runMain dispatches the command in args[1] and returns the exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, rest, env)
	case "toc":
		err = runToc(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "export":
		err = runExport(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "readmeview %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = withHint(err, hints.ForTimeout())
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// renderPass runs one pass and turns NotFound into an error.
func renderPass(ctx context.Context, s *session, plain, resolveLinks bool) (*readmeview.Result, error) {
	r, err := s.newRenderer(plain, resolveLinks)
	if err != nil {
		return nil, err
	}
	res, err := r.Render(logutil.WithLogger(ctx, s.logger))
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, notFoundError(res)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// render
// ---------------------------------------------------------------------------

func runRender(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	s, err := newSession(&f.common, &f.source, &f.page, positional, env.Stderr)
	if err != nil {
		return err
	}

	// A standalone file no longer sits next to the source, so relative
	// links are resolved unless it is printed as a fragment.
	res, err := renderPass(ctx, s, f.source.plain, !f.fragment)
	if err != nil {
		return err
	}

	out := res.HTML
	if !f.fragment {
		builder, opts, err := s.newPageBuilder()
		if err != nil {
			return err
		}
		out, err = builder.Render(page.Content{
			Found:    true,
			HTML:     res.HTML,
			TocHTML:  res.TocHTML,
			Location: s.sourceLink(res.SourceLocation),
		}, opts)
		if err != nil {
			return err
		}
	}

	if err := writeOutput(env.Stdout, f.output, []byte(out)); err != nil {
		return err
	}
	s.logger.Info("rendered",
		"source", res.SourceLocation,
		"converter", res.Converter,
		"headings", len(res.Outline.Headings),
		"output", outputName(f.output))
	return nil
}

// ---------------------------------------------------------------------------
// toc
// ---------------------------------------------------------------------------

func runToc(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseTocFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	s, err := newSession(&f.common, &f.source, nil, positional, env.Stderr)
	if err != nil {
		return err
	}

	res, err := renderPass(ctx, s, f.source.plain, false)
	if err != nil {
		return err
	}

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Outline)
	}
	writeOutline(env.Stdout, res.Outline)
	return nil
}

// writeOutline prints the outline as an indented list of "text #id" lines.
func writeOutline(w io.Writer, o readmeview.Outline) {
	if o.Empty() {
		fmt.Fprintln(w, pipeline.EmptyOutlineMessage)
		return
	}
	var walk func(entries []readmeview.TocEntry, depth int)
	walk = func(entries []readmeview.TocEntry, depth int) {
		for _, e := range entries {
			fmt.Fprintf(w, "%s- %s #%s\n", strings.Repeat("  ", depth), e.Text, e.ID)
			walk(e.Children, depth+1)
		}
	}
	walk(o.Entries, 0)
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func runServe(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	s, err := newSession(&f.common, &f.source, &f.page, positional, env.Stderr)
	if err != nil {
		return err
	}
	if f.addr != "" {
		s.cfg.Server.Addr = f.addr
	}

	// A local root is served alongside the page, so relative links
	// already resolve and only remote sources need rewriting.
	r, err := s.newRenderer(f.source.plain, s.src.static == nil)
	if err != nil {
		return err
	}
	builder, opts, err := s.newPageBuilder()
	if err != nil {
		return err
	}

	router := server.NewRouter(&server.Deps{
		Renderer: r,
		Pages:    builder,
		Page:     opts,
		Static:   s.src.static,
		Logger:   s.logger,
	})
	return server.New(s.cfg.Server.Addr, router, s.cfg.ReadTimeout(), s.logger).Run(ctx)
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func runExport(ctx context.Context, args []string, env *Environment) error {
	start := env.Now()

	f, positional, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	s, err := newSession(&f.common, &f.source, &f.page, positional, env.Stderr)
	if err != nil {
		return err
	}
	mergeExport(s, f)
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	opts := export.Options{
		Paper:       s.cfg.Export.Paper,
		Landscape:   s.cfg.Export.Landscape,
		Margin:      s.cfg.Export.Margin,
		PageNumbers: f.pageNumbers,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	res, err := renderPass(ctx, s, f.source.plain, true)
	if err != nil {
		return err
	}
	builder, pageOpts, err := s.newPageBuilder()
	if err != nil {
		return err
	}
	html, err := builder.Render(page.Content{
		Found:    true,
		HTML:     res.HTML,
		TocHTML:  res.TocHTML,
		Location: s.sourceLink(res.SourceLocation),
	}, pageOpts)
	if err != nil {
		return err
	}

	exporter := env.NewExporter(s.cfg.ExportTimeout())
	defer func() {
		if err := exporter.Close(); err != nil {
			s.logger.Warn("browser cleanup failed", "error", err)
		}
	}()

	pdf, err := exporter.ToPDF(ctx, html, opts)
	if err != nil {
		if errors.Is(err, export.ErrBrowserConnect) {
			return withHint(err, hints.ForBrowserConnect())
		}
		return err
	}

	if err := writeOutput(env.Stdout, f.output, pdf); err != nil {
		return err
	}
	s.logger.Info("exported",
		"source", res.SourceLocation,
		"output", outputName(f.output),
		"bytes", len(pdf),
		"duration", env.Now().Sub(start).Round(time.Millisecond))
	return nil
}

// mergeExport applies export flags over the config.
func mergeExport(s *session, f *exportFlags) {
	if f.paper != "" {
		s.cfg.Export.Paper = f.paper
	}
	if f.landscape {
		s.cfg.Export.Landscape = true
	}
	if f.margin >= 0 {
		s.cfg.Export.Margin = f.margin
	}
	if f.timeout != "" {
		s.cfg.Export.Timeout = f.timeout
	}
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
