package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	readmeview "github.com/alnah/go-readmeview"
	"github.com/alnah/go-readmeview/internal/assets"
	"github.com/alnah/go-readmeview/internal/config"
	"github.com/alnah/go-readmeview/internal/fileutil"
	"github.com/alnah/go-readmeview/internal/highlight"
	"github.com/alnah/go-readmeview/internal/hints"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/page"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage       = errors.New("usage error")
	ErrSourceDir   = errors.New("source directory not found")
	ErrWriteOutput = errors.New("failed to write output")
)

// hintError appends an actionable hint to an error message.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() + e.hint }
func (e *hintError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if err == nil || hint == "" {
		return err
	}
	return &hintError{err: err, hint: hint}
}

// loadConfig builds the configuration from defaults, the config file, the
// environment and the logging flags, in that order.
func loadConfig(f *commonFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.config != "" {
		loaded, err := config.LoadConfig(f.config)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(f.config) {
				return nil, withHint(err, hints.ForConfigNotFound(config.SearchPaths(f.config)))
			}
			return nil, err
		}
		cfg = loaded
	}

	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	if err := config.ApplyEnv(cfg, envFiles...); err != nil {
		return nil, err
	}

	mergeLog(cfg, f)
	return cfg, nil
}

// source is where the document is fetched from.
type source struct {
	fetcher  readmeview.Fetcher
	linkBase string       // base for relative links once the fragment leaves the source
	static   http.Handler // serves the other files of a local root; nil for remote
}

// openSource selects the HTTP fetcher for a base URL and a directory
// fetcher otherwise. An empty root means the working directory.
func openSource(cfg *config.Config) (*source, error) {
	if base := cfg.Source.BaseURL; base != "" {
		f, err := readmeview.NewHTTPFetcher(base, nil)
		if err != nil {
			return nil, err
		}
		return &source{fetcher: f, linkBase: f.Base()}, nil
	}

	root := cfg.Source.Root
	if root == "" {
		root = "."
	}
	if !fileutil.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrSourceDir, root)
	}
	fsys := os.DirFS(root)
	return &source{
		fetcher:  readmeview.NewFSFetcher(fsys),
		linkBase: root,
		static:   http.FileServerFS(fsys),
	}, nil
}

// session bundles what every command derives from flags and config.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	src    *source
}

// newSession merges flags over the loaded config and opens the source.
// pf is nil for commands without a host page.
func newSession(common *commonFlags, sf *sourceFlags, pf *pageFlags, args []string, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(common)
	if err != nil {
		return nil, err
	}
	if err := mergeSource(cfg, sf, args); err != nil {
		return nil, err
	}
	if pf != nil {
		mergePage(cfg, pf)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logutil.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	src, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, src: src}, nil
}

// highlightStyle is the configured style, or the theme's default.
func (s *session) highlightStyle() (string, error) {
	if s.cfg.Page.HighlightStyle != "" {
		return s.cfg.Page.HighlightStyle, nil
	}
	theme, err := page.ParseTheme(s.cfg.Page.Theme)
	if err != nil {
		return "", err
	}
	return theme.HighlightStyle(), nil
}

// newRenderer wires the library renderer. plain skips goldmark; resolveLinks
// rewrites relative targets against the source.
func (s *session) newRenderer(plain, resolveLinks bool) (*readmeview.Renderer, error) {
	style, err := s.highlightStyle()
	if err != nil {
		return nil, err
	}
	hl, err := highlight.New(style, highlight.WithLanguageGuess())
	if err != nil {
		return nil, withHint(err, hints.ForStyleNotFound(highlight.StyleNames()))
	}

	src := s.cfg.Source
	policy := readmeview.JoinFallback(src.FallbackFile)
	if src.DisableFallback {
		policy = readmeview.NoFallback
	}

	opts := []readmeview.Option{
		readmeview.WithFetcher(s.src.fetcher),
		readmeview.WithFallbackPolicy(policy),
		readmeview.WithPagePath(src.PagePath),
		readmeview.WithPageHost(s.cfg.Page.Host),
		readmeview.WithHighlighter(hl),
		readmeview.WithTimeout(s.cfg.SourceTimeout()),
	}
	if len(src.Candidates) > 0 {
		opts = append(opts, readmeview.WithCandidates(src.Candidates...))
	}
	if !plain {
		opts = append(opts, readmeview.WithMarkdownRenderer(readmeview.NewGoldmarkRenderer(style)))
	}
	if resolveLinks {
		opts = append(opts, readmeview.WithLinkBase(s.src.linkBase))
	}
	return readmeview.NewRenderer(opts...), nil
}

// newPageBuilder loads the page template, from assetsDir when set.
func (s *session) newPageBuilder() (*page.Builder, page.Options, error) {
	resolver, err := assets.NewAssetResolver(s.cfg.Page.AssetsDir)
	if err != nil {
		return nil, page.Options{}, err
	}
	builder, err := page.NewBuilder(resolver)
	if err != nil {
		return nil, page.Options{}, err
	}
	theme, err := page.ParseTheme(s.cfg.Page.Theme)
	if err != nil {
		return nil, page.Options{}, err
	}
	return builder, page.Options{
		Title:          s.cfg.Page.Title,
		TocTitle:       s.cfg.Page.TocTitle,
		Theme:          theme,
		HighlightStyle: s.cfg.Page.HighlightStyle,
	}, nil
}

// sourceLink points at the located markdown from outside the source: the
// remote URL, or a file:// URL under a local root.
func (s *session) sourceLink(location string) string {
	if s.src.static == nil {
		base, err := url.Parse(s.src.linkBase)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(location)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
	abs, err := filepath.Abs(s.src.linkBase)
	if err != nil {
		return ""
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(abs, filepath.FromSlash(location)))}
	return u.String()
}

// notFoundError reports a NotFound pass with the locations tried.
func notFoundError(res *readmeview.Result) error {
	tried := res.TriedLocations()
	return withHint(res.Err(), hints.ForDocumentNotFound(tried))
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := fileutil.WriteOutput(path, data); err != nil {
		return withHint(fmt.Errorf("%w: %v", ErrWriteOutput, err), hints.ForOutputDirectory())
	}
	return nil
}
