package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-readmeview/internal/config"
	"github.com/alnah/go-readmeview/internal/fileutil"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	envFile   string
	logLevel  string
	logFormat string
	quiet     bool
}

// sourceFlags holds flags that choose where the document is looked for.
type sourceFlags struct {
	candidates   []string
	fallbackFile string
	noFallback   bool
	pagePath     string
	timeout      string
	plain        bool // skip the full converter
}

// pageFlags holds host page flags.
type pageFlags struct {
	title          string
	theme          string
	highlightStyle string
	tocTitle       string
	host           string
	assetsDir      string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common   commonFlags
	source   sourceFlags
	page     pageFlags
	output   string
	fragment bool
}

// tocFlags holds all flags for the toc command.
type tocFlags struct {
	common commonFlags
	source sourceFlags
	json   bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common commonFlags
	source sourceFlags
	page   pageFlags
	addr   string
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common      commonFlags
	source      sourceFlags
	page        pageFlags
	output      string
	paper       string
	landscape   bool
	margin      float64
	pageNumbers bool
	timeout     string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.envFile, "env-file", "", "env file with READMEVIEW_* overrides (default ./.env)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
}

// addSourceFlags adds document location flags to a FlagSet.
func addSourceFlags(fs *flag.FlagSet, f *sourceFlags) {
	fs.StringSliceVar(&f.candidates, "candidate", nil, "location to try, in order (repeatable)")
	fs.StringVar(&f.fallbackFile, "fallback-file", "", "file appended to the page path when all candidates fail")
	fs.BoolVar(&f.noFallback, "no-fallback", false, "skip the extra fallback attempt")
	fs.StringVar(&f.pagePath, "page-path", "", "path of the hosting page")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 15s, 1m)")
	fs.BoolVar(&f.plain, "plain", false, "use the built-in minimal converter only")
}

// addPageFlags adds host page flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.title, "title", "", "page title")
	fs.StringVar(&f.theme, "theme", "", "page theme: dark, light")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for code blocks")
	fs.StringVar(&f.tocTitle, "toc-title", "", "table of contents heading")
	fs.StringVar(&f.host, "host", "", "page host; links elsewhere open in a new tab")
	fs.StringVar(&f.assetsDir, "assets-dir", "", "directory overriding styles/ and templates/")
}

func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse parses args and wraps failures as usage errors. --help prints the
// command usage and returns flag.ErrHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	fs := newFlagSet("render", stderr, printRenderUsage)
	f := &renderFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	fs.BoolVar(&f.fragment, "fragment", false, "write the document HTML only, without the page")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addPageFlags(fs, &f.page)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseTocFlags(args []string, stderr io.Writer) (*tocFlags, []string, error) {
	fs := newFlagSet("toc", stderr, printTocUsage)
	f := &tocFlags{}

	fs.BoolVar(&f.json, "json", false, "print the outline as JSON")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	fs := newFlagSet("serve", stderr, printServeUsage)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default 127.0.0.1:8080)")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addPageFlags(fs, &f.page)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseExportFlags(args []string, stderr io.Writer) (*exportFlags, []string, error) {
	fs := newFlagSet("export", stderr, printExportUsage)
	f := &exportFlags{}

	fs.StringVarP(&f.output, "output", "o", defaultPDFOutput, "output PDF file")
	fs.StringVarP(&f.paper, "paper", "p", "", "paper size: letter, a4, legal")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0-3)")
	fs.BoolVar(&f.pageNumbers, "page-numbers", false, "show page numbers in the footer")
	fs.StringVar(&f.timeout, "export-timeout", "", "PDF generation timeout (e.g., 30s, 2m)")
	addCommonFlags(fs, &f.common)
	addSourceFlags(fs, &f.source)
	addPageFlags(fs, &f.page)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	// Margin 0 is valid, so only an explicit flag overrides the config.
	if !fs.Changed("margin") {
		f.margin = -1
	}
	return f, fs.Args(), nil
}

// ---------------------------------------------------------------------------
// Merging (CLI wins over env, env over config file)
// ---------------------------------------------------------------------------

// mergeSource applies source flags and the positional source argument.
// A URL argument selects the remote base, anything else a local directory.
func mergeSource(cfg *config.Config, f *sourceFlags, args []string) error {
	switch len(args) {
	case 0:
	case 1:
		if fileutil.IsURL(args[0]) {
			cfg.Source.BaseURL = args[0]
			cfg.Source.Root = ""
		} else {
			cfg.Source.Root = args[0]
			cfg.Source.BaseURL = ""
		}
	default:
		return fmt.Errorf("%w: expected at most one source, got %d", ErrUsage, len(args))
	}

	if len(f.candidates) > 0 {
		cfg.Source.Candidates = f.candidates
	}
	if f.fallbackFile != "" {
		cfg.Source.FallbackFile = f.fallbackFile
	}
	if f.noFallback {
		cfg.Source.DisableFallback = true
	}
	if f.pagePath != "" {
		cfg.Source.PagePath = f.pagePath
	}
	if f.timeout != "" {
		cfg.Source.Timeout = f.timeout
	}
	return nil
}

// mergePage applies page flags.
func mergePage(cfg *config.Config, f *pageFlags) {
	if f.title != "" {
		cfg.Page.Title = f.title
	}
	if f.theme != "" {
		cfg.Page.Theme = f.theme
	}
	if f.highlightStyle != "" {
		cfg.Page.HighlightStyle = f.highlightStyle
	}
	if f.tocTitle != "" {
		cfg.Page.TocTitle = f.tocTitle
	}
	if f.host != "" {
		cfg.Page.Host = f.host
	}
	if f.assetsDir != "" {
		cfg.Page.AssetsDir = f.assetsDir
	}
}

// mergeLog applies logging flags. --quiet wins over --log-level.
func mergeLog(cfg *config.Config, f *commonFlags) {
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if f.quiet {
		cfg.Log.Level = "error"
	}
}
