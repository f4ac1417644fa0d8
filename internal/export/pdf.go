// Package export prints a rendered host page to PDF with headless Chrome.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-readmeview/internal/fileutil"
	"github.com/alnah/go-readmeview/internal/process"
)

// Sentinel errors for export operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrInvalidOptions = errors.New("invalid export options")
)

// Paper sizes.
const (
	PaperLetter = "letter"
	PaperA4     = "a4"
	PaperLegal  = "legal"
)

// DefaultTimeout bounds page load when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// DefaultMargin is the page margin in inches.
const DefaultMargin = 0.5

// MaxMargin is the largest accepted margin in inches.
const MaxMargin = 3.0

// marginBottomWithFooter leaves room for the page number footer.
const marginBottomWithFooter = 0.75

// paperSizes maps a paper name to width and height in inches (portrait).
var paperSizes = map[string][2]float64{
	PaperLetter: {8.5, 11},
	PaperA4:     {8.27, 11.69},
	PaperLegal:  {8.5, 14},
}

// Options controls page layout.
type Options struct {
	Paper       string  // letter, a4, legal; empty = letter
	Landscape   bool    // swap width and height
	Margin      float64 // inches on every side
	PageNumbers bool    // "n/total" footer
}

// Validate checks the paper name and margin.
func (o Options) Validate() error {
	if _, ok := paperSizes[o.paper()]; !ok {
		return fmt.Errorf("%w: paper %q (must be letter, a4, or legal)", ErrInvalidOptions, o.Paper)
	}
	if o.Margin < 0 || o.Margin > MaxMargin {
		return fmt.Errorf("%w: margin %v (must be between 0 and %v inches)", ErrInvalidOptions, o.Margin, MaxMargin)
	}
	return nil
}

func (o Options) paper() string {
	if o.Paper == "" {
		return PaperLetter
	}
	return strings.ToLower(o.Paper)
}

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing
// without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts Options) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ pdfRenderer = (*rodRenderer)(nil)

// ---------------------------------------------------------------------------
// Exporter
// ---------------------------------------------------------------------------

// Exporter converts host page HTML to PDF. The browser is started on the
// first export and reused until Close.
type Exporter struct {
	renderer pdfRenderer
}

// New creates an Exporter whose page loads wait at most timeout when the
// context carries no deadline.
func New(timeout time.Duration) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Exporter{renderer: newRodRenderer(timeout)}
}

// ToPDF writes page to a temp file, loads it in the browser and prints it.
func (e *Exporter) ToPDF(ctx context.Context, page string, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(page, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return e.renderer.RenderFromFile(ctx, tmpPath, opts)
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	if e.renderer != nil {
		return e.renderer.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// go-rod
// ---------------------------------------------------------------------------

// rodRenderer prints pages with a lazily started headless Chrome. Rod
// downloads Chromium on first use when no browser binary is configured.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// newLauncher configures Chrome from ROD_BROWSER_BIN and ROD_NO_SANDBOX.
// A custom binary or a CI runner implies no sandbox.
func newLauncher() *launcher.Launcher {
	l := launcher.New()
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}
	if bin != "" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" {
		l = l.NoSandbox(true)
	}
	return l
}

func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	l := newLauncher()
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		stopLauncher(l)
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser, r.launcher = b, l
	return b, nil
}

// stopLauncher kills Chrome together with its helper processes.
func stopLauncher(l *launcher.Launcher) {
	process.KillGroup(l.PID())
	l.Kill()
}

// Close shuts the browser down. It is safe to call more than once.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if b := r.browser; b != nil {
		r.browser = nil
		err = b.Close()
	}
	if l := r.launcher; l != nil {
		r.launcher = nil
		stopLauncher(l)
	}
	return err
}

// loadTimeout is the context's remaining time, or the renderer default.
func (r *rodRenderer) loadTimeout(ctx context.Context) (time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return r.timeout, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return left, nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout, err := r.loadTimeout(ctx)
	if err != nil {
		return nil, err
	}
	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filePath)}).String()
	page, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	stream, err := page.Context(ctx).PDF(buildPDFOptions(opts))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

// buildPDFOptions maps Options onto Chrome's print parameters.
// Options are assumed valid.
func buildPDFOptions(opts Options) *proto.PagePrintToPDF {
	size := paperSizes[opts.paper()]
	width, height := size[0], size[1]
	if opts.Landscape {
		width, height = height, width
	}

	marginBottom := opts.Margin
	if opts.PageNumbers && marginBottom < marginBottomWithFooter {
		marginBottom = marginBottomWithFooter
	}

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(opts.Margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(opts.Margin),
		MarginRight:     floatPtr(opts.Margin),
		PrintBackground: true,
	}

	if opts.PageNumbers {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = "<span></span>"
		pdfOpts.FooterTemplate = footerTemplate
	}

	return pdfOpts
}

// footerTemplate uses Chrome's pageNumber and totalPages placeholders.
const footerTemplate = `<div style="font-size: 10px; color: #aaa; width: 100%; text-align: right; padding: 0 0.5in;">` +
	`<span class="pageNumber"></span>/<span class="totalPages"></span></div>`

func floatPtr(v float64) *float64 {
	return &v
}
