package export

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
)

// mockRenderer implements pdfRenderer for testing.
type mockRenderer struct {
	Result     []byte
	Err        error
	CalledWith string
	Content    string
	CalledOpts Options
	Closed     bool
}

func (m *mockRenderer) RenderFromFile(ctx context.Context, filePath string, opts Options) ([]byte, error) {
	m.CalledWith = filePath
	m.CalledOpts = opts
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	m.Content = string(data)
	return m.Result, m.Err
}

func (m *mockRenderer) Close() error {
	m.Closed = true
	return nil
}

// ---------------------------------------------------------------------------
// Exporter
// ---------------------------------------------------------------------------

func TestExporter_ToPDF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       Options
		mock       *mockRenderer
		wantErr    error
		wantCalled bool
	}{
		{
			name:       "successful render returns PDF bytes",
			opts:       Options{Margin: DefaultMargin},
			mock:       &mockRenderer{Result: []byte("%PDF-1.4 fake")},
			wantCalled: true,
		},
		{
			name:       "renderer error propagates",
			opts:       Options{},
			mock:       &mockRenderer{Err: ErrPageLoad},
			wantErr:    ErrPageLoad,
			wantCalled: true,
		},
		{
			name:    "invalid paper is rejected before rendering",
			opts:    Options{Paper: "tabloid"},
			mock:    &mockRenderer{},
			wantErr: ErrInvalidOptions,
		},
		{
			name:    "negative margin is rejected",
			opts:    Options{Margin: -1},
			mock:    &mockRenderer{},
			wantErr: ErrInvalidOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := &Exporter{renderer: tt.mock}
			got, err := e.ToPDF(context.Background(), "<html><body>page</body></html>", tt.opts)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			called := tt.mock.CalledWith != ""
			if called != tt.wantCalled {
				t.Fatalf("renderer called = %v, want %v", called, tt.wantCalled)
			}
			if !called {
				return
			}
			if !strings.HasSuffix(tt.mock.CalledWith, ".html") {
				t.Errorf("temp file %q should have .html extension", tt.mock.CalledWith)
			}
			if !strings.Contains(tt.mock.Content, "page") {
				t.Errorf("temp file content = %q", tt.mock.Content)
			}
			if _, err := os.Stat(tt.mock.CalledWith); !os.IsNotExist(err) {
				t.Errorf("temp file %q should be removed after export", tt.mock.CalledWith)
			}
			if tt.wantErr == nil && string(got) != string(tt.mock.Result) {
				t.Errorf("ToPDF() = %q, want %q", got, tt.mock.Result)
			}
		})
	}
}

func TestExporter_Close(t *testing.T) {
	t.Parallel()

	mock := &mockRenderer{}
	e := &Exporter{renderer: mock}
	if err := e.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mock.Closed {
		t.Error("Close should close the renderer")
	}
}

func TestRodRenderer_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(DefaultTimeout)
	_, err := r.RenderFromFile(ctx, "/nonexistent.html", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if r.browser != nil {
		t.Error("browser should not be started for a cancelled context")
	}
}

func TestRodRenderer_ExpiredDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	r := newRodRenderer(DefaultTimeout)
	if _, err := r.loadTimeout(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("loadTimeout() error = %v, want DeadlineExceeded", err)
	}
	if got, _ := r.loadTimeout(context.Background()); got != DefaultTimeout {
		t.Errorf("loadTimeout() without deadline = %v, want %v", got, DefaultTimeout)
	}
}

// newLauncher reads the environment, so these cases run sequentially.
func TestNewLauncher(t *testing.T) {
	t.Run("custom binary disables sandbox", func(t *testing.T) {
		t.Setenv("ROD_BROWSER_BIN", "/usr/bin/chromium")
		t.Setenv("ROD_NO_SANDBOX", "")

		l := newLauncher()
		if got := l.Get(flags.Bin); got != "/usr/bin/chromium" {
			t.Errorf("bin = %q, want /usr/bin/chromium", got)
		}
		if !l.Has(flags.NoSandbox) {
			t.Error("custom binary should disable the sandbox")
		}
	})

	t.Run("explicit no sandbox", func(t *testing.T) {
		t.Setenv("ROD_BROWSER_BIN", "")
		t.Setenv("ROD_NO_SANDBOX", "1")

		if !newLauncher().Has(flags.NoSandbox) {
			t.Error("ROD_NO_SANDBOX=1 should disable the sandbox")
		}
	})
}

// ---------------------------------------------------------------------------
// buildPDFOptions
// ---------------------------------------------------------------------------

func TestBuildPDFOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       Options
		wantWidth  float64
		wantHeight float64
		wantBottom float64
		wantTop    float64
		wantFooter bool
	}{
		{
			name:       "default is letter portrait",
			opts:       Options{Margin: 0.5},
			wantWidth:  8.5,
			wantHeight: 11,
			wantTop:    0.5,
			wantBottom: 0.5,
		},
		{
			name:       "a4 landscape swaps dimensions",
			opts:       Options{Paper: "A4", Landscape: true, Margin: 1},
			wantWidth:  11.69,
			wantHeight: 8.27,
			wantTop:    1,
			wantBottom: 1,
		},
		{
			name:       "legal",
			opts:       Options{Paper: PaperLegal},
			wantWidth:  8.5,
			wantHeight: 14,
		},
		{
			name:       "page numbers enlarge small bottom margin",
			opts:       Options{Margin: 0.5, PageNumbers: true},
			wantWidth:  8.5,
			wantHeight: 11,
			wantTop:    0.5,
			wantBottom: marginBottomWithFooter,
			wantFooter: true,
		},
		{
			name:       "page numbers keep large bottom margin",
			opts:       Options{Margin: 2, PageNumbers: true},
			wantWidth:  8.5,
			wantHeight: 11,
			wantTop:    2,
			wantBottom: 2,
			wantFooter: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildPDFOptions(tt.opts)

			if *got.PaperWidth != tt.wantWidth || *got.PaperHeight != tt.wantHeight {
				t.Errorf("size = %vx%v, want %vx%v", *got.PaperWidth, *got.PaperHeight, tt.wantWidth, tt.wantHeight)
			}
			if *got.MarginTop != tt.wantTop {
				t.Errorf("MarginTop = %v, want %v", *got.MarginTop, tt.wantTop)
			}
			if *got.MarginBottom != tt.wantBottom {
				t.Errorf("MarginBottom = %v, want %v", *got.MarginBottom, tt.wantBottom)
			}
			if !got.PrintBackground {
				t.Error("PrintBackground should be true")
			}
			if got.DisplayHeaderFooter != tt.wantFooter {
				t.Errorf("DisplayHeaderFooter = %v, want %v", got.DisplayHeaderFooter, tt.wantFooter)
			}
			if tt.wantFooter && !strings.Contains(got.FooterTemplate, "pageNumber") {
				t.Errorf("FooterTemplate = %q, want pageNumber placeholder", got.FooterTemplate)
			}
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"zero value", Options{}, false},
		{"letter", Options{Paper: PaperLetter}, false},
		{"uppercase a4", Options{Paper: "A4"}, false},
		{"max margin", Options{Margin: MaxMargin}, false},
		{"unknown paper", Options{Paper: "b5"}, true},
		{"margin too large", Options{Margin: MaxMargin + 0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestRodRenderer_CloseWithoutBrowser(t *testing.T) {
	t.Parallel()

	r := newRodRenderer(DefaultTimeout)
	if err := r.Close(); err != nil {
		t.Errorf("Close() on an unused renderer = %v, want nil", err)
	}
	// Idempotent.
	if err := r.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}
