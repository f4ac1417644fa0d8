package main

// Notes:
// - runMain: we run whole commands against a temp directory source and
//   check exit codes and output. serve is not started here; its router and
//   server are covered in internal/server.
// - export: the browser is replaced by a fake PDFExporter through
//   Environment.NewExporter, so Chrome is never launched.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-readmeview/internal/export"
)

// ---------------------------------------------------------------------------
// Test Infrastructure
// ---------------------------------------------------------------------------

const testReadme = "# Title\n\nHello *world*\n\n## Usage\n\nRun it.\n"

type fakeExporter struct {
	page   string
	opts   export.Options
	closed bool
	err    error
}

func (f *fakeExporter) ToPDF(_ context.Context, page string, opts export.Options) ([]byte, error) {
	f.page = page
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

func (f *fakeExporter) Close() error {
	f.closed = true
	return nil
}

func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer, *fakeExporter) {
	var stdout, stderr bytes.Buffer
	fake := &fakeExporter{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Environment{
		Now:         func() time.Time { return now },
		Stdout:      &stdout,
		Stderr:      &stderr,
		NewExporter: func(time.Duration) PDFExporter { return fake },
	}, &stdout, &stderr, fake
}

// sourceDir returns a temp directory holding files.
func sourceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

func TestRunMain_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"readmeview"}, ExitUsage, "", "Usage: readmeview"},
		{"unknown command", []string{"readmeview", "nope"}, ExitUsage, "", "unknown command: nope"},
		{"version", []string{"readmeview", "version"}, ExitSuccess, "readmeview dev", ""},
		{"help", []string{"readmeview", "help"}, ExitSuccess, "Commands:", ""},
		{"help command", []string{"readmeview", "help", "export"}, ExitSuccess, "ROD_NO_SANDBOX", ""},
		{"help unknown", []string{"readmeview", "help", "nope"}, ExitUsage, "", "unknown command: nope"},
		{"command help flag", []string{"readmeview", "toc", "--help"}, ExitSuccess, "", "Usage: readmeview toc"},
		{"bad flag", []string{"readmeview", "render", "--nope"}, ExitUsage, "", "usage error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr, _ := testEnv()
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q, got %q", tt.wantStdout, stdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q, got %q", tt.wantStderr, stderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// render
// ---------------------------------------------------------------------------

func TestRunMain_RenderFragment(t *testing.T) {
	t.Parallel()

	for _, plain := range []bool{false, true} {
		dir := sourceDir(t, map[string]string{"README.md": testReadme})
		env, stdout, stderr, _ := testEnv()

		args := []string{"readmeview", "render", "--fragment", "-q", dir}
		if plain {
			args = append(args, "--plain")
		}
		if code := runMain(args, env); code != ExitSuccess {
			t.Fatalf("plain=%v: exit code = %d, stderr: %s", plain, code, stderr)
		}

		out := stdout.String()
		for _, want := range []string{`<h1 id="title">Title</h1>`, `<h2 id="usage">Usage</h2>`} {
			if !strings.Contains(out, want) {
				t.Errorf("plain=%v: output missing %q, got %q", plain, want, out)
			}
		}
		if strings.Contains(out, "<html") {
			t.Errorf("plain=%v: fragment should not contain the page", plain)
		}
	}
}

func TestRunMain_RenderPageToFile(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{
		"docs/README.md": testReadme + "\n![logo](logo.png)\n",
	})
	out := filepath.Join(t.TempDir(), "site", "index.html")
	env, _, stderr, _ := testEnv()

	code := runMain([]string{
		"readmeview", "render", "-o", out,
		"--candidate", "/docs/README.md", "--theme", "light", "--title", "My Project",
		dir,
	}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	page := string(data)
	for _, want := range []string{
		`data-theme="light"`,
		"My Project",
		`href="#usage"`,
		`id="raw-link" href="file://`,
		"/docs/README.md",
		`src="file://`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if !strings.Contains(stderr.String(), "rendered") {
		t.Errorf("expected info log, got %q", stderr)
	}
}

func TestRunMain_NotFound(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, nil)
	env, stdout, stderr, _ := testEnv()

	code := runMain([]string{"readmeview", "render", "-q", dir}, env)
	if code != ExitNotFound {
		t.Fatalf("exit code = %d, want %d", code, ExitNotFound)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be written on not found, got %q", stdout)
	}
	for _, want := range []string{"document not found", "hint: tried /README.md"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q, got %q", want, stderr)
		}
	}
}

func TestRunMain_SourceErrors(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{"README.md": testReadme})

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"missing directory", []string{filepath.Join(dir, "missing")}, ExitIO, "source directory not found"},
		{"invalid theme", []string{"--theme", "sepia", dir}, ExitUsage, "theme"},
		{"unknown highlight style", []string{"--highlight-style", "no-such-style", dir}, ExitUsage, "available:"},
		{"invalid timeout", []string{"--timeout", "soon", dir}, ExitUsage, "timeout"},
		{"missing config", []string{"--config", "no-such-config", dir}, ExitUsage, "config file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr, _ := testEnv()
			code := runMain(append([]string{"readmeview", "render"}, tt.args...), env)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr missing %q, got %q", tt.wantErr, stderr)
			}
		})
	}
}

func TestRunMain_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{"guide.md": "# Guide\n"})
	cfgPath := filepath.Join(t.TempDir(), "readmeview.yaml")
	cfgYAML := "source:\n  root: " + dir + "\n  candidates:\n    - /guide.md\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	env, stdout, stderr, _ := testEnv()
	code := runMain([]string{"readmeview", "render", "--fragment", "-c", cfgPath}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), `<h1 id="guide">Guide</h1>`) {
		t.Errorf("unexpected output %q", stdout)
	}
}

// ---------------------------------------------------------------------------
// toc
// ---------------------------------------------------------------------------

func TestRunMain_Toc(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{"README.md": testReadme + "\n## Usage\n"})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr, _ := testEnv()
		if code := runMain([]string{"readmeview", "toc", "-q", dir}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		want := "- Title #title\n  - Usage #usage\n  - Usage #usage-2\n"
		if stdout.String() != want {
			t.Errorf("toc = %q, want %q", stdout, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		env, stdout, stderr, _ := testEnv()
		if code := runMain([]string{"readmeview", "toc", "--json", "-q", dir}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d, stderr: %s", code, stderr)
		}
		var got struct {
			Headings []struct {
				Level int    `json:"level"`
				ID    string `json:"id"`
			} `json:"headings"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Headings) != 3 || got.Headings[2].ID != "usage-2" {
			t.Errorf("headings = %+v", got.Headings)
		}
	})

	t.Run("no headings", func(t *testing.T) {
		t.Parallel()

		plain := sourceDir(t, map[string]string{"README.md": "just text\n"})
		env, stdout, _, _ := testEnv()
		if code := runMain([]string{"readmeview", "toc", "-q", plain}, env); code != ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if !strings.Contains(stdout.String(), "No headings") {
			t.Errorf("toc = %q", stdout)
		}
	})
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func TestRunMain_Export(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{"README.md": testReadme})
	out := filepath.Join(t.TempDir(), "readme.pdf")
	env, _, stderr, fake := testEnv()

	code := runMain([]string{
		"readmeview", "export", "-o", out, "--paper", "a4", "--page-numbers", "-q", dir,
	}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("pdf not written: %v", err)
	}
	if string(data) != "%PDF-fake" {
		t.Errorf("pdf = %q", data)
	}
	if !strings.Contains(fake.page, `<h1 id="title">Title</h1>`) {
		t.Error("exporter did not receive the rendered page")
	}
	if fake.opts.Paper != "a4" || !fake.opts.PageNumbers || fake.opts.Margin != 0.5 {
		t.Errorf("opts = %+v", fake.opts)
	}
	if !fake.closed {
		t.Error("exporter was not closed")
	}
}

func TestRunMain_ExportErrors(t *testing.T) {
	t.Parallel()

	dir := sourceDir(t, map[string]string{"README.md": testReadme})

	t.Run("browser failure", func(t *testing.T) {
		t.Parallel()

		env, _, stderr, fake := testEnv()
		fake.err = export.ErrBrowserConnect
		code := runMain([]string{"readmeview", "export", "-o", "-", dir}, env)
		if code != ExitBrowser {
			t.Errorf("exit code = %d, want %d", code, ExitBrowser)
		}
		if !strings.Contains(stderr.String(), "hint:") && os.Getenv("ROD_BROWSER_BIN") == "" {
			t.Errorf("expected browser hint, got %q", stderr)
		}
	})

	t.Run("invalid margin", func(t *testing.T) {
		t.Parallel()

		env, _, _, fake := testEnv()
		code := runMain([]string{"readmeview", "export", "--margin", "9", dir}, env)
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if fake.page != "" {
			t.Error("exporter should not run with invalid options")
		}
	})
}
