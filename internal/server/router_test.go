package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	readmeview "github.com/alnah/go-readmeview"
	"github.com/alnah/go-readmeview/internal/assets"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/page"
)

type mockRenderer struct {
	res   *readmeview.Result
	err   error
	ctx   context.Context
	calls int
}

func (m *mockRenderer) Render(ctx context.Context) (*readmeview.Result, error) {
	m.calls++
	m.ctx = ctx
	return m.res, m.err
}

func found() *readmeview.Result {
	return &readmeview.Result{
		Status:         readmeview.StatusDone,
		HTML:           `<h1 id="hello">Hello</h1><p>world</p>`,
		TocHTML:        `<ul class="toc-list"><li class="toc-level-1"><a href="#hello">Hello</a></li></ul>`,
		SourceLocation: "/README.md",
		SourceText:     "# Hello\n\nworld",
		Converter:      readmeview.ConverterFallback,
		PassID:         "pass-1",
		Outline: readmeview.Outline{
			Headings: []readmeview.Heading{{Level: 1, Text: "Hello", ID: "hello"}},
			Entries:  []readmeview.TocEntry{{Heading: readmeview.Heading{Level: 1, Text: "Hello", ID: "hello"}}},
		},
	}
}

func notFound() *readmeview.Result {
	return &readmeview.Result{
		Status: readmeview.StatusNotFound,
		PassID: "pass-2",
		Attempts: []readmeview.Attempt{
			{Location: "/README.md", StatusCode: http.StatusNotFound},
			{Location: "/README.md", StatusCode: http.StatusNotFound},
		},
	}
}

func newTestRouter(t *testing.T, r Renderer) http.Handler {
	t.Helper()
	builder, err := page.NewBuilder(assets.NewEmbeddedLoader())
	require.NoError(t, err)
	return NewRouter(&Deps{
		Renderer: r,
		Pages:    builder,
		Page:     page.Options{Title: "Docs", TocTitle: "Contents", Theme: page.ThemeDark},
		Logger:   logutil.Discard(),
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Page
// ---------------------------------------------------------------------------

func TestRouter_Page(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: found()})
	w := get(t, h, "/")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, body, `href="#hello"`)
	assert.Contains(t, body, `data-theme="dark"`)
	assert.Contains(t, body, `id="raw-link" href="/raw"`)
	assert.Contains(t, body, `href="/?theme=light"`)
}

func TestRouter_PageTheme(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: found()})

	w := get(t, h, "/?theme=light")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-theme="light"`)
	assert.Contains(t, w.Body.String(), `href="/?theme=dark"`)

	w = get(t, h, "/?theme=sepia")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_PageNotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: notFound()})
	w := get(t, h, "/")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, page.NotFoundMessage)
	assert.NotContains(t, body, `id="raw-link"`)
}

// ---------------------------------------------------------------------------
// Raw and API
// ---------------------------------------------------------------------------

func TestRouter_Raw(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: found()})
	w := get(t, h, "/raw")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Hello\n\nworld", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))

	h = newTestRouter(t, &mockRenderer{res: notFound()})
	w = get(t, h, "/raw")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_API(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: found()})
	w := get(t, h, "/api/render")

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Status         string `json:"status"`
		HTML           string `json:"html"`
		SourceLocation string `json:"sourceLocation"`
		Converter      string `json:"converter"`
		PassID         string `json:"passId"`
		Outline        struct {
			Entries []struct {
				Text string `json:"text"`
				ID   string `json:"id"`
			} `json:"entries"`
		} `json:"outline"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "done", got.Status)
	assert.Equal(t, "/README.md", got.SourceLocation)
	assert.Equal(t, "fallback", got.Converter)
	assert.Equal(t, "pass-1", got.PassID)
	require.Len(t, got.Outline.Entries, 1)
	assert.Equal(t, "hello", got.Outline.Entries[0].ID)
	assert.NotContains(t, w.Body.String(), "sourceText")
}

func TestRouter_APINotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: notFound()})
	w := get(t, h, "/api/render")

	require.Equal(t, http.StatusNotFound, w.Code)
	var got struct {
		Status string   `json:"status"`
		Tried  []string `json:"tried"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "not_found", got.Status)
	assert.Equal(t, []string{"/README.md", "/README.md"}, got.Tried)
}

func TestRouter_RenderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("parse failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestRouter(t, &mockRenderer{err: tt.err})
			for _, target := range []string{"/", "/raw", "/api/render"} {
				w := get(t, h, target)
				assert.Equal(t, tt.wantStatus, w.Code, target)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	m := &mockRenderer{res: found()}
	h := newTestRouter(t, m)
	w := get(t, h, "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Zero(t, m.calls, "health check must not render")
}

func TestRouter_Static(t *testing.T) {
	t.Parallel()

	builder, err := page.NewBuilder(assets.NewEmbeddedLoader())
	require.NoError(t, err)
	static := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "static:"+r.URL.Path)
	})
	h := NewRouter(&Deps{
		Renderer: &mockRenderer{res: found()},
		Pages:    builder,
		Static:   static,
		Logger:   logutil.Discard(),
	})

	w := get(t, h, "/docs/logo.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "static:/docs/logo.png", w.Body.String())

	w = get(t, h, "/")
	assert.Contains(t, w.Body.String(), "<h1 id=\"hello\">Hello</h1>")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, &mockRenderer{res: found()})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var ctxLogger *slog.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logutil.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequestLogger(base)(next)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	require.NotNil(t, ctxLogger)
	assert.NotSame(t, slog.Default(), ctxLogger)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), `"status":418`)
}

func TestRequestLogger_ReusesIncomingID(t *testing.T) {
	t.Parallel()

	h := RequestLogger(logutil.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRouter_RendererSeesRequestLogger(t *testing.T) {
	t.Parallel()

	m := &mockRenderer{res: found()}
	h := newTestRouter(t, m)
	get(t, h, "/api/render")

	require.NotNil(t, m.ctx)
	assert.NotSame(t, slog.Default(), logutil.FromContext(m.ctx))
}

func TestRouter_SameHostLinksStayInPage(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"README.md": {Data: []byte("# T\n\n[self](http://docs.local:8080/guide) [ext](https://example.com/)\n")},
	}
	r := readmeview.NewRenderer(
		readmeview.WithFetcher(readmeview.NewFSFetcher(fsys)),
		readmeview.WithMarkdownRenderer(readmeview.NewGoldmarkRenderer("")),
		readmeview.WithLogger(logutil.Discard()),
	)
	h := newTestRouter(t, r)

	w := get(t, h, "http://docs.local:8080/api/render")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.HTML, `<a href="http://docs.local:8080/guide">self</a>`)
	assert.Contains(t, body.HTML, `<a href="https://example.com/" target="_blank" rel="noopener">ext</a>`)
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := newTestRouter(t, &mockRenderer{res: found()})
	srv := New(ln.Addr().String(), h, time.Second, logutil.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestServer_RunListenError(t *testing.T) {
	t.Parallel()

	srv := New("256.0.0.1:http-nope", http.NotFoundHandler(), time.Second, logutil.Discard())
	err := srv.Run(context.Background())
	assert.ErrorIs(t, err, ErrListen)
}
