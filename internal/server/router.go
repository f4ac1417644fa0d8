// Package server hosts the rendered README page over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	readmeview "github.com/alnah/go-readmeview"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/page"
)

const (
	healthPath = "/healthz"
	rawPath    = "/raw"
	apiPath    = "/api/render"
)

// Renderer runs one render pass per request.
type Renderer interface {
	Render(ctx context.Context) (*readmeview.Result, error)
}

// PageBuilder wraps a render result in the host page.
type PageBuilder interface {
	Render(content page.Content, opts page.Options) (string, error)
}

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Renderer Renderer
	Pages    PageBuilder
	Page     page.Options // Theme is the default when ?theme= is absent
	Static   http.Handler // optional, serves the source's other files
	Logger   *slog.Logger
}

// NewRouter creates the HTTP router:
//
//	GET /            host page, ?theme=dark|light
//	GET /raw         located markdown, unchanged
//	GET /api/render  render result as JSON
//	GET /healthz     liveness
//	GET /*           Deps.Static, when set
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	h := &handler{deps: deps}
	r.Get("/", h.page)
	r.Get(rawPath, h.raw)
	r.Get(apiPath, h.api)
	r.Get(healthPath, h.health)
	if deps.Static != nil {
		r.Get("/*", deps.Static.ServeHTTP)
	}

	return r
}

type handler struct {
	deps *Deps
}

// page serves the host page. A missing document is a 404 page showing the
// not-found message.
func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logutil.FromContext(ctx)

	opts := h.deps.Page
	theme := opts.Theme
	if q := r.URL.Query().Get("theme"); q != "" {
		parsed, err := page.ParseTheme(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		theme = parsed
	}
	if theme == "" {
		theme = page.ThemeDark
	}
	if opts.Theme != theme {
		// A configured highlight style belongs to the configured theme.
		opts.HighlightStyle = ""
	}
	opts.Theme = theme
	opts.ThemeLink = "/?theme=" + string(theme.Other())

	res, ok := h.render(w, r)
	if !ok {
		return
	}

	content := page.Content{Found: res.Found()}
	status := http.StatusOK
	if res.Found() {
		content.HTML = res.HTML
		content.TocHTML = res.TocHTML
		content.Location = rawPath
	} else {
		status = http.StatusNotFound
	}

	body, err := h.deps.Pages.Render(content, opts)
	if err != nil {
		logger.ErrorContext(ctx, "page rendering failed", "error", err)
		http.Error(w, "page rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// raw serves the located markdown unchanged.
func (h *handler) raw(w http.ResponseWriter, r *http.Request) {
	res, ok := h.render(w, r)
	if !ok {
		return
	}
	if !res.Found() {
		http.Error(w, page.NotFoundMessage, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.SourceText))
}

// apiResponse is the JSON body of /api/render.
type apiResponse struct {
	*readmeview.Result
	Tried []string `json:"tried,omitempty"`
}

func (h *handler) api(w http.ResponseWriter, r *http.Request) {
	res, ok := h.render(w, r)
	if !ok {
		return
	}

	status := http.StatusOK
	body := apiResponse{Result: res}
	if !res.Found() {
		status = http.StatusNotFound
		body.Tried = res.TriedLocations()
	}
	writeJSON(r.Context(), w, status, body)
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// render runs a pass and writes an error response when it did not finish.
// The request's Host is the page host, so links back to this server are
// not treated as external.
func (h *handler) render(w http.ResponseWriter, r *http.Request) (*readmeview.Result, bool) {
	ctx := r.Context()
	res, err := h.deps.Renderer.Render(readmeview.ContextWithPageHost(ctx, r.Host))
	if err == nil {
		return res, true
	}

	logger := logutil.FromContext(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		logger.WarnContext(ctx, "render timed out", "error", err)
		http.Error(w, "render timed out", http.StatusGatewayTimeout)
		return nil, false
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads the response.
		logger.DebugContext(ctx, "render cancelled")
		return nil, false
	}
	logger.ErrorContext(ctx, "render failed", "error", err)
	http.Error(w, "render failed", http.StatusInternalServerError)
	return nil, false
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logutil.FromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
