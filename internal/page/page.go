// Package page assembles the host page around a rendered document.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/alnah/go-readmeview/internal/assets"
	"github.com/alnah/go-readmeview/internal/highlight"
)

// NotFoundMessage is shown when no candidate location was reachable.
const NotFoundMessage = "README.md not found on the server."

// DefaultSubtitle is shown under the title.
const DefaultSubtitle = "Generated automatically from the README"

// ErrInvalidTheme is returned for a theme other than dark or light.
var ErrInvalidTheme = errors.New("invalid theme")

// ErrPageTemplate is returned when the page template cannot be used.
var ErrPageTemplate = errors.New("page template error")

// Theme is the presentation theme. It is chosen by the caller and passed
// in explicitly; rendering never changes it.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme maps a name to a Theme. Empty means dark.
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ThemeDark):
		return ThemeDark, nil
	case string(ThemeLight):
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// Other returns the opposite theme.
func (t Theme) Other() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// HighlightStyle is the chroma style matching the theme.
func (t Theme) HighlightStyle() string {
	if t == ThemeLight {
		return "github"
	}
	return highlight.DefaultStyle
}

// Content is the rendered document a page wraps.
type Content struct {
	Found    bool
	HTML     string // trusted output of the render pass
	TocHTML  string
	Location string // link to the markdown source; empty hides it
}

// Options controls the page chrome.
type Options struct {
	Title          string
	Subtitle       string
	TocTitle       string
	Theme          Theme
	HighlightStyle string // empty = Theme.HighlightStyle()
	ThemeLink      string // link that switches theme; empty hides it
}

// pageData feeds the page template.
type pageData struct {
	Title           string
	Subtitle        string
	Theme           Theme
	ThemeCSS        template.CSS
	HighlightCSS    template.CSS
	ThemeLink       string
	ThemeLinkLabel  string
	Found           bool
	RawLink         template.URL
	TocTitle        string
	Toc             template.HTML
	Content         template.HTML
	NotFoundMessage string
}

// Builder renders host pages. It is safe for concurrent use.
type Builder struct {
	loader assets.AssetLoader
	tmpl   *template.Template

	mu  sync.Mutex
	css map[string]string // keyed by "theme:<name>" or "chroma:<style>"
}

// NewBuilder parses the page template from loader.
func NewBuilder(loader assets.AssetLoader) (*Builder, error) {
	src, err := loader.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}
	tmpl, err := template.New(assets.PageTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}
	return &Builder{loader: loader, tmpl: tmpl, css: make(map[string]string)}, nil
}

// Write renders the page for content to w.
func (b *Builder) Write(w io.Writer, content Content, opts Options) error {
	theme := opts.Theme
	if theme == "" {
		theme = ThemeDark
	}

	themeCSS, err := b.cached("theme:"+string(theme), func() (string, error) {
		return b.loader.LoadStyle(string(theme))
	})
	if err != nil {
		return err
	}

	style := opts.HighlightStyle
	if style == "" {
		style = theme.HighlightStyle()
	}
	chromaCSS, err := b.cached("chroma:"+style, func() (string, error) {
		return highlight.Stylesheet(style)
	})
	if err != nil {
		return err
	}

	subtitle := opts.Subtitle
	if subtitle == "" {
		subtitle = DefaultSubtitle
	}

	data := pageData{
		Title:           opts.Title,
		Subtitle:        subtitle,
		Theme:           theme,
		ThemeCSS:        template.CSS(themeCSS),  // #nosec G203 -- bundled or operator-provided stylesheet
		HighlightCSS:    template.CSS(chromaCSS), // #nosec G203 -- generated by chroma
		ThemeLink:       opts.ThemeLink,
		ThemeLinkLabel:  "Switch to " + string(theme.Other()),
		Found:           content.Found,
		RawLink:         template.URL(content.Location), // #nosec G203 -- "/raw" or a file:// or http(s) URL built by the caller
		TocTitle:        opts.TocTitle,
		Toc:             template.HTML(content.TocHTML), // #nosec G203 -- built from escaped heading text
		Content:         template.HTML(content.HTML),    // #nosec G203 -- output of the render pass
		NotFoundMessage: NotFoundMessage,
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Render returns the page as a string.
func (b *Builder) Render(content Content, opts Options) (string, error) {
	var buf strings.Builder
	if err := b.Write(&buf, content, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (b *Builder) cached(key string, load func() (string, error)) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if css, ok := b.css[key]; ok {
		return css, nil
	}
	css, err := load()
	if err != nil {
		return "", err
	}
	b.css[key] = css
	return css, nil
}
