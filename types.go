package readmeview

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/alnah/go-readmeview/internal/locate"
	"github.com/alnah/go-readmeview/internal/pipeline"
)

// MaxDocumentSize bounds how much of a fetched document is read.
const MaxDocumentSize = locate.MaxDocumentSize

// Converter names reported in Result.Converter.
const (
	ConverterFull     = pipeline.ConverterFull
	ConverterFallback = pipeline.ConverterFallback
)

// SourceDocument is a fetched document and the location it came from.
type SourceDocument = locate.SourceDocument

// Attempt records the outcome of fetching one candidate location.
type Attempt = locate.Attempt

// Fetcher retrieves the document at a location.
type Fetcher = locate.Fetcher

// FetchResponse is what a Fetcher returns for a reachable source.
type FetchResponse = locate.Response

// HTTPFetcher fetches locations relative to a base URL.
type HTTPFetcher = locate.HTTPFetcher

// FSFetcher fetches locations from a file system.
type FSFetcher = locate.FSFetcher

// NewHTTPFetcher returns a Fetcher resolving locations against baseURL.
// A nil client uses a client with a default timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	return locate.NewHTTPFetcher(baseURL, client)
}

// NewFSFetcher returns a Fetcher reading from fsys. Leading slashes are
// ignored, so "/README.md" names the file at the root of fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return locate.NewFSFetcher(fsys)
}

// FallbackPolicy derives one extra location from the page path once every
// candidate has failed.
type FallbackPolicy = locate.FallbackPolicy

// ConvertOptions are the flags passed to a MarkdownRenderer.
type ConvertOptions = pipeline.ConvertOptions

// MarkdownRenderer is the full-featured markdown capability.
type MarkdownRenderer = pipeline.MarkdownRenderer

// DefaultCandidates returns the locations tried when none are configured.
func DefaultCandidates() []string {
	return locate.DefaultCandidates()
}

// JoinFallback appends name to the page path, dropping trailing slashes.
func JoinFallback(name string) FallbackPolicy {
	return locate.JoinFallback(name)
}

// NoFallback disables the extra attempt.
var NoFallback FallbackPolicy = locate.NoFallback

// NewGoldmarkRenderer returns the goldmark-backed MarkdownRenderer.
// A non-empty highlightStyle highlights fenced code at conversion time.
func NewGoldmarkRenderer(highlightStyle string) MarkdownRenderer {
	if highlightStyle == "" {
		return pipeline.NewGoldmarkRenderer()
	}
	return pipeline.NewGoldmarkRenderer(pipeline.WithCodeHighlighting(highlightStyle))
}

// ---------------------------------------------------------------------------
// Outline
// ---------------------------------------------------------------------------

// Heading is one h1-h3 heading of the rendered document.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// TocEntry is a node of the outline tree. Children are the following
// headings of strictly greater level.
type TocEntry struct {
	Heading
	Children []TocEntry `json:"children,omitempty"`
}

// Outline is the heading list in document order and the tree built from it.
type Outline struct {
	Headings []Heading  `json:"headings"`
	Entries  []TocEntry `json:"entries"`
}

// Empty reports whether the document had no h1-h3 headings.
func (o Outline) Empty() bool {
	return len(o.Headings) == 0
}

// MarshalJSON encodes missing headings and entries as empty arrays.
func (o Outline) MarshalJSON() ([]byte, error) {
	type plain Outline
	out := plain(o)
	if out.Headings == nil {
		out.Headings = []Heading{}
	}
	if out.Entries == nil {
		out.Entries = []TocEntry{}
	}
	return json.Marshal(out)
}

func outlineFromPipeline(o pipeline.Outline) Outline {
	out := Outline{
		Headings: make([]Heading, 0, len(o.Headings)),
		Entries:  entriesFromPipeline(o.Entries),
	}
	for _, h := range o.Headings {
		out.Headings = append(out.Headings, Heading(h))
	}
	return out
}

func entriesFromPipeline(entries []pipeline.TocEntry) []TocEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]TocEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, TocEntry{
			Heading:  Heading(e.Heading),
			Children: entriesFromPipeline(e.Children),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Status is the terminal outcome of a render pass.
type Status int

const (
	StatusDone Status = iota
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the output of one render pass. A NotFound result carries no
// HTML, no outline and an empty SourceLocation.
type Result struct {
	Status         Status    `json:"status"`
	HTML           string    `json:"html,omitempty"`
	Outline        Outline   `json:"outline"`
	TocHTML        string    `json:"tocHtml,omitempty"`
	SourceLocation string    `json:"sourceLocation,omitempty"`
	Converter      string    `json:"converter,omitempty"`
	PassID         string    `json:"passId"`
	SourceText     string    `json:"-"` // raw markdown as fetched
	Attempts       []Attempt `json:"-"`
}

// Found reports whether a document was rendered.
func (r *Result) Found() bool {
	return r.Status == StatusDone
}

// Err returns ErrNotFound for a NotFound result and nil otherwise.
func (r *Result) Err() error {
	if r.Status == StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// TriedLocations lists the locations attempted, in order.
func (r *Result) TriedLocations() []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.Location)
	}
	return out
}
