package pipeline

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
)

// MaxOutlineLevel is the deepest heading level included in the outline.
const MaxOutlineLevel = 3

// EmptyOutlineMessage is shown in place of the outline when the document has no headings.
const EmptyOutlineMessage = "No headings found in the document."

// Heading is one outline-qualifying heading of the rendered document.
type Heading struct {
	Level int    // 1-3
	Text  string // trimmed text content
	ID    string // anchor id, unique within the pass
}

// TocEntry is a node of the outline tree.
type TocEntry struct {
	Heading  Heading
	Children []TocEntry
}

// Outline is the ordered heading list and the tree built from it.
type Outline struct {
	Headings []Heading
	Entries  []TocEntry
}

// Empty reports whether the document had no outline-qualifying headings.
func (o Outline) Empty() bool {
	return len(o.Headings) == 0
}

// OutlineBuilder defines the contract for outline extraction.
type OutlineBuilder interface {
	BuildOutline(ctx context.Context, doc *Document) (Outline, error)
}

// OutlineExtraction implements OutlineBuilder.
type OutlineExtraction struct{}

// NewOutlineExtraction creates a new outline builder.
func NewOutlineExtraction() *OutlineExtraction {
	return &OutlineExtraction{}
}

// BuildOutline assigns ids to the document's h1-h3 elements and returns
// the outline. It writes the final ids back onto the elements.
func (b *OutlineExtraction) BuildOutline(ctx context.Context, doc *Document) (Outline, error) {
	if err := ctx.Err(); err != nil {
		return Outline{}, err
	}
	return BuildOutline(doc), nil
}

// outlineSelector matches the headings that take part in the outline.
var outlineSelector = cascadia.MustCompile("h1, h2, h3")

// nonWordRun matches a maximal run of non-word characters.
var nonWordRun = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// fallbackSlug is used when a heading's text yields an empty slug.
const fallbackSlug = "section"

// BuildOutline extracts the outline from doc. Existing id attributes are
// kept unless another heading in the pass already uses them.
func BuildOutline(doc *Document) Outline {
	nodes := outlineSelector.MatchAll(doc.Root())
	if len(nodes) == 0 {
		return Outline{}
	}

	ids := newIDSet()
	headings := make([]Heading, 0, len(nodes))
	for _, n := range nodes {
		level, _ := strconv.Atoi(strings.TrimPrefix(n.Data, "h"))
		text := strings.TrimSpace(textContent(n))

		base, ok := getAttr(n, "id")
		if !ok || base == "" {
			base = Slugify(text)
		}
		id := ids.claim(base)
		setAttr(n, "id", id)

		headings = append(headings, Heading{Level: level, Text: text, ID: id})
	}

	return Outline{Headings: headings, Entries: nest(headings)}
}

// Slugify lowercases and trims text and replaces every run of non-word
// characters with a single hyphen.
func Slugify(text string) string {
	slug := nonWordRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// idSet hands out ids unique within one pass.
type idSet map[string]struct{}

func newIDSet() idSet {
	return make(idSet)
}

// claim returns base, or base-2, base-3, ... if base is taken.
func (s idSet) claim(base string) string {
	id := base
	for n := 2; ; n++ {
		if _, taken := s[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(n)
	}
	s[id] = struct{}{}
	return id
}

// nest builds the tree: an entry's children are the following headings of
// strictly greater level, up to the next heading of equal or lesser level.
func nest(headings []Heading) []TocEntry {
	var entries []TocEntry
	for i := 0; i < len(headings); {
		j := i + 1
		for j < len(headings) && headings[j].Level > headings[i].Level {
			j++
		}
		entries = append(entries, TocEntry{
			Heading:  headings[i],
			Children: nest(headings[i+1 : j]),
		})
		i = j
	}
	return entries
}

// RenderOutline creates nested list markup linking to each heading.
// An empty outline renders EmptyOutlineMessage.
func RenderOutline(o Outline) string {
	if o.Empty() {
		return `<p class="toc-empty">` + html.EscapeString(EmptyOutlineMessage) + `</p>`
	}

	var buf strings.Builder
	writeEntries(&buf, o.Entries)
	return buf.String()
}

func writeEntries(buf *strings.Builder, entries []TocEntry) {
	buf.WriteString(`<ul class="toc-list">`)
	for _, e := range entries {
		buf.WriteString(`<li class="toc-level-`)
		buf.WriteString(strconv.Itoa(e.Heading.Level))
		buf.WriteString(`"><a href="#`)
		buf.WriteString(html.EscapeString(e.Heading.ID))
		buf.WriteString(`">`)
		buf.WriteString(html.EscapeString(e.Heading.Text))
		buf.WriteString(`</a>`)
		if len(e.Children) > 0 {
			writeEntries(buf, e.Children)
		}
		buf.WriteString(`</li>`)
	}
	buf.WriteString(`</ul>`)
}
