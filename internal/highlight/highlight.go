// Package highlight provides the syntax highlighting capability applied to
// code blocks after the rendered document is attached to its page.
package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// ErrUnknownStyle is returned for a style name chroma doesn't know.
var ErrUnknownStyle = errors.New("unknown highlight style")

// codeSelector matches code blocks not yet highlighted at conversion time.
var codeSelector = cascadia.MustCompile("pre:not(.chroma) > code")

// languagePrefixes are the class prefixes that name a code block's language.
var languagePrefixes = []string{"language-", "lang-"}

// Chroma highlights code blocks with chroma, emitting CSS classes.
type Chroma struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
	guess     bool
}

// Option configures a Chroma highlighter.
type Option func(*Chroma)

// WithLanguageGuess lets blocks without a language class be analysed.
// Without it they are left as plain text.
func WithLanguageGuess() Option {
	return func(c *Chroma) {
		c.guess = true
	}
}

// New creates a Chroma highlighter for the named style.
func New(styleName string, opts ...Option) (*Chroma, error) {
	style, err := lookupStyle(styleName)
	if err != nil {
		return nil, err
	}

	c := &Chroma{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// lookupStyle resolves name, treating empty as DefaultStyle.
func lookupStyle(name string) (*chroma.Style, error) {
	if name == "" {
		name = DefaultStyle
	}
	if _, ok := styles.Registry[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, name)
	}
	return styles.Get(name), nil
}

// StyleNames lists the registered style names, sorted.
func StyleNames() []string {
	return styles.Names()
}

// WriteCSS writes the stylesheet matching the highlighter's classes.
func (c *Chroma) WriteCSS(w io.Writer) error {
	return c.formatter.WriteCSS(w, c.style)
}

// Stylesheet returns the CSS for the named style.
func Stylesheet(styleName string) (string, error) {
	c, err := New(styleName)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := c.WriteCSS(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Highlight replaces every eligible <pre><code> block under root with
// chroma markup. Blocks whose language is unknown are left untouched.
func (c *Chroma) Highlight(root *html.Node) {
	for _, code := range codeSelector.MatchAll(root) {
		pre := code.Parent
		lexer := c.lexerFor(code)
		if lexer == nil {
			continue
		}

		replacement, err := c.render(lexer, textOf(code), pre.Parent)
		if err != nil {
			continue
		}
		for _, n := range replacement {
			pre.Parent.InsertBefore(n, pre)
		}
		pre.Parent.RemoveChild(pre)
	}
}

// lexerFor picks the lexer from the block's class, or by analysis if enabled.
func (c *Chroma) lexerFor(code *html.Node) chroma.Lexer {
	for _, attr := range code.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			for _, prefix := range languagePrefixes {
				if name, ok := strings.CutPrefix(class, prefix); ok {
					if l := lexers.Get(name); l != nil {
						return chroma.Coalesce(l)
					}
				}
			}
		}
	}
	if c.guess {
		if l := lexers.Analyse(textOf(code)); l != nil {
			return chroma.Coalesce(l)
		}
	}
	return nil
}

// render formats source and parses the result in the context of parent.
func (c *Chroma) render(lexer chroma.Lexer, source string, parent *html.Node) ([]*html.Node, error) {
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return nil, err
	}

	context := parent
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	}
	return html.ParseFragment(&buf, context)
}

// textOf returns the concatenated text of n's descendants.
func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
