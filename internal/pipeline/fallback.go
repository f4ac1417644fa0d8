package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var (
	// blankLineRun splits blocks on one or more whitespace-only lines.
	blankLineRun = regexp.MustCompile(`\n\s*\n`)

	// headingBlockPattern decides whether a block is handled line by line.
	headingBlockPattern = regexp.MustCompile(`^[ \t]*#{1,6}[ \t]`)

	// headingLinePattern matches a single ATX heading line.
	// Captures: 1=marker, 2=text
	headingLinePattern = regexp.MustCompile(`^[ \t]*(#{1,6})[ \t]+(.*)$`)
)

// textEscaper escapes the five HTML-significant characters.
var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeText escapes raw text for HTML output. Escaping already escaped
// text escapes it again, so raw input must go through here exactly once.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// FallbackConverter is the always-available, rule-based converter.
// It only knows ATX headings and paragraphs; lists, emphasis, code and
// links are emitted as escaped text.
type FallbackConverter struct{}

// Name implements Converter.
func (c *FallbackConverter) Name() string { return ConverterFallback }

// Convert implements Converter. It never returns an error.
func (c *FallbackConverter) Convert(_ context.Context, markdown string) (string, error) {
	return ConvertFallback(markdown), nil
}

// ConvertFallback converts markdown to HTML using headings and paragraphs only.
func ConvertFallback(markdown string) string {
	markdown = normalizeLineEndings(markdown)

	var buf strings.Builder
	for _, block := range blankLineRun.Split(markdown, -1) {
		block = strings.Trim(block, "\n")
		// Blank blocks produce nothing, never an empty <p></p>.
		if strings.TrimSpace(block) == "" {
			continue
		}

		if !headingBlockPattern.MatchString(block) {
			buf.WriteString("<p>")
			buf.WriteString(strings.ReplaceAll(EscapeText(block), "\n", "<br>"))
			buf.WriteString("</p>")
			continue
		}

		for _, line := range strings.Split(block, "\n") {
			writeHeadingBlockLine(&buf, line)
		}
	}
	return buf.String()
}

// writeHeadingBlockLine writes one line of a heading block as a heading
// or, if it isn't one, as its own paragraph.
func writeHeadingBlockLine(buf *strings.Builder, line string) {
	m := headingLinePattern.FindStringSubmatch(line)
	if m == nil {
		buf.WriteString("<p>")
		buf.WriteString(EscapeText(line))
		buf.WriteString("</p>")
		return
	}

	level := strconv.Itoa(len(m[1]))
	buf.WriteString("<h" + level + ">")
	buf.WriteString(EscapeText(m[2]))
	buf.WriteString("</h" + level + ">")
}
