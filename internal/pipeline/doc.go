// Package pipeline implements the Markdown-to-HTML stages of a render pass.
//
// This package handles preprocessing, conversion, and the DOM stages that
// run on the converted fragment:
//   - Markdown preprocessing (line ending normalization)
//   - Markdown to HTML conversion, either delegated to a full-featured
//     MarkdownRenderer (goldmark) or done by the rule-based fallback
//   - Outline extraction with unique heading ids
//   - External link marking
//
// Document location and page assembly are handled elsewhere. This package
// only ever sees markdown text in and an HTML fragment out, which keeps the
// stages deterministic and easy to test in isolation.
package pipeline
