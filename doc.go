// Package readmeview renders a README-style markdown document found at one
// of several candidate locations into HTML with a table of contents.
//
// # Quick Start
//
// Render the README of the current directory:
//
//	r := readmeview.NewRenderer()
//	res, err := r.Render(ctx)
//	if err != nil {
//	    log.Fatal(err) // ctx cancelled
//	}
//	if !res.Found() {
//	    fmt.Println("README.md not found:", res.TriedLocations())
//	    return
//	}
//	fmt.Println(res.HTML)
//
// # Render Pipeline
//
// A render pass goes through these states:
//
//  1. Locating: candidates are fetched one at a time, in order; the first
//     success wins. When all fail, one location derived from the page path
//     by the FallbackPolicy is tried.
//  2. Converting: the markdown is converted by the injected
//     MarkdownRenderer, or by the built-in fallback converter when none is
//     injected or the injected one fails.
//  3. BuildingToc: h1-h3 headings get unique ids and form the Outline.
//  4. Postprocessing: links to other hosts open in a new browsing context
//     and the optional Highlighter runs once.
//
// A pass that finds nothing ends in StatusNotFound. That is a result, not an
// error; Result.Err converts it to ErrNotFound for callers that prefer one.
//
// # Capabilities
//
// Both capabilities are optional and injected at construction:
//
//	r := readmeview.NewRenderer(
//	    readmeview.WithMarkdownRenderer(readmeview.NewGoldmarkRenderer("")),
//	    readmeview.WithHighlighter(chroma),
//	)
//
// # Sources
//
// The default Fetcher reads the current directory. Use WithFetcher with an
// HTTP fetcher to read from a server, and WithCandidates to change the
// locations tried.
package readmeview
