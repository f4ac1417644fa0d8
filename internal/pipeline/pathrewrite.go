package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// ResolveRelativeURLs rewrites relative image and link targets so the
// fragment still works once it is detached from its source location, for
// example when the page is written to a temp file for PDF export.
// If base is empty, the document is unchanged.
//
// base is either an http(s) URL, against which every scheme-less target is
// resolved, or a local directory, under which relative paths become
// file:// URLs.
//
// Rewrites:
//   - img[src]
//   - a[href] (not fragments)
//
// Does NOT rewrite:
//   - srcset attributes (complex format, out of scope)
//   - CSS url() references (out of scope)
//   - URLs with a scheme (already resolved)
func ResolveRelativeURLs(doc *Document, base string) error {
	if base == "" {
		return nil
	}

	if isHTTPURL(base) {
		baseURL, err := url.Parse(base)
		if err != nil {
			return err
		}
		rewriteNode(doc.Root(), func(val string) (string, bool) {
			ref, err := url.Parse(val)
			if err != nil || ref.Scheme != "" {
				return "", false
			}
			return baseURL.ResolveReference(ref).String(), true
		})
		return nil
	}

	absDir, err := filepath.Abs(base)
	if err != nil {
		return err
	}
	rewriteNode(doc.Root(), func(val string) (string, bool) {
		if !isRelativePath(val) {
			return "", false
		}
		absPath := filepath.Join(absDir, val)
		// Targets escaping the source directory keep their original value.
		if !isPathUnderDir(absPath, absDir) {
			return "", false
		}
		return pathToFileURL(absPath), true
	})
	return nil
}

// rewriteNode traverses the DOM and rewrites relative targets with resolve.
func rewriteNode(n *html.Node, resolve func(string) (string, bool)) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			rewriteAttr(n, "src", resolve)
		case "a":
			rewriteAttr(n, "href", resolve)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, resolve)
	}
}

// rewriteAttr rewrites a single attribute unless it is empty or a fragment.
func rewriteAttr(n *html.Node, attrName string, resolve func(string) (string, bool)) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || attr.Val == "" || strings.HasPrefix(attr.Val, "#") {
			continue
		}
		if val, ok := resolve(attr.Val); ok {
			n.Attr[i].Val = val
		}
	}
}

// isHTTPURL reports whether s is an http or https URL.
func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// isRelativePath reports whether path is a document-relative reference.
// Fragments, rooted paths and anything carrying a scheme are left alone.
func isRelativePath(path string) bool {
	switch {
	case path == "", path[0] == '#', path[0] == '/', path[0] == '\\':
		return false
	case filepath.IsAbs(path):
		return false
	}
	u, err := url.Parse(path)
	return err != nil || u.Scheme == ""
}

// isPathUnderDir reports whether absPath stays inside dir once cleaned.
func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(absPath))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
