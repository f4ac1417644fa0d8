package pipeline

import (
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// linkSelector matches hyperlinks with a target.
var linkSelector = cascadia.MustCompile("a[href]")

// MarkExternalLinks makes every link whose host differs from pageHost open
// in a new browsing context without an opener reference. Relative links,
// fragment links and schemes without a host (mailto:) are left alone.
// Applying it twice has no additional effect.
func MarkExternalLinks(doc *Document, pageHost string) {
	page := hostname(pageHost)
	for _, a := range linkSelector.MatchAll(doc.Root()) {
		href, _ := getAttr(a, "href")
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			continue
		}
		if strings.EqualFold(u.Hostname(), page) {
			continue
		}
		setAttr(a, "target", "_blank")
		addRelToken(a, "noopener")
	}
}

// hostname strips an optional scheme and port from host.
func hostname(host string) string {
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			return u.Hostname()
		}
	}
	u := url.URL{Host: host}
	return u.Hostname()
}

// addRelToken adds token to the rel attribute unless already present.
func addRelToken(n *html.Node, token string) {
	rel, _ := getAttr(n, "rel")
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return
		}
	}
	if rel = strings.TrimSpace(rel); rel != "" {
		rel += " "
	}
	setAttr(n, "rel", rel+token)
}
