package document

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Stylesheets returns href values of <link rel="stylesheet"> elements in
// document order.
func Stylesheets(doc *html.Node) []string {
	var refs []string
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Link || !hasToken(attr(n, "rel"), "stylesheet") {
			return
		}
		if href := strings.TrimSpace(attr(n, "href")); href != "" {
			refs = append(refs, href)
		}
	})
	return refs
}

// InlineStyles returns text of <style> elements in document order.
func InlineStyles(doc *html.Node) []string {
	var styles []string
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Style {
			return
		}
		if t := strings.ToLower(strings.TrimSpace(attr(n, "type"))); t != "" && t != "text/css" {
			return
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			styles = append(styles, s)
		}
	})
	return styles
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// hasToken checks space separated list for token, case-insensitively.
func hasToken(list, token string) bool {
	for f := range strings.FieldsSeq(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
