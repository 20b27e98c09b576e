package chunker

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockText
)

// boilerplateTags are dropped together with their subtrees
var boilerplateTags = map[atom.Atom]bool{
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// boilerplateClasses mark wiki navigation and metadata boxes
var boilerplateClasses = []string{"infobox", "navbox", "metadata"}

// parseDocument parses HTML and strips boilerplate subtrees
func parseDocument(content []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	removeBoilerplate(doc)
	return doc, nil
}

func isBoilerplate(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if boilerplateTags[n.DataAtom] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			for _, b := range boilerplateClasses {
				if class == b {
					return true
				}
			}
		}
	}
	return false
}

func removeBoilerplate(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if isBoilerplate(child) {
			n.RemoveChild(child)
		} else {
			removeBoilerplate(child)
		}
		child = next
	}
}

// walkBlocks visits h2/h3 headings and p/li blocks in document order. Blocks
// are not descended into, so nested lists contribute their text once. fn
// returns false to stop the walk.
func walkBlocks(n *html.Node, fn func(kind blockKind, text string) bool) bool {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H2, atom.H3:
			return fn(blockHeading, nodeText(n))
		case atom.P, atom.Li:
			text := nodeText(n)
			if text == "" {
				return true
			}
			return fn(blockText, text)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !walkBlocks(child, fn) {
			return false
		}
	}
	return true
}

// nodeText joins the trimmed text nodes under n with single spaces
func nodeText(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// findFirst returns the first element with the given tag in document order
func findFirst(n *html.Node, tag atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// PlainText returns the readable body text of a page: the p/li and heading
// text left after boilerplate removal, one block per line. It feeds the
// archive's full-text index.
func PlainText(mimetype string, content []byte) string {
	if !strings.Contains(strings.ToLower(mimetype), "html") {
		return string(content)
	}
	doc, err := parseDocument(content)
	if err != nil {
		return ""
	}
	var b strings.Builder
	walkBlocks(doc, func(_ blockKind, text string) bool {
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// DocumentTitle returns the page's <title>, falling back to its first h1
func DocumentTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	if n := findFirst(doc, atom.Title); n != nil {
		if t := nodeText(n); t != "" {
			return t
		}
	}
	if n := findFirst(doc, atom.H1); n != nil {
		return nodeText(n)
	}
	return ""
}
