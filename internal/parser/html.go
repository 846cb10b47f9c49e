package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/puzzlegest/internal/segment"
	"golang.org/x/net/html"
)

// pdftohtml names its page containers page1, page1-div, ...
var pageIDRe = regexp.MustCompile(`^page\d+(-div)?$`)

// HTMLParser handles HTML files, typically pdftohtml output. Each page
// container becomes one page; without any, the body is a single page.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]segment.PageText, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var containers []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isPageContainer(n) {
			containers = append(containers, n)
			return // Nested containers belong to this page.
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(containers) == 0 {
		t := textContent(root)
		if t == "" {
			return nil, nil
		}
		return numbered([]string{t}), nil
	}

	texts := make([]string, len(containers))
	for i, c := range containers {
		texts[i] = textContent(c)
	}
	return numbered(texts), nil
}

func isPageContainer(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "id":
			if pageIDRe.MatchString(a.Val) {
				return true
			}
		case "class":
			for _, cls := range strings.Fields(a.Val) {
				if cls == "page" {
					return true
				}
			}
		}
	}
	return false
}

// textContent joins the text of n, putting block-level breaks on new lines.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				buf.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			buf.WriteByte('\n')
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote":
		return true
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
