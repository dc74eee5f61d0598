package xmlparser

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LoadHTML parses a markup fragment the way a browser would, recovering from
// any malformation. It never fails.
func LoadHTML(data []byte) *html.Node {
	doc, err := html.ParseWithOptions(bytes.NewReader(data), html.ParseOptionEnableScripting(false))
	if err != nil {
		return &html.Node{Type: html.DocumentNode}
	}
	return doc
}

// Body returns the body element of a parsed HTML document, or nil.
func Body(doc *html.Node) *html.Node {
	if doc == nil {
		return nil
	}
	if doc.Type == html.ElementNode && doc.DataAtom == atom.Body {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if body := Body(c); body != nil {
			return body
		}
	}
	return nil
}
