package feed

import (
	"github.com/lysyi3m/rss-sieve/app/xmlparser"
)

const (
	atomNS       = "http://www.w3.org/2005/Atom"
	contentNS    = "http://purl.org/rss/1.0/modules/content/"
	dcNS         = "http://purl.org/dc/elements/1.1/"
	feedburnerNS = "http://rssnamespace.org/feedburner/ext/1.0"
	xmlNS        = "http://www.w3.org/XML/1998/namespace"
)

// Adapter extracts fields from one wire format. Hooks return zero values
// when a field is absent; the Parser applies fallbacks, sanitization and
// identity on top.
type Adapter interface {
	Items(root *xmlparser.Node) []*xmlparser.Node

	FeedURL(root *xmlparser.Node) string
	FeedTitle(root *xmlparser.Node) string
	FeedLanguage(root *xmlparser.Node, raw []byte) string
	FeedID(root *xmlparser.Node) string
	FeedDate(root *xmlparser.Node) int64
	FeedAuthor(root *xmlparser.Node) string

	ItemURL(entry *xmlparser.Node) string
	ItemTitle(entry *xmlparser.Node) string
	ItemDate(entry *xmlparser.Node) int64
	ItemAuthor(entry *xmlparser.Node) string
	ItemContent(entry *xmlparser.Node) string
	ItemEnclosure(entry *xmlparser.Node) (url, mimeType string)
	ItemLanguage(entry *xmlparser.Node, feedLanguage string) string
	// ItemPermalink returns the entry's native identifier when it differs
	// from itemURL, else itemURL.
	ItemPermalink(entry *xmlparser.Node, itemURL string) string
}

func nativePermalink(id, itemURL string) string {
	if id != "" && id != itemURL {
		return id
	}
	return itemURL
}

// markupOrText returns the serialized children of n when it holds elements,
// else its character data.
func markupOrText(n *xmlparser.Node) string {
	if n.HasElementChildren() {
		return n.InnerXML()
	}
	return n.Text()
}
