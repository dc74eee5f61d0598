package feed

import (
	"cmp"
	"strings"

	"github.com/lysyi3m/rss-sieve/app/xmlparser"
)

type AtomAdapter struct{}

func (AtomAdapter) Items(root *xmlparser.Node) []*xmlparser.Node {
	return root.ChildrenNamed("entry")
}

func (AtomAdapter) FeedURL(root *xmlparser.Node) string {
	return atomLink(root)
}

func (AtomAdapter) FeedTitle(root *xmlparser.Node) string {
	return NormalizeWhitespace(root.Child("title").Text())
}

func (AtomAdapter) FeedLanguage(root *xmlparser.Node, raw []byte) string {
	return ExtractLanguageTag(raw)
}

func (AtomAdapter) FeedID(root *xmlparser.Node) string {
	return strings.TrimSpace(root.Child("id").Text())
}

func (AtomAdapter) FeedDate(root *xmlparser.Node) int64 {
	return ParseDate(root.Child("updated").Text())
}

func (AtomAdapter) FeedAuthor(root *xmlparser.Node) string {
	return NormalizeWhitespace(root.Child("author").Child("name").Text())
}

func (AtomAdapter) ItemURL(entry *xmlparser.Node) string {
	return atomLink(entry)
}

func (AtomAdapter) ItemTitle(entry *xmlparser.Node) string {
	return NormalizeWhitespace(entry.Child("title").Text())
}

func (AtomAdapter) ItemDate(entry *xmlparser.Node) int64 {
	if d := ParseDate(entry.Child("updated").Text()); d != 0 {
		return d
	}
	return ParseDate(entry.Child("published").Text())
}

func (AtomAdapter) ItemAuthor(entry *xmlparser.Node) string {
	return NormalizeWhitespace(entry.Child("author").Child("name").Text())
}

func (AtomAdapter) ItemContent(entry *xmlparser.Node) string {
	if content := entry.Child("content"); hasContent(content) {
		return markupOrText(content)
	}
	return markupOrText(entry.Child("summary"))
}

func (AtomAdapter) ItemEnclosure(entry *xmlparser.Node) (string, string) {
	for _, link := range entry.ChildrenNamed("link") {
		if link.Attr("rel") == "enclosure" {
			return strings.TrimSpace(link.Attr("href")), strings.TrimSpace(link.Attr("type"))
		}
	}
	return "", ""
}

func (AtomAdapter) ItemLanguage(entry *xmlparser.Node, feedLanguage string) string {
	return cmp.Or(canonicalLanguage(entry.AttrNS(xmlNS, "lang")), feedLanguage)
}

func (AtomAdapter) ItemPermalink(entry *xmlparser.Node, itemURL string) string {
	return nativePermalink(strings.TrimSpace(entry.Child("id").Text()), itemURL)
}

// atomLink prefers an HTML-typed link, then an alternate link, then the first one.
func atomLink(n *xmlparser.Node) string {
	links := n.ChildrenNamed("link")

	for _, link := range links {
		switch link.Attr("type") {
		case "text/html", "application/xhtml+xml":
			return strings.TrimSpace(link.Attr("href"))
		}
	}

	for _, link := range links {
		if rel := link.Attr("rel"); rel == "" || rel == "alternate" {
			return strings.TrimSpace(link.Attr("href"))
		}
	}

	if len(links) > 0 {
		return strings.TrimSpace(links[0].Attr("href"))
	}
	return ""
}

func hasContent(n *xmlparser.Node) bool {
	return n.HasElementChildren() || strings.TrimSpace(n.Text()) != ""
}
