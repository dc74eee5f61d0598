package feed

import (
	"cmp"
	"strings"

	"github.com/lysyi3m/rss-sieve/app/xmlparser"
)

// RSSAdapter handles RSS 0.9x, 2.0 and 1.0 (RDF) documents.
type RSSAdapter struct{}

// Namespaces whose elements count as core RSS elements.
var rssNamespaces = map[string]bool{
	"":                                            true,
	"http://purl.org/rss/1.0/":                    true,
	"http://my.netscape.com/rdf/simple/0.9/":      true,
	"http://backend.userland.com/rss2":            true,
	"http://channel.netscape.com/rdf/simple/0.9/": true,
}

func (RSSAdapter) Items(root *xmlparser.Node) []*xmlparser.Node {
	if items := plainChildren(channel(root), "item"); len(items) > 0 {
		return items
	}
	return plainChildren(root, "item")
}

func (RSSAdapter) FeedURL(root *xmlparser.Node) string {
	return rssLink(channel(root))
}

func (RSSAdapter) FeedTitle(root *xmlparser.Node) string {
	ch := channel(root)
	return NormalizeWhitespace(cmp.Or(plain(ch, "title").Text(), ch.ChildNS(dcNS, "title").Text()))
}

func (RSSAdapter) FeedLanguage(root *xmlparser.Node, raw []byte) string {
	ch := channel(root)
	if lang := cmp.Or(plain(ch, "language").Text(), ch.ChildNS(dcNS, "language").Text()); strings.TrimSpace(lang) != "" {
		return canonicalLanguage(lang)
	}
	return ExtractLanguageTag(raw)
}

func (RSSAdapter) FeedID(root *xmlparser.Node) string {
	return strings.TrimSpace(channel(root).ChildNS(atomNS, "id").Text())
}

func (RSSAdapter) FeedDate(root *xmlparser.Node) int64 {
	ch := channel(root)
	for _, n := range []*xmlparser.Node{plain(ch, "lastBuildDate"), plain(ch, "pubDate"), ch.ChildNS(dcNS, "date")} {
		if d := ParseDate(n.Text()); d != 0 {
			return d
		}
	}
	return 0
}

func (RSSAdapter) FeedAuthor(root *xmlparser.Node) string {
	ch := channel(root)
	return NormalizeWhitespace(cmp.Or(
		plain(ch, "managingEditor").Text(),
		plain(ch, "webMaster").Text(),
		ch.ChildNS(dcNS, "creator").Text(),
	))
}

func (RSSAdapter) ItemURL(entry *xmlparser.Node) string {
	if orig := strings.TrimSpace(entry.ChildNS(feedburnerNS, "origLink").Text()); orig != "" {
		return orig
	}
	if link := rssLink(entry); link != "" {
		return link
	}
	if guid := plain(entry, "guid"); guid != nil && guid.Attr("isPermaLink") != "false" {
		value := strings.TrimSpace(guid.Text())
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			return value
		}
	}
	return ""
}

func (RSSAdapter) ItemTitle(entry *xmlparser.Node) string {
	return NormalizeWhitespace(cmp.Or(plain(entry, "title").Text(), entry.ChildNS(dcNS, "title").Text()))
}

func (RSSAdapter) ItemDate(entry *xmlparser.Node) int64 {
	for _, n := range []*xmlparser.Node{
		plain(entry, "pubDate"),
		entry.ChildNS(dcNS, "date"),
		entry.ChildNS(atomNS, "updated"),
		entry.ChildNS(atomNS, "published"),
	} {
		if d := ParseDate(n.Text()); d != 0 {
			return d
		}
	}
	return 0
}

func (RSSAdapter) ItemAuthor(entry *xmlparser.Node) string {
	return NormalizeWhitespace(cmp.Or(plain(entry, "author").Text(), entry.ChildNS(dcNS, "creator").Text()))
}

func (RSSAdapter) ItemContent(entry *xmlparser.Node) string {
	if encoded := entry.ChildNS(contentNS, "encoded"); hasContent(encoded) {
		return markupOrText(encoded)
	}
	return markupOrText(plain(entry, "description"))
}

func (RSSAdapter) ItemEnclosure(entry *xmlparser.Node) (string, string) {
	if enc := plain(entry, "enclosure"); enc != nil {
		if u := strings.TrimSpace(enc.Attr("url")); u != "" {
			return u, strings.TrimSpace(enc.Attr("type"))
		}
	}
	for _, link := range entry.Elements() {
		if link.Name.Space == atomNS && link.Name.Local == "link" && link.Attr("rel") == "enclosure" {
			return strings.TrimSpace(link.Attr("href")), strings.TrimSpace(link.Attr("type"))
		}
	}
	return "", ""
}

func (RSSAdapter) ItemLanguage(entry *xmlparser.Node, feedLanguage string) string {
	return cmp.Or(canonicalLanguage(entry.ChildNS(dcNS, "language").Text()), feedLanguage)
}

func (RSSAdapter) ItemPermalink(entry *xmlparser.Node, itemURL string) string {
	return nativePermalink(strings.TrimSpace(plain(entry, "guid").Text()), itemURL)
}

func channel(root *xmlparser.Node) *xmlparser.Node {
	if ch := plain(root, "channel"); ch != nil {
		return ch
	}
	return root
}

// plain returns the first child with the given local name in a core RSS namespace.
func plain(n *xmlparser.Node, local string) *xmlparser.Node {
	for _, c := range n.Elements() {
		if c.Name.Local == local && rssNamespaces[c.Name.Space] {
			return c
		}
	}
	return nil
}

func plainChildren(n *xmlparser.Node, local string) []*xmlparser.Node {
	var matched []*xmlparser.Node
	for _, c := range n.Elements() {
		if c.Name.Local == local && rssNamespaces[c.Name.Space] {
			matched = append(matched, c)
		}
	}
	return matched
}

// rssLink returns the first non-empty core link, then an Atom alternate link.
func rssLink(n *xmlparser.Node) string {
	for _, c := range plainChildren(n, "link") {
		if link := strings.TrimSpace(c.Text()); link != "" {
			return link
		}
	}
	for _, c := range n.Elements() {
		if c.Name.Space == atomNS && c.Name.Local == "link" {
			if rel := c.Attr("rel"); rel == "" || rel == "alternate" {
				return strings.TrimSpace(c.Attr("href"))
			}
		}
	}
	return ""
}
