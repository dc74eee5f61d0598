package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Run serializes a normalized feed as RSS 2.0. selfLink is the URL the
// result is served from.
func (g *Generator) Run(feed *Feed, items []Item, selfLink string) (string, error) {
	if feed == nil {
		return "", fmt.Errorf("feed is nil")
	}

	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Title, 4)
	g.writeElement(&buf, "link", feed.URL, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Sanitized feed from %s", feed.URL), 4)

	if selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfLink)))
	}

	if feed.Date != 0 {
		g.writeElement(&buf, "lastBuildDate", formatDate(feed.Date), 4)
	}
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Sieve/%s", g.version), 4)
	g.writeElement(&buf, "language", feed.Language, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.ID != "" {
		buf.WriteString(`      <guid isPermaLink="false">`)
		xml.EscapeText(buf, []byte(item.ID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.URL, 6)

	if item.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(escapeCDATA(item.Content))
		buf.WriteString("]]></content:encoded>\n")
	}

	if item.Date != 0 {
		g.writeElement(buf, "pubDate", formatDate(item.Date), 6)
	}

	g.writeElement(buf, "dc:creator", item.Author, 6)
	g.writeElement(buf, "dc:language", item.Language, 6)

	// RSS 2.0 requires a length; the size of the media is not known here.
	if item.EnclosureURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.EnclosureURL),
			html.EscapeString(item.EnclosureType)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func formatDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC1123Z)
}

func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
