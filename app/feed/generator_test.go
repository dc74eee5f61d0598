package feed

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"
)

func TestGenerateRSS(t *testing.T) {
	generator := NewGenerator("test")

	feed := &Feed{
		Title:    "Test Feed",
		URL:      "https://example.com",
		Date:     time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC).Unix(),
		Language: "en-US",
	}

	items := []Item{
		{
			ID:            "abc123",
			Title:         "Test Item 1",
			URL:           "https://example.com/item1",
			Content:       `<p>Test Item 1 Content</p>`,
			Date:          time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC).Unix(),
			Author:        "Test Author",
			Language:      "en-US",
			EnclosureURL:  "https://example.com/a.mp3?x=1&y=2",
			EnclosureType: "audio/mpeg",
		},
		{
			ID:    "def456",
			Title: "Test Item 2 & more",
			URL:   "https://example.com/item2",
		},
	}

	rss, err := generator.Run(feed, items, "http://localhost:8080/feeds/test-feed")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expectedParts := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<rss version="2.0"`,
		`xmlns:content="http://purl.org/rss/1.0/modules/content/"`,
		`xmlns:atom="http://www.w3.org/2005/Atom"`,
		"<title>Test Feed</title>",
		"<link>https://example.com</link>",
		"<description>Sanitized feed from https://example.com</description>",
		`<atom:link href="http://localhost:8080/feeds/test-feed" rel="self" type="application/rss+xml" />`,
		"<lastBuildDate>Sat, 01 Jul 2023 12:00:00 +0000</lastBuildDate>",
		"<generator>RSS-Sieve/test</generator>",
		"<language>en-US</language>",
		`<guid isPermaLink="false">abc123</guid>`,
		"<title>Test Item 1</title>",
		"<link>https://example.com/item1</link>",
		"<content:encoded><![CDATA[<p>Test Item 1 Content</p>]]></content:encoded>",
		"<pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>",
		"<dc:creator>Test Author</dc:creator>",
		`<enclosure url="https://example.com/a.mp3?x=1&amp;y=2" length="0" type="audio/mpeg" />`,
		"<title>Test Item 2 &amp; more</title>",
	}

	for _, part := range expectedParts {
		if !strings.Contains(rss, part) {
			t.Errorf("RSS should contain %s", part)
		}
	}

	if strings.Count(rss, "<pubDate>") != 1 {
		t.Error("RSS should omit pubDate for items without a date")
	}

	var doc struct {
		Channel struct {
			Items []struct {
				Title string `xml:"title"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal([]byte(rss), &doc); err != nil {
		t.Fatalf("Expected well-formed XML, got: %v", err)
	}
	if len(doc.Channel.Items) != 2 {
		t.Errorf("Expected 2 items, got: %d", len(doc.Channel.Items))
	}
}

func TestGenerateRSSEscapesCDATATerminator(t *testing.T) {
	generator := NewGenerator("test")

	feed := &Feed{Title: "T", URL: "https://example.com"}
	items := []Item{{ID: "1", Content: "<p>a ]]> b</p>"}}

	rss, err := generator.Run(feed, items, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var doc struct {
		Channel struct {
			Items []struct {
				Content string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal([]byte(rss), &doc); err != nil {
		t.Fatalf("Expected well-formed XML, got: %v", err)
	}
	if doc.Channel.Items[0].Content != "<p>a ]]> b</p>" {
		t.Errorf("Expected content preserved, got: %s", doc.Channel.Items[0].Content)
	}
	if strings.Contains(rss, "atom:link") {
		t.Error("RSS should omit self link when none is given")
	}
}

func TestGenerateRSSNilFeed(t *testing.T) {
	if _, err := NewGenerator("test").Run(nil, nil, ""); err == nil {
		t.Error("Expected error for nil feed")
	}
}
