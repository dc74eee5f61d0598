package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Sample</title>
    <link>http://example.org/</link>
    <item>
      <title>First</title>
      <link>http://example.org/1</link>
      <description>&lt;p&gt;One&lt;/p&gt;</description>
    </item>
  </channel>
</rss>`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeResults(t *testing.T, data []byte) []result {
	t.Helper()
	var results []result
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("Expected JSON output, got: %v", err)
	}
	return results
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()

	var opts options
	opts.Concurrency = 2
	opts.Timeout = 5
	opts.Args.Inputs = []string{
		writeInput(t, dir, "a.xml", sampleFeed),
		writeInput(t, dir, "b.xml", strings.Replace(sampleFeed, "Sample", "Second", 1)),
		writeInput(t, dir, "c.xml", sampleFeed),
	}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	results := decodeResults(t, out.Bytes())
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got: %d", len(results))
	}

	for i, r := range results {
		if r.Input != opts.Args.Inputs[i] {
			t.Errorf("Expected results in input order, got %s at %d", r.Input, i)
		}
		if r.Feed == nil {
			t.Fatalf("Expected feed for %s, got error: %s", r.Input, r.Error)
		}
	}

	if results[1].Feed.Title != "Second" {
		t.Errorf("Expected title 'Second', got: %s", results[1].Feed.Title)
	}
	if results[0].Feed.Items[0].Content != "<p>One</p>" {
		t.Errorf("Expected sanitized content, got: %s", results[0].Feed.Items[0].Content)
	}
	if results[0].Feed.Items[0].ID != results[2].Feed.Items[0].ID {
		t.Error("Expected identical inputs to produce identical item IDs")
	}
}

func TestRunReportsFailures(t *testing.T) {
	dir := t.TempDir()

	var opts options
	opts.Concurrency = 1
	opts.Timeout = 5
	opts.Diagnostics = true
	opts.Args.Inputs = []string{
		writeInput(t, dir, "good.xml", sampleFeed),
		writeInput(t, dir, "bad.xml", `<?xml version="1.0"?><!DOCTYPE rss [<!ENTITY a "b">]><rss/>`),
		filepath.Join(dir, "missing.xml"),
	}

	var out bytes.Buffer
	err := run(context.Background(), opts, &out)
	if !errors.Is(err, errInputsFailed) {
		t.Fatalf("Expected errInputsFailed, got: %v", err)
	}

	results := decodeResults(t, out.Bytes())
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got: %d", len(results))
	}
	if results[0].Error != "" {
		t.Errorf("Expected first input to succeed, got: %s", results[0].Error)
	}
	if results[1].Error == "" || results[1].Feed != nil {
		t.Error("Expected entity declaration to be rejected")
	}
	if len(results[1].Diagnostics) == 0 {
		t.Error("Expected diagnostics for rejected input")
	}
	if !strings.Contains(results[2].Error, "failed to read file") {
		t.Errorf("Expected read error, got: %s", results[2].Error)
	}
}

func TestRunURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte(strings.Replace(sampleFeed, "<link>http://example.org/</link>", "", 1)))
	}))
	defer server.Close()

	var opts options
	opts.Concurrency = 1
	opts.Timeout = 5
	opts.Args.Inputs = []string{server.URL + "/feed.xml"}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	results := decodeResults(t, out.Bytes())
	if results[0].Feed == nil {
		t.Fatalf("Expected feed, got error: %s", results[0].Error)
	}
	if results[0].Feed.URL != server.URL+"/feed.xml" {
		t.Errorf("Expected fetch URL as feed URL, got: %s", results[0].Feed.URL)
	}
}

func TestRunInvalidPolicy(t *testing.T) {
	var opts options
	opts.PolicyFile = filepath.Join(t.TempDir(), "missing.yml")
	opts.Args.Inputs = []string{"x.xml"}

	if err := run(context.Background(), opts, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for missing policy file")
	}
}
