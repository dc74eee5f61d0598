package feed

import (
	"testing"
)

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Test Item 1", Content: "Test content"},
		{Title: "Test Item 2", Content: "Another content"},
	}

	result := filterer.Run(items, &Config{Filters: []ConfigFilter{}})

	if len(result) != 2 {
		t.Errorf("Expected 2 items, got %d", len(result))
	}
}

func TestFilterer_Run_TitleIncludeFilter(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Breaking News: Important Update"},
		{Title: "Sports Update"},
		{Title: "Weather Report"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{
				Field:    "title",
				Includes: []string{"news", "update"},
			},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if result[0].Title != "Breaking News: Important Update" {
		t.Errorf("Expected first item kept, got: %s", result[0].Title)
	}
	if result[1].Title != "Sports Update" {
		t.Errorf("Expected second item kept, got: %s", result[1].Title)
	}
}

func TestFilterer_Run_TitleExcludeFilter(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Regular News"},
		{Title: "Sponsored: Buy Now"},
		{Title: "Advertisement Content"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{
				Field:    "title",
				Excludes: []string{"sponsored", "advertisement"},
			},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Title != "Regular News" {
		t.Errorf("Expected 'Regular News' kept, got: %s", result[0].Title)
	}
}

func TestFilterer_Run_CombinedIncludeExclude(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Tech News Update"},
		{Title: "Tech Sponsored Content"},
		{Title: "Sports News"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{
				Field:    "title",
				Includes: []string{"tech"},
				Excludes: []string{"sponsored"},
			},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Title != "Tech News Update" {
		t.Errorf("Expected 'Tech News Update' kept, got: %s", result[0].Title)
	}
}

func TestFilterer_Run_AuthorAndURLFields(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "One", Author: "Jane Doe", URL: "https://example.com/blog/one"},
		{Title: "Two", Author: "Bot Account", URL: "https://example.com/blog/two"},
		{Title: "Three", Author: "Jane Doe", URL: "https://example.com/ads/three"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "author", Excludes: []string{"bot"}},
			{Field: "url", Includes: []string{"/blog/"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result))
	}
	if result[0].Title != "One" {
		t.Errorf("Expected 'One' kept, got: %s", result[0].Title)
	}
}

func TestFilterer_Run_ContentField(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "A", Content: "<p>Go 1.24 released</p>"},
		{Title: "B", Content: "<p>Unrelated</p>"},
	}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "content", Includes: []string{"GO 1.24"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 1 || result[0].Title != "A" {
		t.Errorf("Expected only item A kept (case-insensitive), got: %v", result)
	}
}

func TestFilterer_Run_MaxItems(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"}}

	feedConfig := &Config{Settings: ConfigSettings{MaxItems: 2}}

	result := filterer.Run(items, feedConfig)

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	if result[0].Title != "1" || result[1].Title != "2" {
		t.Errorf("Expected first two items in order, got: %s, %s", result[0].Title, result[1].Title)
	}
}

func TestFilterer_Run_UnknownField(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{{Title: "Anything"}}

	feedConfig := &Config{
		Filters: []ConfigFilter{
			{Field: "unknown", Includes: []string{"x"}},
		},
	}

	result := filterer.Run(items, feedConfig)

	if len(result) != 0 {
		t.Errorf("Expected item rejected when include filter reads an unknown field, got %d", len(result))
	}
}

func TestFilterer_ApplyFilters_Reason(t *testing.T) {
	filterer := NewFilterer()

	excluded, reason := filterer.applyFilters(Item{Title: "Sponsored post"}, []ConfigFilter{
		{Field: "title", Excludes: []string{"sponsored"}},
	})

	if !excluded {
		t.Error("Expected item to be excluded")
	}
	if reason != "Excluded by title filter: contains 'sponsored'" {
		t.Errorf("Expected exclude reason, got: %s", reason)
	}
}

func TestFilterer_GetFieldValue(t *testing.T) {
	filterer := NewFilterer()

	item := Item{
		Title:   "Test Title",
		Content: "Test Content",
		Author:  "Author 1",
		URL:     "https://example.com",
	}

	tests := []struct {
		field    string
		expected string
	}{
		{"title", "Test Title"},
		{"content", "Test Content"},
		{"author", "Author 1"},
		{"url", "https://example.com"},
		{"unknown", ""},
	}

	for _, test := range tests {
		result := filterer.getFieldValue(item, test.field)
		if result != test.expected {
			t.Errorf("For field '%s', expected '%s', got '%s'", test.field, test.expected, result)
		}
	}
}

func TestFilterer_MatchesFilter(t *testing.T) {
	filterer := NewFilterer()

	tests := []struct {
		value    string
		pattern  string
		expected bool
	}{
		{"Hello World", "hello", true},
		{"Hello World", "WORLD", true},
		{"Hello World", "xyz", false},
		{"", "test", false},
		{"test", "", true},
	}

	for _, test := range tests {
		result := filterer.matchesFilter(test.value, test.pattern)
		if result != test.expected {
			t.Errorf("matchesFilter('%s', '%s') = %v, expected %v", test.value, test.pattern, result, test.expected)
		}
	}
}
