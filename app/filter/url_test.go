package filter

import "testing"

func TestResolveAbsolute(t *testing.T) {
	cases := []struct {
		path     string
		base     string
		expected string
	}{
		{"/about", "http://example.com/blog/post", "http://example.com/about"},
		{"img.png", "http://example.com/blog/post", "http://example.com/blog/img.png"},
		{"./img.png", "http://example.com/blog/", "http://example.com/blog/img.png"},
		{"img.png", "http://example.com", "http://example.com/img.png"},
		{"x", "http://example.com/post", "http://example.com/x"},
		{"img.png", "example.com", "http://example.com/img.png"},
		{"a.png", "https://example.com:8443/dir/page", "https://example.com:8443/dir/a.png"},
		{"", "http://example.com/x", "http://example.com/x"},
		{"a.png", "", ""},
	}

	for _, c := range cases {
		if got := ResolveAbsolute(c.path, c.base); got != c.expected {
			t.Errorf("Expected %s for (%q, %q), got: %s", c.expected, c.path, c.base, got)
		}
	}
}

func TestIsRelativePath(t *testing.T) {
	cases := map[string]bool{
		"img.png":                    true,
		"/about":                     true,
		"../up.html":                 true,
		"?page=2":                    true,
		"http://example.com/":        false,
		"//cdn.example.com/a.js":     false,
		"mailto:me@example.com":      false,
		"javascript:alert(1)":        false,
		"data:image/png;base64,AAAA": false,
	}

	for value, expected := range cases {
		if got := IsRelativePath(value); got != expected {
			t.Errorf("Expected %v for %s, got: %v", expected, value, got)
		}
	}
}
