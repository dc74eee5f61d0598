package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePolicy(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "policy.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}
	return path
}

func TestLoadPolicyOverrides(t *testing.T) {
	path := writePolicy(t, t.TempDir(), `
allowed_tags:
  p: []
  a: [href, title]
blacklisted_tags: [script, style]
strip_blacklisted_subtree: true
`)

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(policy.AllowedTags) != 2 {
		t.Errorf("Expected 2 allowed tags, got: %d", len(policy.AllowedTags))
	}
	if len(policy.BlacklistedTags) != 2 {
		t.Errorf("Expected 2 blacklisted tags, got: %d", len(policy.BlacklistedTags))
	}
	if !policy.StripBlacklistedSubtree {
		t.Error("Expected StripBlacklistedSubtree to be true")
	}

	defaults := DefaultPolicy()
	if len(policy.AllowedSchemes) != len(defaults.AllowedSchemes) {
		t.Errorf("Expected default schemes kept, got: %d", len(policy.AllowedSchemes))
	}
	if policy.InjectedAttributes["a"] != defaults.InjectedAttributes["a"] {
		t.Errorf("Expected default injected attributes kept, got: %s", policy.InjectedAttributes["a"])
	}

	got := New(policy).Sanitize(`<p><a href="http://example.com/" title="t">x</a><style>body{}</style><em>gone</em></p>`, "")
	expected := `<p><a href="http://example.com/" title="t" rel="noreferrer" target="_blank">x</a>gone</p>`
	if got != expected {
		t.Errorf("Expected %s, got: %s", expected, got)
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writePolicy(t, t.TempDir(), "allowed_tags: [not, a, map")
	if _, err := LoadPolicy(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}

	path = writePolicy(t, t.TempDir(), `
injected_attributes:
  a: '"><script>'
`)
	_, err := LoadPolicy(path)
	if err == nil {
		t.Fatal("Expected error for markup in injected attributes")
	}
	if !strings.Contains(err.Error(), "injected_attributes") {
		t.Errorf("Expected injected_attributes error, got: %v", err)
	}
}

func TestNewNilPolicy(t *testing.T) {
	got := New(nil).Sanitize(`<strong>bold</strong>`, "")
	if got != "<strong>bold</strong>" {
		t.Errorf("Expected default policy behaviour, got: %s", got)
	}
}
