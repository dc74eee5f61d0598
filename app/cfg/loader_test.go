package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// Set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgs(t *testing.T) {
	cfg, err := load([]string{
		"--port", "9090",
		"--feeds-dir", "/tmp/feeds",
		"--policy-file", "/tmp/policy.yml",
		"--id-exclude", "example.org",
		"--id-exclude", "https://other.example.com/feed.xml",
		"--reject-entities",
		"--fetch-timeout", "15",
		"--max-body-size", "1024",
		"--max-redirects", "2",
		"--user-agent", "Test Agent",
		"--timezone", "UTC",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.FeedsDir != "/tmp/feeds" {
		t.Errorf("Expected feeds dir '/tmp/feeds', got '%s'", cfg.FeedsDir)
	}
	if cfg.PolicyFile != "/tmp/policy.yml" {
		t.Errorf("Expected policy file '/tmp/policy.yml', got '%s'", cfg.PolicyFile)
	}
	if len(cfg.IDExclusions) != 2 || cfg.IDExclusions[0] != "example.org" {
		t.Errorf("Expected 2 ID exclusions, got: %v", cfg.IDExclusions)
	}
	if !cfg.RejectEntityDeclarations {
		t.Error("Expected entity rejection to be enabled")
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("Expected fetch timeout 15s, got %v", cfg.FetchTimeout)
	}
	if cfg.MaxBodySize != 1024 {
		t.Errorf("Expected max body size 1024, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxRedirects != 2 {
		t.Errorf("Expected max redirects 2, got %d", cfg.MaxRedirects)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Version != GetVersion() {
		t.Errorf("Expected version '%s', got '%s'", GetVersion(), cfg.Version)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	if _, err := load([]string{"--fetch-timeout", "0", "--max-body-size", "10"}); err == nil {
		t.Error("Expected error for zero fetch timeout")
	}
	if _, err := load([]string{"--fetch-timeout", "5", "--max-body-size", "-1"}); err == nil {
		t.Error("Expected error for negative max body size")
	}
	if _, err := load([]string{"--port"}); err == nil {
		t.Error("Expected error for missing flag argument")
	}
}
