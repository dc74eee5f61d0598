package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Application configuration
	FeedsDir     string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://feeds.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Parsing and sanitization
	PolicyFile               string   `long:"policy-file" env:"POLICY_FILE" description:"YAML file overriding the default sanitizer policy (watched for changes)"`
	IDExclusions             []string `long:"id-exclude" env:"ID_EXCLUSIONS" env-delim:"," description:"Feed URLs or hosts whose native item IDs are ignored"`
	RejectEntityDeclarations bool     `long:"reject-entities" env:"REJECT_ENTITIES" description:"Reject any document containing <!ENTITY before parsing"`

	// Fetching
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Sieve/1.0" description:"User agent string for HTTP requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Default fetch timeout in seconds"`
	MaxBodySize  int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"2097152" description:"Maximum feed size in bytes"`
	MaxRedirects int    `long:"max-redirects" env:"MAX_REDIRECTS" default:"5" description:"Maximum number of redirects to follow"`
	ProxyURL     string `long:"proxy" env:"PROXY_URL" description:"HTTP proxy URL for outgoing requests"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive")
	}
	if raw.MaxBodySize <= 0 {
		return nil, fmt.Errorf("max body size must be positive")
	}

	cfg := &Cfg{
		FeedsDir:                 raw.FeedsDir,
		Port:                     raw.Port,
		BaseUrl:                  raw.BaseUrl,
		APIAccessKey:             raw.APIAccessKey,
		PolicyFile:               raw.PolicyFile,
		IDExclusions:             raw.IDExclusions,
		RejectEntityDeclarations: raw.RejectEntityDeclarations,
		UserAgent:                raw.UserAgent,
		FetchTimeout:             time.Duration(raw.FetchTimeout) * time.Second,
		MaxBodySize:              raw.MaxBodySize,
		MaxRedirects:             raw.MaxRedirects,
		ProxyURL:                 raw.ProxyURL,
		Timezone:                 raw.Timezone,
		Debug:                    raw.Debug,
		Version:                  GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
