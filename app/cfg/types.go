package cfg

import "time"

type Cfg struct {
	// Application configuration
	FeedsDir     string
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Parsing and sanitization
	PolicyFile               string
	IDExclusions             []string
	RejectEntityDeclarations bool

	// Fetching
	UserAgent    string
	FetchTimeout time.Duration
	MaxBodySize  int64
	MaxRedirects int
	ProxyURL     string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
