package api

import (
	"context"
	"sync"

	"github.com/lysyi3m/rss-sieve/app/client"
	"github.com/lysyi3m/rss-sieve/app/feed"
)

type FetcherInterface interface {
	Fetch(ctx context.Context, url string, v client.Validators) (*client.Response, error)
}

var _ FetcherInterface = (*client.Client)(nil)

// ParserFactory returns a fresh parser with the service defaults plus opts.
// Each request gets its own so that diagnostics belong to that request.
type ParserFactory func(opts ...feed.Option) *feed.Parser

type Handler struct {
	configCache *feed.ConfigCache
	fetcher     FetcherInterface
	newParser   ParserFactory
	sanitizer   feed.Sanitizer
	filterer    *feed.Filterer
	generator   *feed.Generator
	metrics     *Metrics
	baseURL     string

	mu      sync.Mutex
	fetched map[string]*fetchedFeed
}

// fetchedFeed is the last successful parse of a configured feed, reused
// when the origin answers a conditional request with "not modified".
type fetchedFeed struct {
	validators client.Validators
	feed       *feed.Feed
}

type ParseResponse struct {
	Feed        *feed.Feed `json:"feed,omitempty"`
	Error       string     `json:"error,omitempty"`
	Diagnostics []string   `json:"diagnostics"`
}

type SanitizeRequest struct {
	HTML    string `json:"html"`
	BaseURL string `json:"base_url"`
}

type SanitizeResponse struct {
	HTML string `json:"html"`
}
