package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrBodyTooLarge = errors.New("response body exceeds size limit")

const (
	DefaultUserAgent          = "RSS Sieve/1.0"
	DefaultTimeout            = 10 * time.Second
	DefaultMaxBodySize  int64 = 2 << 20
	DefaultMaxRedirects       = 5
)

type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodySize  int64
	MaxRedirects int
	ProxyURL     string
	Logger       *slog.Logger
}

// Validators are the cache validators of a previous response.
type Validators struct {
	ETag         string
	LastModified string
}

type Response struct {
	URL          string
	Status       int
	Body         []byte
	Encoding     string
	ETag         string
	LastModified string
	// Modified is false when the server answered 304 or returned the
	// validators that were sent.
	Modified bool
}

func (r *Response) Validators() Validators {
	return Validators{ETag: r.ETag, LastModified: r.LastModified}
}

// Client downloads feed documents. It carries no retry policy.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

func New(opts Options) (*Client, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = DefaultMaxBodySize
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %s: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	maxRedirects := opts.MaxRedirects
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:   opts.UserAgent,
		maxBodySize: opts.MaxBodySize,
		logger:      opts.Logger,
	}, nil
}

func (c *Client) Fetch(ctx context.Context, rawURL string, v Validators) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/rss+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8")
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	}
	if v.LastModified != "" {
		req.Header.Set("If-Modified-Since", v.LastModified)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Feed fetched", "url", rawURL, "status", resp.StatusCode)

	result := &Response{
		URL:      resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Modified: true,
	}

	if resp.StatusCode == http.StatusNotModified {
		result.ETag, result.LastModified = v.ETag, v.LastModified
		result.Modified = false
		return result, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	result.Body = body
	result.Encoding = charsetFromContentType(resp.Header.Get("Content-Type"))
	result.ETag = resp.Header.Get("ETag")
	result.LastModified = resp.Header.Get("Last-Modified")

	if (v.ETag != "" && v.ETag == result.ETag) || (v.LastModified != "" && v.LastModified == result.LastModified) {
		result.Modified = false
	}

	return result, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodySize)
	}
	return data, nil
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		return strings.ToLower(strings.TrimSpace(params["charset"]))
	}

	_, after, found := strings.Cut(strings.ToLower(contentType), "charset=")
	if !found {
		return ""
	}
	value, _, _ := strings.Cut(after, ";")
	return strings.Trim(strings.TrimSpace(value), `"'`)
}
