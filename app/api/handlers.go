package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-sieve/app/client"
	"github.com/lysyi3m/rss-sieve/app/feed"
)

// maxUploadSize bounds documents posted to the parse endpoint.
const maxUploadSize = 4 << 20

var errFetchFailed = errors.New("fetch failed")

func NewHandler(configCache *feed.ConfigCache, fetcher FetcherInterface, newParser ParserFactory,
	sanitizer feed.Sanitizer, metrics *Metrics, baseURL, version string) *Handler {
	return &Handler{
		configCache: configCache,
		fetcher:     fetcher,
		newParser:   newParser,
		sanitizer:   sanitizer,
		filterer:    feed.NewFilterer(),
		generator:   feed.NewGenerator(version),
		metrics:     metrics,
		baseURL:     strings.TrimRight(baseURL, "/"),
		fetched:     make(map[string]*fetchedFeed),
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	if !feedConfig.Settings.Enabled {
		c.Status(http.StatusNotFound)
		return
	}

	parsed, err := h.loadFeed(c.Request.Context(), feedConfig)
	if err != nil {
		slog.Error("Feed processing error", "feed", name, "error", err)
		c.Status(statusForParseError(err))
		return
	}

	items := h.filterer.Run(parsed.Items, feedConfig)
	h.metrics.observeFiltered(len(parsed.Items) - len(items))

	rss, err := h.generator.Run(parsed, items, h.selfLink(c, name))
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Name", name)

	c.String(http.StatusOK, rss)
}

// loadFeed fetches and parses a configured feed, reusing the previous
// result when the origin reports it unchanged.
func (h *Handler) loadFeed(ctx context.Context, feedConfig *feed.Config) (*feed.Feed, error) {
	h.mu.Lock()
	previous := h.fetched[feedConfig.Name]
	h.mu.Unlock()

	var validators client.Validators
	if previous != nil {
		validators = previous.validators
	}

	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(feedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	resp, err := h.fetcher.Fetch(fetchCtx, feedConfig.URL, validators)
	if err != nil {
		h.metrics.observeFetchError()
		return nil, fmt.Errorf("%w: %w", errFetchFailed, err)
	}

	if !resp.Modified {
		if previous == nil {
			h.metrics.observeFetchError()
			return nil, fmt.Errorf("%w: status %d without a cached copy", errFetchFailed, resp.Status)
		}
		h.metrics.observeNotModified()
		slog.Debug("Feed not modified", "feed", feedConfig.Name)
		return previous.feed, nil
	}

	encoding := resp.Encoding
	if feedConfig.Settings.Encoding != "" {
		encoding = feedConfig.Settings.Encoding
	}

	started := time.Now()
	parsed, err := h.newParser(feedConfig.ParserOptions()...).Run(resp.Body, encoding, resp.URL)
	h.metrics.observeParse(started, parsed, err)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.fetched[feedConfig.Name] = &fetchedFeed{validators: resp.Validators(), feed: parsed}
	h.mu.Unlock()

	return parsed, nil
}

func (h *Handler) selfLink(c *gin.Context, name string) string {
	if h.baseURL != "" {
		return h.baseURL + "/feeds/" + name
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/feeds/" + name
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
		"enabled_feeds":         len(h.configCache.GetEnabledConfigs()),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":      feedConfig.Name,
			"url":       feedConfig.URL,
			"title":     "",
			"enabled":   feedConfig.Settings.Enabled,
			"max_items": feedConfig.Settings.MaxItems,
			"timeout":   (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
			"encoding":  feedConfig.Settings.Encoding,
			"filters":   len(feedConfig.Filters),
		}

		h.mu.Lock()
		if fetched, ok := h.fetched[feedConfig.Name]; ok {
			feedInfo["title"] = fetched.feed.Title
			feedInfo["item_count"] = len(fetched.feed.Items)
		}
		h.mu.Unlock()

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	h.mu.Lock()
	delete(h.fetched, name)
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded",
		"feed": gin.H{
			"name":    name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
		},
	})
}

// APIParse parses the posted document. The optional "url" query parameter
// is the document's origin, "encoding" overrides charset detection.
func (h *Handler) APIParse(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ParseResponse{Error: "Failed to read request body", Diagnostics: []string{}})
		return
	}
	if len(body) > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ParseResponse{Error: "Document too large", Diagnostics: []string{}})
		return
	}

	parser := h.newParser()
	started := time.Now()
	parsed, err := parser.Run(body, c.Query("encoding"), c.Query("url"))
	h.metrics.observeParse(started, parsed, err)

	diagnostics := make([]string, 0, len(parser.Diagnostics()))
	for _, d := range parser.Diagnostics() {
		diagnostics = append(diagnostics, d.String())
	}

	if err != nil {
		slog.Debug("Posted document rejected", "url", c.Query("url"), "error", err)
		c.JSON(statusForParseError(err), ParseResponse{Error: err.Error(), Diagnostics: diagnostics})
		return
	}

	c.JSON(http.StatusOK, ParseResponse{Feed: parsed, Diagnostics: diagnostics})
}

func (h *Handler) APISanitize(c *gin.Context) {
	var req SanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	h.metrics.observeSanitize()
	c.JSON(http.StatusOK, SanitizeResponse{HTML: h.sanitizer.Sanitize(req.HTML, req.BaseURL)})
}
