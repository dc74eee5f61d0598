package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"
)

// NormalizeWhitespace collapses runs of whitespace into single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RFC 822 zone names. time.Parse gives unknown abbreviations a zero offset.
var rfc822Zones = map[string]string{
	"UT":  "+0000",
	"GMT": "+0000",
	"Z":   "+0000",
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

// ParseDate converts a feed date to Unix seconds, 0 when it cannot be parsed.
func ParseDate(s string) int64 {
	s = resolveZoneName(strings.TrimSpace(s))
	if s == "" {
		return 0
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.Unix()
	}

	return 0
}

// resolveZoneName replaces a trailing RFC 822 zone name with its numeric offset.
func resolveZoneName(s string) string {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return s
	}
	if offset, ok := rfc822Zones[strings.ToUpper(s[i+1:])]; ok {
		return s[:i+1] + offset
	}
	return s
}

var xmlLangPattern = regexp.MustCompile(`xml:lang\s*=\s*["']([^"']+)["']`)

// ExtractLanguageTag returns the first xml:lang declaration in raw, or "".
func ExtractLanguageTag(raw []byte) string {
	m := xmlLangPattern.FindSubmatch(raw)
	if m == nil {
		return ""
	}
	return canonicalLanguage(string(m[1]))
}

func canonicalLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		return t.String()
	}
	return tag
}

// GenerateStableID derives an item ID from its permalink and the feed
// permalink. The item permalink is length-prefixed so distinct pairs never
// share an input.
func GenerateStableID(itemPermalink, feedPermalink string) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(itemPermalink)) + ":"))
	h.Write([]byte(itemPermalink))
	h.Write([]byte(feedPermalink))
	return hex.EncodeToString(h.Sum(nil))
}

// isExcludedFromID reports whether feedURL matches an exclusion entry by
// exact URL or by host.
func isExcludedFromID(feedURL string, exclusions []string) bool {
	if feedURL == "" {
		return false
	}

	host := ""
	if u, err := url.Parse(feedURL); err == nil {
		host = u.Hostname()
	}

	for _, ex := range exclusions {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}
		if ex == feedURL || (host != "" && strings.EqualFold(ex, host)) {
			return true
		}
	}
	return false
}
