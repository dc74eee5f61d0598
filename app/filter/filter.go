package filter

import (
	"strings"

	"github.com/lysyi3m/rss-sieve/app/xmlparser"
)

// Filter is a compiled Policy. It is immutable and safe for concurrent use.
type Filter struct {
	allowed       map[string]map[string]bool
	blacklisted   map[string]bool
	schemes       []string
	resources     map[string]bool
	blockedMedia  []string
	required      map[string][]string
	injected      map[string]string
	integers      map[string]bool
	iframeOrigins []string
	stripSubtree  bool
}

// New compiles policy. A nil policy means DefaultPolicy.
func New(policy *Policy) *Filter {
	if policy == nil {
		policy = DefaultPolicy()
	}

	f := &Filter{
		allowed:      make(map[string]map[string]bool, len(policy.AllowedTags)),
		blacklisted:  toSet(policy.BlacklistedTags),
		resources:    toSet(policy.ResourceAttributes),
		integers:     toSet(policy.IntegerAttributes),
		required:     make(map[string][]string, len(policy.RequiredAttributes)),
		injected:     make(map[string]string, len(policy.InjectedAttributes)),
		stripSubtree: policy.StripBlacklistedSubtree,
	}

	for tag, attrs := range policy.AllowedTags {
		f.allowed[strings.ToLower(tag)] = toSet(attrs)
	}
	for tag, attrs := range policy.RequiredAttributes {
		f.required[strings.ToLower(tag)] = append([]string(nil), attrs...)
	}
	for tag, attrs := range policy.InjectedAttributes {
		f.injected[strings.ToLower(tag)] = strings.TrimSpace(attrs)
	}
	for _, s := range policy.AllowedSchemes {
		f.schemes = append(f.schemes, strings.ToLower(s))
	}
	for _, m := range policy.BlockedMedia {
		f.blockedMedia = append(f.blockedMedia, strings.ToLower(m))
	}
	for _, o := range policy.IframeOrigins {
		f.iframeOrigins = append(f.iframeOrigins, strings.ToLower(o))
	}

	return f
}

// Sanitize compiles policy and sanitizes fragment with it.
func Sanitize(fragment, baseURL string, policy *Policy) string {
	return New(policy).Sanitize(fragment, baseURL)
}

// Sanitize reduces an untrusted markup fragment to the whitelisted subset.
// Relative resource URLs are resolved against baseURL. It never fails; input
// that cannot be recovered yields "".
func (f *Filter) Sanitize(fragment, baseURL string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	body := xmlparser.Body(xmlparser.LoadHTML([]byte(fragment)))
	if body == nil {
		return ""
	}

	s := &scanner{filter: f, baseURL: baseURL}
	s.walk(body)

	out := removeEmptyTags(s.buf.String())
	out = collapseLineBreaks(out)
	return strings.TrimSpace(out)
}

func (f *Filter) isAllowedTag(tag string) bool {
	_, ok := f.allowed[tag]
	return ok
}

func (f *Filter) isAllowedAttribute(tag, attr string) bool {
	return f.allowed[tag][attr]
}

func (f *Filter) isAllowedScheme(value string) bool {
	value = strings.ToLower(value)
	for _, s := range f.schemes {
		if strings.HasPrefix(value, s) {
			return true
		}
	}
	return false
}

func (f *Filter) isBlockedMedia(value string) bool {
	value = strings.ToLower(value)
	for _, m := range f.blockedMedia {
		if strings.Contains(value, m) {
			return true
		}
	}
	return false
}

func (f *Filter) isAllowedIframe(value string) bool {
	value = strings.ToLower(value)
	for _, o := range f.iframeOrigins {
		if strings.HasPrefix(value, o) {
			return true
		}
	}
	return false
}

func (f *Filter) isValidValue(attr, value string) bool {
	if !f.integers[attr] {
		return true
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func (f *Filter) hasRequiredAttributes(tag string, present map[string]bool) bool {
	for _, attr := range f.required[tag] {
		if !present[attr] {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
