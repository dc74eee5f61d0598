package filter

import (
	"cmp"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// IsRelativePath reports whether value has neither a scheme nor a
// protocol-relative "//" prefix.
func IsRelativePath(value string) bool {
	if strings.HasPrefix(value, "//") {
		return false
	}
	return !schemePattern.MatchString(value)
}

// ResolveAbsolute resolves a relative path against baseURL. A base without a
// host is taken as a bare host with the root path. Returns "" when there is
// no base.
func ResolveAbsolute(relative, baseURL string) string {
	if baseURL == "" {
		return ""
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	scheme := cmp.Or(u.Scheme, "http")
	host, basePath := u.Host, u.EscapedPath()
	if host == "" {
		host, basePath = baseURL, "/"
	}

	if relative == "" {
		return baseURL
	}

	if strings.HasPrefix(relative, "/") {
		return scheme + "://" + host + relative
	}

	dir := cmp.Or(basePath, "/")
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
	}

	return scheme + "://" + host + dir + strings.TrimPrefix(relative, "./")
}
