package filter

import (
	"html"
	"strconv"
	"strings"

	nethtml "golang.org/x/net/html"
)

type elementState int

const (
	emitting elementState = iota
	suppressed
)

type frame struct {
	state       elementState
	blacklisted bool
}

// scanner replays a recovered tree as start/end/text events and writes the
// whitelisted subset. Every start pushes a frame, every end pops one.
type scanner struct {
	filter  *Filter
	baseURL string
	buf     strings.Builder
	stack   []frame

	// stripText is the blacklist flag of the most recent start tag.
	stripText bool
	// blacklistDepth counts open blacklisted elements in subtree mode.
	blacklistDepth int
}

func (s *scanner) walk(n *nethtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case nethtml.ElementNode:
			s.startTag(c.Data, c.Attr)
			s.walk(c)
			s.endTag(c.Data)
		case nethtml.TextNode:
			s.text(c.Data)
		}
	}
}

func (s *scanner) startTag(tag string, attrs []nethtml.Attribute) {
	f := s.filter
	state := suppressed

	if !isPixelTracker(tag, attrs) && f.isAllowedTag(tag) {
		attrData, present := s.filterAttributes(tag, attrs)
		if f.hasRequiredAttributes(tag, present) {
			state = emitting
			s.buf.WriteString("<" + tag + attrData)
			if extra := f.injected[tag]; extra != "" {
				s.buf.WriteString(" " + extra)
			}
			if !isSelfClosing(tag) {
				s.buf.WriteString(">")
			}
		}
	}

	blacklisted := f.blacklisted[tag]
	if f.stripSubtree {
		if blacklisted {
			s.blacklistDepth++
		}
	} else {
		s.stripText = blacklisted
	}

	s.stack = append(s.stack, frame{state: state, blacklisted: blacklisted})
}

func (s *scanner) endTag(tag string) {
	if len(s.stack) == 0 {
		return
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]

	if top.state == emitting {
		if isSelfClosing(tag) {
			s.buf.WriteString("/>")
		} else {
			s.buf.WriteString("</" + tag + ">")
		}
	}

	if top.blacklisted && s.filter.stripSubtree {
		s.blacklistDepth--
	}
}

func (s *scanner) text(data string) {
	if s.suppressingText() {
		return
	}
	data = strings.ReplaceAll(data, "\u00a0", " ")
	s.buf.WriteString(html.EscapeString(data))
}

func (s *scanner) suppressingText() bool {
	if s.filter.stripSubtree {
		return s.blacklistDepth > 0
	}
	return s.stripText
}

func (s *scanner) filterAttributes(tag string, attrs []nethtml.Attribute) (string, map[string]bool) {
	f := s.filter
	var b strings.Builder
	present := make(map[string]bool, len(attrs))

	for _, a := range attrs {
		name, value := a.Key, a.Val
		if a.Namespace != "" || value == "" || present[name] || !f.isAllowedAttribute(tag, name) {
			continue
		}

		if f.resources[name] {
			resolved, ok := s.filterResource(tag, name, value, attrs)
			if !ok {
				continue
			}
			value = resolved
		} else if !f.isValidValue(name, value) {
			continue
		}

		b.WriteString(" " + name + `="` + html.EscapeString(value) + `"`)
		present[name] = true
	}

	return b.String(), present
}

func (s *scanner) filterResource(tag, name, value string, attrs []nethtml.Attribute) (string, bool) {
	f := s.filter
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	if tag == "iframe" {
		return value, f.isAllowedIframe(value)
	}

	if IsRelativePath(value) {
		abs := ResolveAbsolute(value, s.baseURL)
		if abs == "" || !f.isAllowedScheme(abs) || f.isBlockedMedia(abs) {
			return "", false
		}
		return abs, true
	}

	if !f.isAllowedScheme(value) || f.isBlockedMedia(value) {
		return "", false
	}

	if name == "src" {
		if lazy := strings.TrimSpace(attrValue(attrs, "data-src")); lazy != "" && f.isAllowedScheme(lazy) && !f.isBlockedMedia(lazy) {
			value = lazy
		}
	}

	if strings.HasPrefix(value, "//") {
		value = "http:" + value
	}

	return value, true
}

func isPixelTracker(tag string, attrs []nethtml.Attribute) bool {
	if tag != "img" {
		return false
	}
	return isOne(attrValue(attrs, "width")) && isOne(attrValue(attrs, "height"))
}

func isOne(value string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil && n == 1
}

func isSelfClosing(tag string) bool {
	return tag == "img" || tag == "br"
}

func attrValue(attrs []nethtml.Attribute, key string) string {
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
