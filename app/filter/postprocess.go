package filter

import (
	"regexp"
)

var (
	emptyTagPattern = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)>\s*</([a-zA-Z][a-zA-Z0-9]*)>`)
	lineBreakRun    = regexp.MustCompile(`(<br\s*/?>\s*)+`)
)

// removeEmptyTags drops attribute-less elements with only whitespace inside,
// repeating until nested empties are gone.
func removeEmptyTags(data string) string {
	for {
		changed := false
		data = emptyTagPattern.ReplaceAllStringFunc(data, func(m string) string {
			sub := emptyTagPattern.FindStringSubmatch(m)
			if sub[1] != sub[2] {
				return m
			}
			changed = true
			return ""
		})
		if !changed {
			return data
		}
	}
}

func collapseLineBreaks(data string) string {
	return lineBreakRun.ReplaceAllString(data, "<br/>")
}
