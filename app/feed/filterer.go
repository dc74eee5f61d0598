package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops the items rejected by the feed's keyword filters and caps the
// result at the configured maximum.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if excluded, reason := f.applyFilters(item, feedConfig.Filters); excluded {
			slog.Debug("Item filtered", "feed", feedConfig.Name, "item", item.URL, "reason", reason)
			continue
		}
		kept = append(kept, item)
	}

	if maxItems := feedConfig.Settings.MaxItems; maxItems > 0 && len(kept) > maxItems {
		kept = kept[:maxItems]
	}

	return kept
}

func (f *Filterer) applyFilters(item Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item Item, field string) string {
	switch field {
	case "title":
		return item.Title
	case "content":
		return item.Content
	case "author":
		return item.Author
	case "url":
		return item.URL
	default:
		return ""
	}
}
