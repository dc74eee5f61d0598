package feed

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
)

var ErrUnsupportedFormat = errors.New("unsupported feed format")

type Format string

const (
	FormatUnknown Format = "unknown"
	FormatAtom    Format = "atom"
	FormatRSS     Format = "rss"
	FormatJSON    Format = "json"
)

// DetectFormat identifies the wire format from the root element (or JSON shape).
func DetectFormat(data []byte) Format {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeAtom:
		return FormatAtom
	case gofeed.FeedTypeRSS:
		return FormatRSS
	case gofeed.FeedTypeJSON:
		return FormatJSON
	default:
		return FormatUnknown
	}
}

func AdapterFor(format Format) (Adapter, error) {
	switch format {
	case FormatAtom:
		return AtomAdapter{}, nil
	case FormatRSS:
		return RSSAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
