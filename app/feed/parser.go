package feed

import (
	"cmp"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lysyi3m/rss-sieve/app/filter"
	"github.com/lysyi3m/rss-sieve/app/xmlparser"
)

// Sanitizer reduces item content to safe markup.
type Sanitizer interface {
	Sanitize(fragment, baseURL string) string
}

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDExclusions adds feed URLs or hosts whose URL is left out of item IDs.
func WithIDExclusions(exclusions []string) Option {
	return func(p *Parser) {
		p.idExclusions = append(p.idExclusions, exclusions...)
	}
}

// WithEntityPrescan rejects any input containing an entity declaration marker.
func WithEntityPrescan(enabled bool) Option {
	return func(p *Parser) {
		p.rejectEntities = enabled
	}
}

type Parser struct {
	sanitizer      Sanitizer
	logger         *slog.Logger
	idExclusions   []string
	rejectEntities bool

	mu          sync.Mutex
	diagnostics []xmlparser.Diagnostic
}

func NewParser(sanitizer Sanitizer, opts ...Option) *Parser {
	if sanitizer == nil {
		sanitizer = filter.New(nil)
	}
	p := &Parser{
		sanitizer: sanitizer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run parses a raw feed document into the normalized model. encoding is the
// charset reported by the transport ("" when unknown); fetchURL is where the
// document came from and serves as the feed URL when the document has none.
func (p *Parser) Run(data []byte, encoding, fetchURL string) (*Feed, error) {
	label := cmp.Or(strings.ToLower(strings.TrimSpace(encoding)), xmlparser.DetectDeclaredEncoding(data))
	utf8Data, err := xmlparser.ToUTF8(data, label)
	if err != nil {
		p.logger.Warn("Using document bytes as UTF-8", "url", fetchURL, "encoding", label, "error", err)
	}

	format := DetectFormat(utf8Data)
	if format == FormatJSON {
		p.setDiagnostics(nil)
		return nil, fmt.Errorf("failed to parse feed: %w: %s", ErrUnsupportedFormat, format)
	}

	loader := xmlparser.NewLoader(xmlparser.Options{RejectEntityDeclarations: p.rejectEntities})
	doc, err := loader.Load(utf8Data)
	p.setDiagnostics(loader.Diagnostics())
	if err != nil {
		p.logger.Debug("Feed rejected", "url", fetchURL, "error", err)
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	adapter, err := AdapterFor(format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feed := p.build(adapter, doc.Root(), utf8Data, fetchURL)
	p.logger.Debug("Feed parsed", "url", feed.URL, "format", format, "items", len(feed.Items))

	return feed, nil
}

// Diagnostics returns the loader diagnostics of the most recent Run.
func (p *Parser) Diagnostics() []xmlparser.Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]xmlparser.Diagnostic(nil), p.diagnostics...)
}

func (p *Parser) setDiagnostics(diagnostics []xmlparser.Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.diagnostics = diagnostics
}

func (p *Parser) build(a Adapter, root *xmlparser.Node, raw []byte, fetchURL string) *Feed {
	entries := a.Items(root)

	feed := &Feed{}
	feed.URL = a.FeedURL(root)
	if feed.URL == "" {
		feed.URL = fetchURL
	} else if fetchURL != "" && filter.IsRelativePath(feed.URL) {
		feed.URL = filter.ResolveAbsolute(feed.URL, fetchURL)
	}
	feed.Title = cmp.Or(a.FeedTitle(root), feed.URL)
	feed.Language = a.FeedLanguage(root, raw)
	feed.ID = a.FeedID(root)
	feed.Date = a.FeedDate(root)

	feedAuthor := a.FeedAuthor(root)
	feedPermalink := feed.URL
	if isExcludedFromID(feed.URL, p.idExclusions) {
		feedPermalink = ""
	}

	feed.Items = make([]Item, 0, len(entries))
	for _, entry := range entries {
		feed.Items = append(feed.Items, p.buildItem(a, entry, feed, feedAuthor, feedPermalink))
	}

	return feed
}

func (p *Parser) buildItem(a Adapter, entry *xmlparser.Node, feed *Feed, feedAuthor, feedPermalink string) Item {
	item := Item{}

	item.URL = a.ItemURL(entry)
	if item.URL != "" && filter.IsRelativePath(item.URL) {
		item.URL = filter.ResolveAbsolute(item.URL, feed.URL)
	}
	item.Title = cmp.Or(a.ItemTitle(entry), item.URL)
	item.Date = a.ItemDate(entry)
	item.Author = cmp.Or(a.ItemAuthor(entry), feedAuthor)
	item.Content = p.sanitizer.Sanitize(a.ItemContent(entry), contentBase(item.URL, feed.URL))

	enclosureURL, enclosureType := a.ItemEnclosure(entry)
	if enclosureURL != "" && filter.IsRelativePath(enclosureURL) {
		enclosureURL = filter.ResolveAbsolute(enclosureURL, feed.URL)
	}
	if enclosureURL != "" {
		item.EnclosureURL, item.EnclosureType = enclosureURL, enclosureType
	}

	item.Language = a.ItemLanguage(entry, feed.Language)
	item.ID = GenerateStableID(a.ItemPermalink(entry, item.URL), feedPermalink)

	return item
}

// contentBase picks the base for relative links in item content: the item
// URL when it is a web URL, else the feed URL when that is one, else "".
func contentBase(itemURL, feedURL string) string {
	for _, candidate := range []string{itemURL, feedURL} {
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return candidate
		}
	}
	return ""
}
