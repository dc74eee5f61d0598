package filter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy describes what the sanitizer keeps. Empty fields in a policy file
// keep the defaults.
type Policy struct {
	AllowedTags             map[string][]string `yaml:"allowed_tags"`
	BlacklistedTags         []string            `yaml:"blacklisted_tags"`
	AllowedSchemes          []string            `yaml:"allowed_schemes"`
	ResourceAttributes      []string            `yaml:"resource_attributes"`
	BlockedMedia            []string            `yaml:"blocked_media"`
	RequiredAttributes      map[string][]string `yaml:"required_attributes"`
	InjectedAttributes      map[string]string   `yaml:"injected_attributes"`
	IntegerAttributes       []string            `yaml:"integer_attributes"`
	IframeOrigins           []string            `yaml:"iframe_origins"`
	StripBlacklistedSubtree bool                `yaml:"strip_blacklisted_subtree"`
}

func DefaultPolicy() *Policy {
	return &Policy{
		AllowedTags: map[string][]string{
			"audio":      {"controls", "src"},
			"video":      {"poster", "controls", "height", "width", "src"},
			"source":     {"src", "type"},
			"dt":         {},
			"dd":         {},
			"dl":         {},
			"table":      {},
			"caption":    {},
			"tr":         {},
			"th":         {},
			"td":         {},
			"tbody":      {},
			"thead":      {},
			"h2":         {},
			"h3":         {},
			"h4":         {},
			"h5":         {},
			"h6":         {},
			"strong":     {},
			"em":         {},
			"code":       {},
			"pre":        {},
			"blockquote": {},
			"p":          {},
			"ul":         {},
			"li":         {},
			"ol":         {},
			"br":         {},
			"del":        {},
			"a":          {"href"},
			"img":        {"src", "title", "alt"},
			"figure":     {},
			"figcaption": {},
			"cite":       {},
			"time":       {"datetime"},
			"abbr":       {"title"},
			"iframe":     {"width", "height", "frameborder", "src"},
			"q":          {"cite"},
		},
		BlacklistedTags: []string{"script"},
		AllowedSchemes: []string{
			"//",
			"data:image/png;base64,",
			"data:image/gif;base64,",
			"data:image/jpg;base64,",
			"bitcoin:",
			"callto:",
			"ed2k://",
			"facetime://",
			"feed:",
			"ftp://",
			"geo:",
			"git://",
			"http://",
			"https://",
			"irc://",
			"irc6://",
			"ircs://",
			"jabber:",
			"magnet:",
			"mailto:",
			"nntp://",
			"rtmp://",
			"sftp://",
			"sip:",
			"sips:",
			"skype:",
			"smb://",
			"sms:",
			"spotify:",
			"ssh:",
			"steam:",
			"svn://",
			"tel:",
		},
		ResourceAttributes: []string{"src", "href", "poster"},
		BlockedMedia: []string{
			"feeds.feedburner.com",
			"share.feedsportal.com",
			"da.feedsportal.com",
			"rss.feedsportal.com",
			"res.feedsportal.com",
			"res1.feedsportal.com",
			"res2.feedsportal.com",
			"res3.feedsportal.com",
			"pi.feedsportal.com",
			"rss.nytimes.com",
			"feeds.wordpress.com",
			"stats.wordpress.com",
			"rss.cnn.com",
			"twitter.com/home?status=",
			"twitter.com/share",
			"twitter_icon_large.png",
			"www.facebook.com/sharer.php",
			"facebook_icon_large.png",
			"plus.google.com/share",
			"www.gstatic.com/images/icons/gplus-16.png",
			"www.gstatic.com/images/icons/gplus-32.png",
			"www.gstatic.com/images/icons/gplus-64.png",
		},
		RequiredAttributes: map[string][]string{
			"a":      {"href"},
			"img":    {"src"},
			"iframe": {"src"},
			"audio":  {"src"},
			"source": {"src"},
		},
		InjectedAttributes: map[string]string{
			"a": `rel="noreferrer" target="_blank"`,
		},
		IntegerAttributes: []string{"width", "height", "frameborder"},
		IframeOrigins: []string{
			"//www.youtube.com",
			"http://www.youtube.com",
			"https://www.youtube.com",
			"http://player.vimeo.com",
			"https://player.vimeo.com",
			"http://www.dailymotion.com",
			"https://www.dailymotion.com",
		},
	}
}

// LoadPolicy reads a YAML policy file and merges it over the defaults.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var overrides Policy
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	policy := DefaultPolicy().merge(&overrides)
	if err := validatePolicy(policy); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}

	return policy, nil
}

func (p *Policy) merge(o *Policy) *Policy {
	if len(o.AllowedTags) > 0 {
		p.AllowedTags = o.AllowedTags
	}
	if len(o.BlacklistedTags) > 0 {
		p.BlacklistedTags = o.BlacklistedTags
	}
	if len(o.AllowedSchemes) > 0 {
		p.AllowedSchemes = o.AllowedSchemes
	}
	if len(o.ResourceAttributes) > 0 {
		p.ResourceAttributes = o.ResourceAttributes
	}
	if len(o.BlockedMedia) > 0 {
		p.BlockedMedia = o.BlockedMedia
	}
	if len(o.RequiredAttributes) > 0 {
		p.RequiredAttributes = o.RequiredAttributes
	}
	if len(o.InjectedAttributes) > 0 {
		p.InjectedAttributes = o.InjectedAttributes
	}
	if len(o.IntegerAttributes) > 0 {
		p.IntegerAttributes = o.IntegerAttributes
	}
	if len(o.IframeOrigins) > 0 {
		p.IframeOrigins = o.IframeOrigins
	}
	p.StripBlacklistedSubtree = o.StripBlacklistedSubtree
	return p
}

func validatePolicy(p *Policy) error {
	for tag := range p.AllowedTags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("allowed_tags contains an empty tag name")
		}
	}

	for tag, attrs := range p.InjectedAttributes {
		if strings.ContainsAny(attrs, "<>") {
			return fmt.Errorf("injected_attributes for %s must not contain markup", tag)
		}
	}

	for _, scheme := range p.AllowedSchemes {
		if strings.TrimSpace(scheme) == "" {
			return fmt.Errorf("allowed_schemes contains an empty scheme")
		}
	}

	return nil
}
