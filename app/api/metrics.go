package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/lysyi3m/rss-sieve/app/client"
	"github.com/lysyi3m/rss-sieve/app/feed"
	"github.com/lysyi3m/rss-sieve/app/xmlparser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Parse results used as the "result" label.
const (
	resultOK          = "ok"
	resultMalformed   = "malformed"
	resultRejected    = "rejected"
	resultUnsupported = "unsupported"
	resultFetchError  = "fetch_error"
	resultNotModified = "not_modified"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	parseTotal    *prometheus.CounterVec
	parseDuration prometheus.Histogram
	itemsTotal    prometheus.Counter
	filteredTotal prometheus.Counter
	sanitizeTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		parseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rss_sieve",
			Name:      "parse_total",
			Help:      "Feed parse attempts by result",
		}, []string{"result"}),
		parseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rss_sieve",
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing and normalizing a feed document",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}),
		itemsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rss_sieve",
			Name:      "items_total",
			Help:      "Items produced by successful parses",
		}),
		filteredTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rss_sieve",
			Name:      "items_filtered_total",
			Help:      "Items dropped by feed keyword filters",
		}),
		sanitizeTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rss_sieve",
			Name:      "sanitize_total",
			Help:      "Standalone fragment sanitizations",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeParse(started time.Time, f *feed.Feed, err error) {
	m.parseDuration.Observe(time.Since(started).Seconds())
	m.parseTotal.WithLabelValues(parseResult(err)).Inc()
	if err == nil && f != nil {
		m.itemsTotal.Add(float64(len(f.Items)))
	}
}

func (m *Metrics) observeFetchError() {
	m.parseTotal.WithLabelValues(resultFetchError).Inc()
}

func (m *Metrics) observeNotModified() {
	m.parseTotal.WithLabelValues(resultNotModified).Inc()
}

func (m *Metrics) observeFiltered(n int) {
	if n > 0 {
		m.filteredTotal.Add(float64(n))
	}
}

func (m *Metrics) observeSanitize() {
	m.sanitizeTotal.Inc()
}

func parseResult(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, xmlparser.ErrEntityDeclared):
		return resultRejected
	case errors.Is(err, feed.ErrUnsupportedFormat):
		return resultUnsupported
	case errors.Is(err, errFetchFailed), errors.Is(err, client.ErrBodyTooLarge):
		return resultFetchError
	default:
		return resultMalformed
	}
}

// statusForParseError maps a parse failure to the HTTP status reported to
// API callers.
func statusForParseError(err error) int {
	switch parseResult(err) {
	case resultRejected:
		return http.StatusUnprocessableEntity
	case resultUnsupported:
		return http.StatusUnsupportedMediaType
	case resultFetchError:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}
