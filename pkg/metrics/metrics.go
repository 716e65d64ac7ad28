package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "bessleague_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	fetchPages   *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec

	streamFailures *prometheus.CounterVec

	auctionUnmapped prometheus.Counter

	buildTotal   *prometheus.CounterVec
	buildLatency *prometheus.HistogramVec
	buildStale   prometheus.Counter

	exportTotal *prometheus.CounterVec
)

// Init registers the metrics with the default registry. It is safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		fetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_total",
				Help: "Total upstream fetches by provider, endpoint and result",
			},
			[]string{"provider", "endpoint", "result"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_latency_seconds",
				Help:    "Upstream fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "endpoint"},
		)
		fetchPages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_pages_total",
				Help: "Total paginated upstream pages fetched by endpoint",
			},
			[]string{"endpoint"},
		)

		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_lookups_total",
				Help: "Total fetch cache lookups by stream and outcome",
			},
			[]string{"stream", "outcome"},
		)

		streamFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stream_failures_total",
				Help: "Total revenue stream failures by stream and kind",
			},
			[]string{"stream", "kind"},
		)

		auctionUnmapped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "auction_unmapped_records_total",
				Help: "Total auction records dropped because their unit is not a known asset",
			},
		)

		buildTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "build_total",
				Help: "Total leaderboard builds by result",
			},
			[]string{"result"},
		)
		buildLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "build_latency_seconds",
				Help:    "Leaderboard build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		buildStale = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "build_stale_total",
				Help: "Total leaderboard builds discarded because a newer date was requested",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total leaderboard exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			fetchTotal,
			fetchLatency,
			fetchPages,
			cacheLookups,
			streamFailures,
			auctionUnmapped,
			buildTotal,
			buildLatency,
			buildStale,
			exportTotal,
		)
	})
}

// ObserveFetch records an upstream request's latency and result.
func ObserveFetch(provider, endpoint, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if fetchTotal != nil {
		fetchTotal.WithLabelValues(provider, endpoint, result).Inc()
	}
	if fetchLatency != nil {
		fetchLatency.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
	}
}

// IncFetchPage increments the page counter for a paginated endpoint.
func IncFetchPage(endpoint string) {
	if fetchPages != nil {
		fetchPages.WithLabelValues(endpoint).Inc()
	}
}

// ObserveCache records a cache hit or miss for a stream.
func ObserveCache(stream string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	if cacheLookups != nil {
		cacheLookups.WithLabelValues(stream, outcome).Inc()
	}
}

// IncStreamFailure increments the failure counter for a revenue stream.
func IncStreamFailure(stream, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if streamFailures != nil {
		streamFailures.WithLabelValues(stream, kind).Inc()
	}
}

// AddAuctionUnmapped adds dropped auction records.
func AddAuctionUnmapped(count int) {
	if count <= 0 {
		return
	}
	if auctionUnmapped != nil {
		auctionUnmapped.Add(float64(count))
	}
}

// ObserveBuild records a leaderboard build's latency and result.
func ObserveBuild(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if buildTotal != nil {
		buildTotal.WithLabelValues(result).Inc()
	}
	if buildLatency != nil {
		buildLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncBuildStale counts a build whose result was discarded.
func IncBuildStale() {
	if buildStale != nil {
		buildStale.Inc()
	}
}

// IncExport counts an export by format and result.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}
