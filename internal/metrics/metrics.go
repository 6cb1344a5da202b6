package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Toggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_toggles_total",
		Help: "Edge toggles by kind and resulting state",
	}, []string{"kind", "state"})
	ToggleConflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_toggle_conflicts_total",
		Help: "Toggle inserts that lost a race on the edge key",
	}, []string{"kind"})
	SideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_side_effect_failures_total",
		Help: "Engagement side effects that failed after a video read",
	}, []string{"effect"})
	AggregationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamhub_aggregation_duration_seconds",
		Help:    "Derived view and feed query duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	FeedCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_feed_cache_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"})
	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_rate_limited_total",
		Help: "Requests rejected by the rate limiter by scope",
	}, []string{"scope"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamhub_http_requests_total",
		Help: "HTTP requests by method and status",
	}, []string{"method", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamhub_http_request_duration_seconds",
		Help:    "HTTP request duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(Toggles, ToggleConflicts, SideEffectFailures, AggregationDuration, FeedCache, RateLimited, HTTPRequests, HTTPDuration)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveAggregation records how long operation took since start.
func ObserveAggregation(operation string, start time.Time) {
	AggregationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncToggle counts a completed toggle.
func IncToggle(kind, state string) { Toggles.WithLabelValues(kind, state).Inc() }

// IncToggleConflict counts an insert that hit the unique key.
func IncToggleConflict(kind string) { ToggleConflicts.WithLabelValues(kind).Inc() }

// IncSideEffectFailure counts a failed engagement write.
func IncSideEffectFailure(effect string) { SideEffectFailures.WithLabelValues(effect).Inc() }

// IncRateLimited counts a request rejected by the limiter for scope.
func IncRateLimited(scope string) { RateLimited.WithLabelValues(scope).Inc() }

// IncFeedCache counts a feed cache hit, miss or error.
func IncFeedCache(result string) { FeedCache.WithLabelValues(result).Inc() }
