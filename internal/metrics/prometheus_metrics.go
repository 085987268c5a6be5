package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lablabs/countries-explorer/internal/logging"
)

// MetricName represent metric name
type MetricName string

func (mn MetricName) String() string {
	return string(mn)
}

const (
	graphqlRequestsTotalMetricName   MetricName = "countries_graphql_requests_total"
	graphqlRequestDurationMetricName MetricName = "countries_graphql_request_duration_seconds"
	httpRoundTripsMetricName         MetricName = "countries_http_round_trips_total"
	cacheReadsMetricName             MetricName = "countries_cache_reads_total"
	cacheEntitiesMetricName          MetricName = "countries_cache_entities"
	staleResultsMetricName           MetricName = "countries_stale_results_discarded_total"
	dedupedRequestsMetricName        MetricName = "countries_deduplicated_requests_total"
)

// Outcome labels for GraphQL requests.
const (
	OutcomeSuccess      = "success"
	OutcomeGraphQLError = "graphql_error"
	OutcomeNetworkError = "network_error"
)

// Set map to check metric name availability.
type Set map[MetricName]struct{}

// Has function check and return bool for metric availability.
func (ms Set) Has(mn MetricName) bool {
	_, exists := ms[mn]
	return exists
}

// Add function add metric name.
func (ms Set) Add(mn MetricName) {
	ms[mn] = struct{}{}
}

var (
	graphqlRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: graphqlRequestsTotalMetricName.String(),
		Help: "Number of GraphQL operations sent to the endpoint",
	}, []string{"operation", "outcome"},
	)

	graphqlRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    graphqlRequestDurationMetricName.String(),
		Help:    "Duration of GraphQL operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"},
	)

	httpRoundTrips = prometheus.NewCounter(prometheus.CounterOpts{
		Name: httpRoundTripsMetricName.String(),
		Help: "Number of HTTP round trips issued by the transport",
	})

	cacheReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: cacheReadsMetricName.String(),
		Help: "Number of normalized cache reads per operation and result",
	}, []string{"operation", "result"},
	)

	cacheEntities = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: cacheEntitiesMetricName.String(),
		Help: "Number of entities held in the normalized cache",
	})

	staleResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: staleResultsMetricName.String(),
		Help: "Number of results discarded because a newer request superseded them",
	}, []string{"operation"},
	)

	dedupedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: dedupedRequestsMetricName.String(),
		Help: "Number of network requests served by an identical in-flight request",
	}, []string{"operation"},
	)
)

// BuildAllMetricsSet returns every metric this service exposes.
func BuildAllMetricsSet() Set {
	allMetricsSet := Set{}
	allMetricsSet.Add(graphqlRequestsTotalMetricName)
	allMetricsSet.Add(graphqlRequestDurationMetricName)
	allMetricsSet.Add(httpRoundTripsMetricName)
	allMetricsSet.Add(cacheReadsMetricName)
	allMetricsSet.Add(cacheEntitiesMetricName)
	allMetricsSet.Add(staleResultsMetricName)
	allMetricsSet.Add(dedupedRequestsMetricName)
	return allMetricsSet
}

// BuildDeniedMetricsSet validates metricsDenylist against the known metrics.
func BuildDeniedMetricsSet(metricsDenylist []string) (Set, error) {
	deniedMetricsSet := Set{}
	allMetricsSet := BuildAllMetricsSet()
	for _, metric := range metricsDenylist {
		if !allMetricsSet.Has(MetricName(metric)) {
			return nil, fmt.Errorf("metric %s doesn't exists", metric)
		}
		deniedMetricsSet.Add(MetricName(metric))
	}
	return deniedMetricsSet, nil
}

// MustRegisterMetrics registers every metric not in deniedMetrics with the
// default registry.
func MustRegisterMetrics(deniedMetrics Set) {
	collectors := map[MetricName]prometheus.Collector{
		graphqlRequestsTotalMetricName:   graphqlRequestsTotal,
		graphqlRequestDurationMetricName: graphqlRequestDuration,
		httpRoundTripsMetricName:         httpRoundTrips,
		cacheReadsMetricName:             cacheReads,
		cacheEntitiesMetricName:          cacheEntities,
		staleResultsMetricName:           staleResults,
		dedupedRequestsMetricName:        dedupedRequests,
	}
	for name, collector := range collectors {
		if deniedMetrics.Has(name) {
			logging.Debug("Metric denied, not registering", map[string]interface{}{"metric": name.String()})
			continue
		}
		prometheus.MustRegister(collector)
	}
}

// ObserveGraphQLRequest records one GraphQL operation against the endpoint.
func ObserveGraphQLRequest(operation, outcome string, took time.Duration) {
	graphqlRequestsTotal.WithLabelValues(operation, outcome).Inc()
	graphqlRequestDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// IncHTTPRoundTrip records one HTTP round trip.
func IncHTTPRoundTrip() {
	httpRoundTrips.Inc()
}

// ObserveCacheRead records a cache hit or miss for operation.
func ObserveCacheRead(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheReads.WithLabelValues(operation, result).Inc()
}

// SetCacheEntities records the current number of cached entities.
func SetCacheEntities(n int) {
	cacheEntities.Set(float64(n))
}

// IncStaleResult records a discarded stale result.
func IncStaleResult(operation string) {
	staleResults.WithLabelValues(operation).Inc()
}

// IncDedupedRequest records a request that joined an in-flight one.
func IncDedupedRequest(operation string) {
	dedupedRequests.WithLabelValues(operation).Inc()
}
