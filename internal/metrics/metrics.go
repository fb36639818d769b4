package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blogit",
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogit",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blogit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// VotesTotal counts vote casts by the transition they caused:
	// cast, retract, switch or noop.
	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogit",
			Name:      "votes_total",
			Help:      "Vote casts by resulting transition.",
		},
		[]string{"transition"},
	)

	// ReconciledPostsTotal counts posts whose stored tallies had drifted
	// from their votes and were rewritten.
	ReconciledPostsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blogit",
		Name:      "reconciled_posts_total",
		Help:      "Posts whose vote counters were corrected by reconciliation.",
	})
)

// Register adds every BlogIt collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		HTTPInFlight,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		VotesTotal,
		ReconciledPostsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
