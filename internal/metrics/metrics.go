// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcat_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wildcat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"route"},
	)

	// CodesSent counts login codes by outcome (sent, refused, failed).
	CodesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcat_login_codes_total",
			Help: "Login code requests by outcome.",
		},
		[]string{"outcome"},
	)

	// Logins counts code verifications by outcome.
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcat_logins_total",
			Help: "Login code verifications by outcome.",
		},
		[]string{"outcome"},
	)

	// ListingsCreated counts new listings by category.
	ListingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcat_listings_created_total",
			Help: "Listings created by category.",
		},
		[]string{"category"},
	)

	// ListingTransitions counts status changes (Sold, Archived).
	ListingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildcat_listing_transitions_total",
			Help: "Listing status transitions by target status.",
		},
		[]string{"status"},
	)

	// PhotosUploaded counts stored photos.
	PhotosUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wildcat_photos_uploaded_total",
			Help: "Listing photos written to the object store.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request. Route is the matched
// ServeMux pattern so that IDs don't explode the label space.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
