package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_gateway_requests_total",
			Help: "Total number of requests sent to the storefront API",
		},
		[]string{"method", "route", "status"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_gateway_request_duration_seconds",
			Help:    "Storefront API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	navigationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_navigation_total",
			Help: "Page transitions by requested and committed page",
		},
		[]string{"requested", "committed"},
	)
)

type routeKey struct{}

// WithRoute tags outgoing requests made with ctx with a route template such
// as "/cart/{userId}", keeping label cardinality bounded.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(r *http.Request) string {
	if route, ok := r.Context().Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Transport instruments every request passing through next.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		route := routeFrom(r)

		resp, err := next.RoundTrip(r)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}

		gatewayRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		gatewayRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())

		return resp, err
	})
}

func RecordNavigation(requested, committed string) {
	navigationTotal.WithLabelValues(requested, committed).Inc()
}
