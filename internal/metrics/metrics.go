// Package metrics holds the Prometheus instruments for quoting, location
// checks and the HTTP API. All methods are no-ops on a nil *Metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote outcomes.
const (
	OutcomeQuoted   = "quoted"
	OutcomeNotReady = "not_ready"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the rating service.
type Metrics struct {
	QuotesTotal        *prometheus.CounterVec
	QuoteDuration      prometheus.Histogram
	FinalPremium       prometheus.Histogram
	LocationMismatches *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	RateLimited        prometheus.Counter
}

// New registers every instrument with reg. Pass prometheus.NewRegistry()
// in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QuotesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_quotes_total",
			Help: "Quote requests by plan and outcome",
		}, []string{"plan", "outcome"}),
		QuoteDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_quote_duration_seconds",
			Help:    "Time to check, price and compare one profile",
			Buckets: durationBuckets,
		}),
		FinalPremium: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rating_final_premium_rupees",
			Help:    "Final premium before tax of issued quotes",
			Buckets: []float64{2500, 5000, 7500, 10000, 15000, 20000, 30000},
		}),
		LocationMismatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_location_mismatches_total",
			Help: "Postal codes rejected for their claimed region, by reason",
		}, []string{"reason"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rating_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rating_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: durationBuckets,
		}, []string{"route"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "rating_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveQuote records one quote attempt. Call with time.Now() at the
// start of the operation; premium is ignored unless outcome is quoted.
func (m *Metrics) ObserveQuote(plan, outcome string, premium int64, start time.Time) {
	if m == nil {
		return
	}
	if plan == "" {
		plan = "none"
	}
	m.QuotesTotal.WithLabelValues(plan, outcome).Inc()
	m.QuoteDuration.Observe(time.Since(start).Seconds())
	if outcome == OutcomeQuoted {
		m.FinalPremium.Observe(float64(premium))
	}
}

// IncLocationMismatch records a rejected postal code.
func (m *Metrics) IncLocationMismatch(reason string) {
	if m == nil {
		return
	}
	m.LocationMismatches.WithLabelValues(reason).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

// IncRateLimited records a request rejected by the limiter.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
