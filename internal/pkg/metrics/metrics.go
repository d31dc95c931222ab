package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry collects every tripdash metric. The status server exposes it on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// GatewayRequestsTotal counts gateway calls made by the client.
	// code is the HTTP status, or "error" for transport failures.
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdash_gateway_requests_total",
			Help: "Total number of requests sent to the telemetry gateway.",
		},
		[]string{"method", "resource", "code"},
	)

	// GatewayRequestLatency records client-side round trip time.
	GatewayRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripdash_gateway_request_duration_seconds",
			Help:    "Latency of requests sent to the telemetry gateway.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	// StaleResponsesTotal counts page results dropped because the filter changed
	// while the request was in flight.
	StaleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdash_stale_page_responses_total",
			Help: "Page responses discarded after a filter change.",
		},
		[]string{"list"},
	)

	// FakeAPIRequestsTotal counts requests served by the development gateway.
	FakeAPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripdash_fakeapi_requests_total",
			Help: "Requests served by the in-memory development gateway.",
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	Registry.MustRegister(GatewayRequestsTotal)
	Registry.MustRegister(GatewayRequestLatency)
	Registry.MustRegister(StaleResponsesTotal)
	Registry.MustRegister(FakeAPIRequestsTotal)
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
