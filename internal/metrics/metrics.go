package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts inbound requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// CarrierCalls counts outbound carrier call attempts by carrier, endpoint, and outcome
	CarrierCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "carrier_calls_total", Help: "Carrier API call attempts by carrier, endpoint, and status."},
		[]string{"carrier", "endpoint", "status"},
	)
	// CarrierLatency tracks carrier call latencies in milliseconds
	CarrierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "carrier_call_latency_ms", Help: "Carrier API call latency in ms.", Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}},
		[]string{"carrier", "endpoint"},
	)
	// QuoteFallbacks counts estimates synthesized after carrier call failures
	QuoteFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_fallbacks_total", Help: "Fallback quote estimates by carrier."},
		[]string{"carrier"},
	)
	// CacheLookups counts cache hits and misses on carrier responses
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_cache_lookups_total", Help: "Carrier response cache lookups by outcome."},
		[]string{"endpoint", "outcome"},
	)
	// WebhookDeliveries counts webhook delivery outcomes by event type and status
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_deliveries_total", Help: "Webhook deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(CarrierCalls)
		Registry.MustRegister(CarrierLatency)
		Registry.MustRegister(QuoteFallbacks)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(WebhookDeliveries)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
