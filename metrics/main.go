package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "terminal"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by method and status class",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, dominated by the Stripe round trip",
			Buckets: []float64{
				0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5,
				0.8, 1.2, 2, 3, 5, 10,
			},
		},
		[]string{"method", "status"},
	)

	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Stripe API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, GatewayCallsTotal)
}

// StatusClass collapses a status code to "2xx", "4xx" and so on.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func ObserveRequest(method string, code int, seconds float64) {
	class := StatusClass(code)
	HTTPRequestsTotal.WithLabelValues(method, class).Inc()
	HTTPRequestDuration.WithLabelValues(method, class).Observe(seconds)
}

func ObserveGatewayCall(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	GatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
}
