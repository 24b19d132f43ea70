package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the service's prometheus collectors.
type Metrics struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec

	InquiriesSubmitted prometheus.Counter
	RiskRejected       prometheus.Counter
	RateLimited        prometheus.Counter
	SMSSent            *prometheus.CounterVec
}

// NewMetrics registers collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		errorCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_errors_total",
				Help: "Total number of HTTP requests that ended in a domain error",
			},
			[]string{"handler", "method", "code"},
		),
		InquiriesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inquiries_submitted_total",
			Help: "Total number of accepted public submissions",
		}),
		RiskRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inquiries_risk_rejected_total",
			Help: "Total number of submissions rejected by the risk verdict",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		SMSSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_sent_total",
				Help: "Total number of SMS gateway calls by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.InquiriesSubmitted,
		m.RiskRejected,
		m.RateLimited,
		m.SMSSent,
	)
	return m
}

// RecordRequest counts one handled request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts one request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}
