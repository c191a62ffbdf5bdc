package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "footstats_http_requests_total",
			Help: "Outbound requests to statistics sources by host and status",
		},
		[]string{"host", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "footstats_http_request_duration_seconds",
			Help:    "Time taken by outbound requests to statistics sources",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

func observe(host string, status string, start time.Time) {
	requestsTotal.WithLabelValues(host, status).Inc()
	requestDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
}
