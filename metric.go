package hns

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "hns"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "http requests by route and status",
		},
		[]string{"route", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricNameSpace,
			Subsystem: "api",
			Name:      "request_seconds",
			Help:      "http request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	tldCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "tlds",
			Help:      "tlds found by the last enumeration",
		},
	)
	archivedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Subsystem: "archive",
			Name:      "events_total",
			Help:      "activity events written to the archive",
		},
		[]string{"tld"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpLatency,
		tldCount,
		archivedEvents,
	)
}

func metricRequest(route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route).Observe(seconds)
}
