package directory

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "hns"
)

var (
	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Subsystem: "directory",
			Name:      "rpc_calls_total",
			Help:      "contract reads and writes by method and result",
		},
		[]string{"method", "result"},
	)
	rpcLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricNameSpace,
			Subsystem: "directory",
			Name:      "rpc_call_seconds",
			Help:      "contract call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	probeCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Subsystem: "directory",
			Name:      "probes_total",
			Help:      "enumeration probes by outcome (entry, end, error)",
		},
		[]string{"method", "outcome"},
	)
	skippedLogs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Subsystem: "directory",
			Name:      "skipped_logs_total",
			Help:      "activity logs dropped because they could not be decoded",
		},
	)
)

func init() {
	prometheus.MustRegister(
		rpcCalls,
		rpcLatency,
		probeCount,
		skippedLogs,
	)
}

func metricCall(method string, err error, seconds float64) {
	result := "ok"
	switch {
	case err == nil:
	case isTimeout(err):
		result = "timeout"
	case isNoData(err):
		result = "nodata"
	default:
		result = "error"
	}
	rpcCalls.WithLabelValues(method, result).Inc()
	rpcLatency.WithLabelValues(method).Observe(seconds)
}
