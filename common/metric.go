package common

import (
	"net/http"

	_ "github.com/mkevac/debugcharts" // registers /debug/charts on the default mux
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = NewLog("common")

// NewMetricServer serves /metrics and /debug/charts on port, e.g. ":9000".
func NewMetricServer(port string) {
	if port == "" {
		return
	}
	log.Info("Starting metric server", "listen", port)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(port, nil); err != nil {
			log.Error("metric server stopped", "err", err)
		}
	}()
}
