package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var streamConnectionCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "stats_stream_connection_count",
	Help: "The number of clients connected to the stats stream.",
})

func instrumentStreamConnected() {
	streamConnectionCount.Inc()
}

func instrumentStreamDisconnected() {
	streamConnectionCount.Dec()
}
