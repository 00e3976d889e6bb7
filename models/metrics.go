package models

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	worldCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "world_count",
		Help: "The number of running worlds.",
	})

	frameCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frame_count_total",
		Help: "The total number of dispatched frames.",
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frame_duration",
		Help:    "The time spent running the frame handlers, in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	entitySpawnTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "entity_spawn_total",
		Help: "The total number of spawned entities.",
	})
)

func instrumentIncreaseWorldGauge() {
	worldCount.Inc()
}

func instrumentDecreaseWorldGauge() {
	worldCount.Dec()
}

func instrumentFrame(start time.Time) {
	frameCountTotal.Inc()
	frameDuration.Observe(time.Since(start).Seconds())
}

func instrumentEntitySpawn() {
	entitySpawnTotal.Inc()
}
