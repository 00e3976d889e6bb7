package spatial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	objectTypeLabel = "object_type"
	operationLabel  = "operation"
	queryLabel      = "query"
)

var (
	spatialObjectCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spatial_object_count",
		Help: "The number of indexed objects.",
	}, []string{objectTypeLabel})

	spatialMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spatial_mutations_total",
		Help: "The total number of index mutations.",
	}, []string{operationLabel})

	spatialQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatial_query_latency",
		Help:    "The time to answer a spatial query.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{queryLabel})

	spatialStaleTreeEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spatial_stale_tree_entries",
		Help: "The number of tree entries that could not be found when removing or moving an object.",
	})
)

// instruments reports the activity of a manager to the process metrics.
// Managers built WithoutMetrics report nothing.
type instruments struct {
	disabled bool
}

func (i instruments) objectAdded(t ObjectType) {
	if i.disabled {
		return
	}

	spatialObjectCount.
		With(prometheus.Labels{objectTypeLabel: string(t)}).
		Inc()
}

func (i instruments) objectRemoved(t ObjectType) {
	if i.disabled {
		return
	}

	spatialObjectCount.
		With(prometheus.Labels{objectTypeLabel: string(t)}).
		Dec()
}

func (i instruments) objectsCleared(byType map[ObjectType]int) {
	if i.disabled {
		return
	}

	for t, n := range byType {
		spatialObjectCount.
			With(prometheus.Labels{objectTypeLabel: string(t)}).
			Sub(float64(n))
	}
}

func (i instruments) mutation(operation string) {
	if i.disabled {
		return
	}

	spatialMutationsTotal.
		With(prometheus.Labels{operationLabel: operation}).
		Inc()
}

func (i instruments) queryLatency(query string, start time.Time) {
	if i.disabled {
		return
	}

	spatialQueryLatency.
		With(prometheus.Labels{queryLabel: query}).
		Observe(time.Since(start).Seconds())
}

func (i instruments) staleTreeEntry() {
	if i.disabled {
		return
	}

	spatialStaleTreeEntries.Inc()
}
