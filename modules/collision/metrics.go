package collision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contactCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collision_contact_count",
		Help: "The number of overlapping entity pairs on the last frame.",
	})

	contactBeganTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collision_contact_began_total",
		Help: "The total number of contacts that began.",
	})
)

func instrumentContacts(current, began int) {
	contactCount.Set(float64(current))
	contactBeganTotal.Add(float64(began))
}
