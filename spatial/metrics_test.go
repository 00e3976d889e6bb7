package spatial

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestManagerMetrics(t *testing.T) {
	gauge := spatialObjectCount.WithLabelValues(string(TypeSegment))

	t.Run("object count follows the manager", func(t *testing.T) {
		before := testutil.ToFloat64(gauge)

		m := NewManager[string]()
		m.AddObject(newObject(1, 0, 0, 2, 2, TypeSegment))
		m.AddObject(newObject(2, 5, 0, 2, 2, TypeSegment))
		require.Equal(t, before+2, testutil.ToFloat64(gauge))

		m.RemoveObject(1)
		require.Equal(t, before+1, testutil.ToFloat64(gauge))

		m.Clear()
		require.Equal(t, before, testutil.ToFloat64(gauge))
	})

	t.Run("manager without metrics is not counted", func(t *testing.T) {
		before := testutil.ToFloat64(gauge)
		removals := testutil.ToFloat64(spatialMutationsTotal.WithLabelValues("remove"))

		m := NewManager[string](WithoutMetrics())
		m.AddObject(newObject(1, 0, 0, 2, 2, TypeSegment))
		m.AddObject(newObject(2, 5, 0, 2, 2, TypeSegment))
		m.RemoveObject(2)
		require.Equal(t, before, testutil.ToFloat64(gauge))
		require.Equal(t, removals, testutil.ToFloat64(spatialMutationsTotal.WithLabelValues("remove")))
	})
}
