package traffic

import (
	"testing"
	"time"

	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
	"github.com/stretchr/testify/require"
)

func newTestModule(w *models.World) *Module {
	m := &Module{
		Entities:  8,
		WorldSize: 100,
		MaxSpeed:  10,
		Seed:      42,
	}
	m.Init(w)
	return m
}

func TestModuleInit(t *testing.T) {
	w := models.NewWorld(time.Second)
	defer w.Close()

	m := newTestModule(w)
	require.Equal(t, "traffic", m.Name())
	require.Equal(t, 8, w.Spatial.Len())
	require.Equal(t, spatial.Stats{
		TotalObjects: 8,
		ObjectsByType: map[spatial.ObjectType]int{
			spatial.TypeVehicle:  2,
			spatial.TypeAgent:    2,
			spatial.TypeFacility: 2,
			spatial.TypeSegment:  2,
		},
	}, w.Spatial.GetStats())

	for _, o := range w.Spatial.Objects() {
		require.LessOrEqual(t, o.X, 50.0)
		require.GreaterOrEqual(t, o.X, -50.0)
		require.Equal(t, "traffic", o.Data.Owner)
	}

	t.Run("state is shared between module instances", func(t *testing.T) {
		newTestModule(w)
		require.Equal(t, 8, w.Spatial.Len())
	})
}

func TestModuleHandleFrame(t *testing.T) {
	w := models.NewWorld(time.Second)
	defer w.Close()

	m := newTestModule(w)

	before := make(map[int]spatial.Position)
	for _, o := range w.Spatial.Objects() {
		before[o.ID] = o.Position()
	}

	for i := 0; i < 50; i++ {
		m.HandleFrame()
	}
	require.NoError(t, w.Spatial.Verify())

	for _, o := range w.Spatial.Objects() {
		v, ok := m.state.Velocity(o.ID)
		require.True(t, ok)

		switch o.Type {
		case spatial.TypeFacility, spatial.TypeSegment:
			require.True(t, v.IsZero())
			require.Equal(t, before[o.ID], o.Position())

		default:
			require.False(t, v.IsZero())
			require.NotEqual(t, before[o.ID], o.Position())
		}

		require.LessOrEqual(t, o.X, 50.0)
		require.GreaterOrEqual(t, o.X, -50.0)
		require.LessOrEqual(t, o.Z, 50.0)
		require.GreaterOrEqual(t, o.Z, -50.0)
	}
}

func TestModuleHandleFrameDespawnedEntity(t *testing.T) {
	w := models.NewWorld(time.Second)
	defer w.Close()

	m := newTestModule(w)
	require.True(t, w.Despawn(1))

	m.HandleFrame()
	_, ok := m.state.Velocity(1)
	require.False(t, ok)
	require.Equal(t, 7, m.state.Len())
	require.NoError(t, w.Spatial.Verify())
}

func TestModuleHandleClose(t *testing.T) {
	w := models.NewWorld(time.Second)
	defer w.Close()

	w.Spawn(models.EntityObject{Type: spatial.TypeFacility, Width: 2, Depth: 2})

	m := newTestModule(w)
	require.Equal(t, 9, w.Spatial.Len())

	m.HandleClose()
	require.Equal(t, 1, w.Spatial.Len())
	require.Zero(t, m.state.Len())
}

func TestBounce(t *testing.T) {
	pos, v := bounce(60, 3, 50)
	require.Equal(t, 50.0, pos)
	require.Equal(t, -3.0, v)

	pos, v = bounce(-60, -3, 50)
	require.Equal(t, -50.0, pos)
	require.Equal(t, 3.0, v)

	pos, v = bounce(10, -3, 50)
	require.Equal(t, 10.0, pos)
	require.Equal(t, -3.0, v)
}
