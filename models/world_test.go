package models

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushhourgame/spatial/spatial"
	"github.com/stretchr/testify/require"
)

func newVehicle(x, z float64) EntityObject {
	return EntityObject{
		X:     x,
		Z:     z,
		Width: 4,
		Depth: 2,
		Type:  spatial.TypeVehicle,
		Data:  Entity{Name: "bus"},
	}
}

func TestWorldSpawn(t *testing.T) {
	w := NewWorld(time.Second)
	defer w.Close()

	idA := w.Spawn(newVehicle(5, 5))
	idB := w.Spawn(newVehicle(20, 5))
	require.Equal(t, 1, idA)
	require.Equal(t, 2, idB)
	require.Equal(t, 2, w.Spatial.Len())

	o, ok := w.Spatial.GetObject(idA)
	require.True(t, ok)
	require.Equal(t, "bus", o.Data.Name)
	require.False(t, o.Data.CreatedAt.IsZero())
	require.NoError(t, w.Spatial.Verify())
}

func TestWorldDespawn(t *testing.T) {
	w := NewWorld(time.Second)
	defer w.Close()

	id := w.Spawn(newVehicle(5, 5))
	w.Spawn(newVehicle(20, 5))

	t.Run("entity is removed", func(t *testing.T) {
		require.True(t, w.Despawn(id))
		require.Empty(t, w.Spatial.QueryPoint(5, 5))
		require.Equal(t, 1, w.Spatial.Len())
	})

	t.Run("entity is not found", func(t *testing.T) {
		require.False(t, w.Despawn(id))
	})

	t.Run("id is reused", func(t *testing.T) {
		require.Equal(t, id, w.Spawn(newVehicle(50, 50)))
		require.NoError(t, w.Spatial.Verify())
	})
}

func TestWorldModuleState(t *testing.T) {
	t.Run("module state is found", func(t *testing.T) {
		w := NewWorld(time.Second)
		defer w.Close()

		stateA := 42
		w.SetModuleState("testModule", stateA)

		stateB, ok := w.ModuleState("testModule")
		require.True(t, ok)
		require.Equal(t, stateA, stateB)
	})

	t.Run("module state is not found", func(t *testing.T) {
		w := NewWorld(time.Second)
		defer w.Close()

		state, ok := w.ModuleState("testModule")
		require.False(t, ok)
		require.Nil(t, state)
	})
}

func TestWorldHandleFrame(t *testing.T) {
	w := NewWorld(time.Millisecond * 5)
	defer w.Close()

	cancel := w.HandleFrame(func() {})
	require.Len(t, w.frameHandlers, 1)

	cancel()
	require.Empty(t, w.frameHandlers)

	// Cancelling twice does not remove a handler that got the same id.
	other := w.HandleFrame(func() {})
	defer other()
	cancel()
	require.Len(t, w.frameHandlers, 1)
}

func TestWorldDispatchFrame(t *testing.T) {
	w := NewWorld(time.Hour)
	defer w.Close()

	var calls []int
	w.HandleFrame(func() { calls = append(calls, 1) })

	var cancelSecond func()
	cancelSecond = w.HandleFrame(func() {
		calls = append(calls, 2)
		cancelSecond()
	})

	w.dispatchFrame()
	w.dispatchFrame()
	require.Equal(t, []int{1, 2, 1}, calls)
	require.Equal(t, uint64(2), w.Frame())
}

func TestWorldStartDispatchFrames(t *testing.T) {
	w := NewWorld(time.Millisecond * 5)

	var once sync.Once
	done := make(chan struct{})

	go w.StartDispatchFrames()

	w.HandleFrame(func() {
		once.Do(func() {
			close(done)
		})
	})

	<-done
	w.Close()
	require.NotZero(t, w.Frame())
}

func TestWorldDo(t *testing.T) {
	w := NewWorld(time.Millisecond)
	defer w.Close()

	id := w.Spawn(newVehicle(0, 0))

	// Moves made during a frame are never observed halfway.
	w.HandleFrame(func() {
		w.Spatial.UpdateObject(id, spatial.Position{X: 100})
		w.Spatial.UpdateObject(id, spatial.Position{})
	})
	go w.StartDispatchFrames()

	for i := 0; i < 20; i++ {
		w.Do(func(m *spatial.Manager[Entity]) {
			o, ok := m.GetObject(id)
			require.True(t, ok)
			require.Zero(t, o.X)
			require.NoError(t, m.Verify())
		})
		time.Sleep(time.Millisecond)
	}
}

func TestWorldCloseWaitsForFrame(t *testing.T) {
	w := NewWorld(time.Millisecond)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool

	w.HandleFrame(func() {
		once.Do(func() {
			close(started)
			<-release
			finished.Store(true)
		})
	})
	go w.StartDispatchFrames()
	<-started

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("world closed during a frame")
	case <-time.After(time.Millisecond * 20):
	}

	close(release)
	<-closed
	require.True(t, finished.Load())

	frame := w.Frame()
	time.Sleep(time.Millisecond * 10)
	require.Equal(t, frame, w.Frame())
}
