package modules

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
	"github.com/stretchr/testify/require"
)

type testModule struct {
	world  *models.World
	frames atomic.Int64
	closed atomic.Bool
}

func (m *testModule) Name() string {
	return "test"
}

func (m *testModule) Init(w *models.World) {
	m.world = w
}

func (m *testModule) HandleFrame() {
	m.frames.Add(1)
}

func (m *testModule) HandleClose() {
	m.closed.Store(true)
}

func TestAttach(t *testing.T) {
	w := models.NewWorld(time.Millisecond)
	defer w.Close()

	a := &testModule{}
	b := &testModule{}
	detach := Attach(w, a, b)
	require.Equal(t, w, a.world)
	require.Equal(t, w, b.world)

	go w.StartDispatchFrames()

	require.Eventually(t, func() bool {
		return a.frames.Load() > 0 && b.frames.Load() > 0
	}, time.Second, time.Millisecond)

	detach()
	require.True(t, a.closed.Load())
	require.True(t, b.closed.Load())

	// Wait for the frame in flight, if any.
	w.Do(func(*spatial.Manager[models.Entity]) {})
	frames := a.frames.Load()
	time.Sleep(time.Millisecond * 10)
	require.Equal(t, frames, a.frames.Load())
}
