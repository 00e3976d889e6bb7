package models

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/rushhourgame/spatial/spatial"
)

// World represents a simulated area whose entities are kept in a spatial
// index and moved by frame handlers.
type World struct {
	UUID          string
	FrameDuration time.Duration

	// The spatial index holding the world entities. Objects must only be
	// moved with Spatial.UpdateObject.
	Spatial *spatial.Manager[Entity]

	entityIDs SequentialIDGenerator

	moduleStates map[string]any
	moduleMutex  sync.RWMutex

	// Held for the whole duration of a frame. Readers that need a view of
	// the world between two frames take it with Do.
	tickMutex sync.Mutex
	frame     atomic.Uint64

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs SequentialIDGenerator
	frameHandlers   map[int]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
}

func NewWorld(frameDuration time.Duration, opts ...spatial.Option) *World {
	instrumentIncreaseWorldGauge()

	return &World{
		UUID:           uuid.New().String(),
		FrameDuration:  frameDuration,
		Spatial:        spatial.NewManager[Entity](opts...),
		closeFrameChan: make(chan struct{}, 1),
		frameTicker:    time.NewTicker(frameDuration),
		moduleStates:   make(map[string]any),
		frameHandlers:  make(map[int]func()),
	}
}

// Close stops the frame dispatch. It returns once the frame being dispatched,
// if any, is over. It must not be called from a frame handler.
func (w *World) Close() {
	w.closeOnce.Do(func() {
		w.frameTicker.Stop()
		w.closeFrameChan <- struct{}{}

		w.tickMutex.Lock()
		w.tickMutex.Unlock()

		instrumentDecreaseWorldGauge()
	})
}

// Spawn assigns a new id to the given object and adds it to the spatial
// index.
func (w *World) Spawn(o EntityObject) int {
	o.ID = w.entityIDs.New()
	if o.Data.CreatedAt.IsZero() {
		o.Data.CreatedAt = time.Now()
	}

	w.Spatial.AddObject(o)
	instrumentEntitySpawn()

	logs.WithTag("entity_id", o.ID).
		WithTag("type", o.Type).
		Debug("entity spawned")
	return o.ID
}

// Despawn removes the entity with the given id and makes its id reusable.
func (w *World) Despawn(id int) bool {
	if _, ok := w.Spatial.GetObject(id); !ok {
		return false
	}

	w.Spatial.RemoveObject(id)
	w.entityIDs.Reuse(id)

	logs.WithTag("entity_id", id).Debug("entity despawned")
	return true
}

func (w *World) SetModuleState(moduleName string, state any) {
	w.moduleMutex.Lock()
	defer w.moduleMutex.Unlock()

	w.moduleStates[moduleName] = state
}

func (w *World) ModuleState(moduleName string) (any, bool) {
	w.moduleMutex.RLock()
	defer w.moduleMutex.RUnlock()

	state, ok := w.moduleStates[moduleName]
	return state, ok
}

// Frame returns the number of frames dispatched so far.
func (w *World) Frame() uint64 {
	return w.frame.Load()
}

// Do runs f while no frame is being dispatched. It must not be called from a
// frame handler.
func (w *World) Do(f func(m *spatial.Manager[Entity])) {
	w.tickMutex.Lock()
	defer w.tickMutex.Unlock()

	f(w.Spatial)
}

// HandleFrame registers a handler that is called on every frame.
func (w *World) HandleFrame(h func()) (cancel func()) {
	w.frameMutex.Lock()
	defer w.frameMutex.Unlock()

	id := w.frameHandlerIDs.New()
	w.frameHandlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			w.frameMutex.Lock()
			defer w.frameMutex.Unlock()

			delete(w.frameHandlers, id)
			w.frameHandlerIDs.Reuse(id)
		})
	}
}

// StartDispatchFrames calls the frame handlers at every tick until the world
// is closed. Handlers are called in the order of their handler ids.
func (w *World) StartDispatchFrames() {
	w.startFrameOnce.Do(func() {
		for {
			select {
			case <-w.closeFrameChan:
				return

			case <-w.frameTicker.C:
				w.dispatchFrame()
			}
		}
	})
}

func (w *World) dispatchFrame() {
	w.tickMutex.Lock()
	defer w.tickMutex.Unlock()

	start := time.Now()
	defer instrumentFrame(start)

	w.frameMutex.RLock()
	ids := make([]int, 0, len(w.frameHandlers))
	for id := range w.frameHandlers {
		ids = append(ids, id)
	}
	w.frameMutex.RUnlock()
	slices.Sort(ids)

	// Handlers may cancel themselves: the lock is not held while they run.
	for _, id := range ids {
		w.frameMutex.RLock()
		h, ok := w.frameHandlers[id]
		w.frameMutex.RUnlock()

		if ok {
			h()
		}
	}

	w.frame.Add(1)
}
