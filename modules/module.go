package modules

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/rushhourgame/spatial/models"
)

// Module is the interface that describes a module that drives a world.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module.
	Init(*models.World)

	// Handles a frame. It is called with the world tick lock held.
	HandleFrame()

	// Handles the world shutdown.
	HandleClose()
}

// Attach initializes the given modules and registers their frame handlers.
// The returned function unregisters the handlers and closes the modules.
func Attach(w *models.World, modules ...Module) (detach func()) {
	cancels := make([]func(), 0, len(modules))

	for _, m := range modules {
		m.Init(w)
		cancels = append(cancels, w.HandleFrame(m.HandleFrame))

		logs.WithTag("module", m.Name()).
			WithTag("world", w.UUID).
			Info("module attached")
	}

	return func() {
		for i, m := range modules {
			cancels[i]()
			m.HandleClose()
		}
	}
}
