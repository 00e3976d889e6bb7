package collision

import (
	"slices"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
)

// Module looks for overlapping entities at every frame and reports the
// contacts that begin and end.
type Module struct {
	// The types of the entities that are checked for collisions. Vehicles and
	// agents are checked when empty.
	Types []spatial.ObjectType

	world *models.World
	state *State
}

func (m *Module) Name() string {
	return "collision"
}

func (m *Module) Init(w *models.World) {
	m.world = w

	if len(m.Types) == 0 {
		m.Types = []spatial.ObjectType{
			spatial.TypeVehicle,
			spatial.TypeAgent,
		}
	}

	state, ok := w.ModuleState(m.Name())
	if !ok {
		state = &State{}
		w.SetModuleState(m.Name(), state)
	}
	m.state = state.(*State)
}

func (m *Module) HandleFrame() {
	contacts := make(map[Contact]struct{})

	for _, o := range m.world.Spatial.Objects() {
		if !slices.Contains(m.Types, o.Type) {
			continue
		}

		for _, other := range m.world.Spatial.CheckCollisions(o) {
			contacts[newContact(o.ID, other.ID)] = struct{}{}
		}
	}

	began, ended := m.state.Replace(contacts)
	instrumentContacts(len(contacts), len(began))

	for _, c := range began {
		logs.WithTag("a", c.A).
			WithTag("b", c.B).
			WithTag("frame", m.world.Frame()).
			Debug("contact began")
	}

	for _, c := range ended {
		logs.WithTag("a", c.A).
			WithTag("b", c.B).
			WithTag("frame", m.world.Frame()).
			Debug("contact ended")
	}
}

func (m *Module) HandleClose() {
	m.state.Replace(nil)
}
