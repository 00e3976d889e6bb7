package traffic

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/rushhourgame/spatial/models"
	"github.com/rushhourgame/spatial/spatial"
)

const (
	DefaultEntities  = 200
	DefaultWorldSize = 1000
	DefaultMaxSpeed  = 20
)

type kind struct {
	objectType spatial.ObjectType
	name       string
	width      float64
	height     float64
	depth      float64
	moving     bool
}

// Spawned entities cycle through these kinds.
var kinds = []kind{
	{objectType: spatial.TypeVehicle, name: "train", width: 4, height: 3, depth: 2, moving: true},
	{objectType: spatial.TypeAgent, name: "resident", width: 1, height: 2, depth: 1, moving: true},
	{objectType: spatial.TypeFacility, name: "station", width: 8, height: 4, depth: 8},
	{objectType: spatial.TypeSegment, name: "track", width: 20, height: 0.5, depth: 1},
}

// Module spawns entities across the world and moves the moving ones at every
// frame.
type Module struct {
	// The number of entities to spawn.
	Entities int

	// The side of the square, centered on the origin, entities move within.
	WorldSize float64

	// The maximum speed of moving entities, in units per second.
	MaxSpeed float64

	// The random seed.
	Seed uint64

	world *models.World
	state *State
	rand  *rand.Rand
}

func (m *Module) Name() string {
	return "traffic"
}

func (m *Module) Init(w *models.World) {
	m.world = w

	if m.Entities < 0 {
		m.Entities = DefaultEntities
	}
	if m.WorldSize <= 0 {
		m.WorldSize = DefaultWorldSize
	}
	if m.MaxSpeed < 0 {
		m.MaxSpeed = DefaultMaxSpeed
	}
	m.rand = rand.New(rand.NewPCG(m.Seed, m.Seed^0x9e3779b97f4a7c15))

	state, ok := w.ModuleState(m.Name())
	if !ok {
		state = &State{}
		w.SetModuleState(m.Name(), state)
	}
	m.state = state.(*State)

	for i := m.state.Len(); i < m.Entities; i++ {
		m.spawn(kinds[i%len(kinds)])
	}

	logs.WithTag("entities", m.state.Len()).
		WithTag("world_size", m.WorldSize).
		Info("traffic spawned")
}

func (m *Module) spawn(k kind) {
	half := m.WorldSize / 2

	id := m.world.Spawn(models.EntityObject{
		X:      m.rand.Float64()*m.WorldSize - half,
		Y:      k.height / 2,
		Z:      m.rand.Float64()*m.WorldSize - half,
		Width:  k.width,
		Height: k.height,
		Depth:  k.depth,
		Type:   k.objectType,
		Data: models.Entity{
			Name:  fmt.Sprintf("%s-%d", k.name, m.state.Len()+1),
			Owner: m.Name(),
		},
	})

	var v Velocity
	if k.moving && m.MaxSpeed > 0 {
		angle := m.rand.Float64() * 2 * math.Pi
		speed := m.MaxSpeed * (0.5 + m.rand.Float64()/2)
		v = Velocity{X: math.Cos(angle) * speed, Z: math.Sin(angle) * speed}
	}
	m.state.SetVelocity(id, v)
}

// HandleFrame moves every moving entity by its velocity over one frame.
// Entities bounce on the world border. Entities that did not move are not
// reindexed.
func (m *Module) HandleFrame() {
	dt := m.world.FrameDuration.Seconds()
	half := m.WorldSize / 2

	for _, mover := range m.state.Movers() {
		o, ok := m.world.Spatial.GetObject(mover.ID)
		if !ok {
			m.state.Remove(mover.ID)
			continue
		}

		v := mover.Velocity
		if v.IsZero() {
			continue
		}

		x, vx := bounce(o.X+v.X*dt, v.X, half)
		z, vz := bounce(o.Z+v.Z*dt, v.Z, half)
		if vx != v.X || vz != v.Z {
			m.state.SetVelocity(mover.ID, Velocity{X: vx, Z: vz})
		}

		if x == o.X && z == o.Z {
			continue
		}

		m.world.Spatial.UpdateObject(mover.ID, spatial.Position{X: x, Y: o.Y, Z: z})
	}
}

func (m *Module) HandleClose() {
	for _, mover := range m.state.Movers() {
		m.world.Despawn(mover.ID)
		m.state.Remove(mover.ID)
	}
}

func bounce(pos, velocity, half float64) (float64, float64) {
	switch {
	case pos > half:
		return half, -math.Abs(velocity)
	case pos < -half:
		return -half, math.Abs(velocity)
	default:
		return pos, velocity
	}
}
