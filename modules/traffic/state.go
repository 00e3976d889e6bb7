package traffic

import (
	"slices"
	"sync"
)

// Velocity is a ground plane velocity, in units per second.
type Velocity struct {
	X float64
	Z float64
}

// IsZero reports whether the velocity makes no move.
func (v Velocity) IsZero() bool {
	return v.X == 0 && v.Z == 0
}

// Mover is an entity spawned by the traffic module.
type Mover struct {
	ID       int
	Velocity Velocity
}

// State represents a state that keeps track of the entities spawned by the
// traffic module and of their velocities.
type State struct {
	mutex      sync.RWMutex
	velocities map[int]Velocity
}

func (s *State) SetVelocity(id int, v Velocity) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.velocities == nil {
		s.velocities = make(map[int]Velocity)
	}

	s.velocities[id] = v
}

func (s *State) Remove(id int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.velocities, id)
}

func (s *State) Velocity(id int) (Velocity, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	v, ok := s.velocities[id]
	return v, ok
}

// Movers returns the tracked entities, ordered by id.
func (s *State) Movers() []Mover {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	movers := make([]Mover, 0, len(s.velocities))
	for id, v := range s.velocities {
		movers = append(movers, Mover{ID: id, Velocity: v})
	}

	slices.SortFunc(movers, func(a, b Mover) int {
		return a.ID - b.ID
	})
	return movers
}

func (s *State) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.velocities)
}
