package models

import "sync"

// A sequential id generator.
type SequentialIDGenerator struct {
	mutex       sync.Mutex
	currentID   int
	reusableIDs map[int]struct{}
}

// New returns a sequental id. The lowest reusable id is returned first.
func (g *SequentialIDGenerator) New() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.reusableIDs) != 0 {
		lowest := 0
		for id := range g.reusableIDs {
			if lowest == 0 || id < lowest {
				lowest = id
			}
		}
		delete(g.reusableIDs, lowest)
		return lowest
	}

	g.currentID++
	return g.currentID
}

// Reuse marks the given id as reusable. Reusable ids are returned in priority
// when using New. Ids that were never returned by New are ignored.
func (g *SequentialIDGenerator) Reuse(id int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if id <= 0 || id > g.currentID {
		return
	}

	if g.reusableIDs == nil {
		g.reusableIDs = make(map[int]struct{})
	}

	g.reusableIDs[id] = struct{}{}
}
