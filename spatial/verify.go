package spatial

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	ErrTypeIndexInconsistent = "index_inconsistent"
)

// Verify checks that every registered object is indexed by both the grid and
// the tree with its current box, and that neither index holds entries for
// objects that are not registered.
//
// Objects that were modified without going through UpdateObject make Verify
// fail.
func (m *Manager[T]) Verify() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for id, o := range m.objects {
		if o.ID != id {
			return errors.New("registry key does not match object id").
				WithType(ErrTypeIndexInconsistent).
				WithTag("key", id).
				WithTag("object_id", o.ID)
		}

		if !m.grid.has(o) {
			return errors.New("object is not indexed with its current box").
				WithType(ErrTypeIndexInconsistent).
				WithTag("index", "grid").
				WithTag("object_id", id)
		}

		if !m.tree.has(o) {
			return errors.New("object is not indexed with its current box").
				WithType(ErrTypeIndexInconsistent).
				WithTag("index", "tree").
				WithTag("object_id", id)
		}
	}

	if n := m.grid.Len(); n != len(m.objects) {
		return errors.New("index holds unregistered objects").
			WithType(ErrTypeIndexInconsistent).
			WithTag("index", "grid").
			WithTag("indexed", n).
			WithTag("registered", len(m.objects))
	}

	if n := m.tree.Len(); n != len(m.objects) {
		return errors.New("index holds unregistered objects").
			WithType(ErrTypeIndexInconsistent).
			WithTag("index", "tree").
			WithTag("indexed", n).
			WithTag("registered", len(m.objects))
	}

	return nil
}

// has reports whether o is in exactly the cells of its current box.
func (g *HashGrid[T]) has(o *Object[T]) bool {
	span, ok := g.spans[o]
	if !ok || span != g.spanOf(o.Bound()) {
		return false
	}

	found := true
	span.each(func(k cellKey) {
		if _, ok := g.cells[k][o]; !ok {
			found = false
		}
	})
	return found
}
