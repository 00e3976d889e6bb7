package spatial

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	DefaultTreeMinChildren = 4
	DefaultTreeMaxChildren = 9

	// PointEpsilon is the side of the box used by RTree.SearchPoint.
	PointEpsilon = 0.1
)

var everywhere, _ = rtreego.NewRectFromPoints(
	rtreego.Point{math.Inf(-1), math.Inf(-1)},
	rtreego.Point{math.Inf(1), math.Inf(1)},
)

// treeEntry is what is stored in the rtreego tree: the box the object had
// when it was inserted and a reference to the object.
type treeEntry[T any] struct {
	id     int
	box    orb.Bound
	rect   rtreego.Rect
	object *Object[T]
}

func newTreeEntry[T any](id int, box orb.Bound, o *Object[T]) *treeEntry[T] {
	return &treeEntry[T]{
		id:     id,
		box:    box,
		rect:   toRect(box),
		object: o,
	}
}

// Bounds implements the rtreego.Spatial interface.
func (e *treeEntry[T]) Bounds() rtreego.Rect {
	return e.rect
}

func toRect(b orb.Bound) rtreego.Rect {
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min[0], b.Min[1]},
		rtreego.Point{b.Max[0], b.Max[1]},
	)
	return rect
}

// searchRect widens b by one representable step on each side. rtreego drops
// rects that only touch, and the widened rect keeps them whatever the
// magnitude of the coordinates.
func searchRect(b orb.Bound) rtreego.Rect {
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{math.Nextafter(b.Min[0], math.Inf(-1)), math.Nextafter(b.Min[1], math.Inf(-1))},
		rtreego.Point{math.Nextafter(b.Max[0], math.Inf(1)), math.Nextafter(b.Max[1], math.Inf(1))},
	)
	return rect
}

func sameEntry[T any](a, b rtreego.Spatial) bool {
	ea := a.(*treeEntry[T])
	eb := b.(*treeEntry[T])
	return ea.id == eb.id && ea.box == eb.box
}

// RTree is a balanced bounding-box tree over the x/z ground plane. Currently
// a proxy for github.com/dhconnelly/rtreego.
//
// Entries are found by the box they were inserted with. Removing an object
// after its position changed does not find its entry: moving objects must be
// updated with a snapshot taken before the move (see Update).
type RTree[T any] struct {
	MinChildren int
	MaxChildren int

	tree *rtreego.Rtree
}

func NewRTree[T any](minChildren, maxChildren int) *RTree[T] {
	if minChildren < 1 {
		minChildren = DefaultTreeMinChildren
	}
	if maxChildren < 2*minChildren {
		maxChildren = max(DefaultTreeMaxChildren, 2*minChildren)
	}

	return &RTree[T]{
		MinChildren: minChildren,
		MaxChildren: maxChildren,
		tree:        rtreego.NewTree(2, minChildren, maxChildren),
	}
}

// Insert adds an entry with the object's current box.
func (t *RTree[T]) Insert(o *Object[T]) {
	t.tree.Insert(newTreeEntry(o.ID, o.Bound(), o))
}

// Remove removes the entry matching the object's current box. It does
// nothing when the object moved since it was inserted.
func (t *RTree[T]) Remove(o *Object[T]) {
	t.remove(o.ID, o.Bound())
}

func (t *RTree[T]) remove(id int, box orb.Bound) bool {
	return t.tree.DeleteWithComparator(newTreeEntry[T](id, box, nil), sameEntry[T])
}

// Update moves an object from the box of old, a copy taken before the object
// was changed, to the current box of o.
func (t *RTree[T]) Update(old Object[T], o *Object[T]) bool {
	removed := t.remove(old.ID, old.Bound())
	t.Insert(o)
	return removed
}

// Search returns the objects whose box overlaps the box of the given size
// centered on x/z. Touching boxes overlap.
func (t *RTree[T]) Search(x, z, width, depth float64) []*Object[T] {
	box := boxAround(x, z, width, depth)

	var res []*Object[T]
	for _, s := range t.tree.SearchIntersect(searchRect(box)) {
		e := s.(*treeEntry[T])
		if e.box.Intersects(box) {
			res = append(res, e.object)
		}
	}

	sortByID(res)
	return res
}

// SearchPoint searches around a point with a PointEpsilon sized box. It is
// not a strict containment test.
func (t *RTree[T]) SearchPoint(x, z float64) []*Object[T] {
	return t.Search(x, z, PointEpsilon, PointEpsilon)
}

func (t *RTree[T]) QueryRange(x, z, width, depth float64) []*Object[T] {
	return t.Search(x, z, width, depth)
}

func (t *RTree[T]) QueryPoint(x, z float64) []*Object[T] {
	return t.SearchPoint(x, z)
}

// All returns the object of every entry, stale ones included.
func (t *RTree[T]) All() []*Object[T] {
	entries := t.tree.SearchIntersect(everywhere)

	res := make([]*Object[T], 0, len(entries))
	for _, s := range entries {
		res = append(res, s.(*treeEntry[T]).object)
	}

	sortByID(res)
	return res
}

// Len returns the number of entries in the tree.
func (t *RTree[T]) Len() int {
	return t.tree.Size()
}

func (t *RTree[T]) Clear() {
	t.tree = rtreego.NewTree(2, t.MinChildren, t.MaxChildren)
}

// has reports whether the tree holds an entry for o with o's current box.
func (t *RTree[T]) has(o *Object[T]) bool {
	box := o.Bound()
	for _, s := range t.tree.SearchIntersect(searchRect(box)) {
		e := s.(*treeEntry[T])
		if e.object == o && e.box == box {
			return true
		}
	}
	return false
}

func (t *RTree[T]) DebugInfo() TreeDebugInfo {
	return TreeDebugInfo{
		Size:        t.tree.Size(),
		Depth:       t.tree.Depth(),
		MinChildren: t.MinChildren,
		MaxChildren: t.MaxChildren,
	}
}
