package spatial

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"
)

// Hash Grid Spatial Partition
//
// A uniformly sub-divided grid over the x/z ground plane implementing the
// Partition interface. The particularities are:
//   - the cell size defines how large a cell is. A cell size of 10 makes each
//     cell hold a 10x10 subdivision of the world.
//   - the grid is unbounded: cells are created when an object first overlaps
//     them and dropped once they are empty, so memory follows the occupied
//     area and not the world extent.
//   - an object is stored in every cell its bounding box overlaps. Cell
//     membership is only a pre-filter, queries re-check the exact box.

// DefaultCellSize is the cell size used when none or an invalid one is given.
const DefaultCellSize = 10

// maxCellCoord bounds cell coordinates so they convert to int exactly. Boxes
// beyond it share the border cells.
const maxCellCoord = 1 << 52

type cellKey struct {
	x int
	z int
}

// cellSpan is the inclusive range of cells covered by a box.
type cellSpan struct {
	minX int
	minZ int
	maxX int
	maxZ int
}

func (s cellSpan) count() float64 {
	return float64(s.maxX-s.minX+1) * float64(s.maxZ-s.minZ+1)
}

func (s cellSpan) contains(k cellKey) bool {
	return k.x >= s.minX && k.x <= s.maxX && k.z >= s.minZ && k.z <= s.maxZ
}

func (s cellSpan) each(f func(cellKey)) {
	for x := s.minX; x <= s.maxX; x++ {
		for z := s.minZ; z <= s.maxZ; z++ {
			f(cellKey{x: x, z: z})
		}
	}
}

type HashGrid[T any] struct {
	CellSize float64

	cells map[cellKey]map[*Object[T]]struct{}

	// The span each object was inserted with. Removal clears these cells
	// rather than the ones computed from the object's current position.
	spans map[*Object[T]]cellSpan
}

func NewHashGrid[T any](cellSize float64) *HashGrid[T] {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = DefaultCellSize
	}

	return &HashGrid[T]{
		CellSize: cellSize,
		cells:    make(map[cellKey]map[*Object[T]]struct{}),
		spans:    make(map[*Object[T]]cellSpan),
	}
}

func (g *HashGrid[T]) cellCoord(v float64) int {
	c := math.Floor(v / g.CellSize)
	return int(max(-maxCellCoord, min(c, maxCellCoord)))
}

func (g *HashGrid[T]) cellOf(x, z float64) cellKey {
	return cellKey{x: g.cellCoord(x), z: g.cellCoord(z)}
}

func (g *HashGrid[T]) spanOf(b orb.Bound) cellSpan {
	return cellSpan{
		minX: g.cellCoord(b.Min[0]),
		minZ: g.cellCoord(b.Min[1]),
		maxX: g.cellCoord(b.Max[0]),
		maxZ: g.cellCoord(b.Max[1]),
	}
}

// Insert adds the object to every cell its bounding box overlaps. Inserting
// an object that is already indexed moves it to its current cells.
func (g *HashGrid[T]) Insert(o *Object[T]) {
	if _, ok := g.spans[o]; ok {
		g.Remove(o)
	}

	span := g.spanOf(o.Bound())
	span.each(func(k cellKey) {
		cell, ok := g.cells[k]
		if !ok {
			cell = make(map[*Object[T]]struct{})
			g.cells[k] = cell
		}
		cell[o] = struct{}{}
	})
	g.spans[o] = span
}

// Remove removes the object from the cells it was inserted into. Cells left
// empty are deleted.
func (g *HashGrid[T]) Remove(o *Object[T]) {
	span, ok := g.spans[o]
	if !ok {
		return
	}

	span.each(func(k cellKey) {
		cell, ok := g.cells[k]
		if !ok {
			return
		}

		delete(cell, o)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	})
	delete(g.spans, o)
}

// Update re-indexes the object from its current position and extents. It
// must be called after the object fields were changed.
func (g *HashGrid[T]) Update(o *Object[T]) {
	g.Remove(o)
	g.Insert(o)
}

// QueryPoint returns the objects whose box contains the given point.
func (g *HashGrid[T]) QueryPoint(x, z float64) []*Object[T] {
	cell, ok := g.cells[g.cellOf(x, z)]
	if !ok {
		return nil
	}

	p := orb.Point{x, z}
	var res []*Object[T]
	for o := range cell {
		if o.Bound().Contains(p) {
			res = append(res, o)
		}
	}

	sortByID(res)
	return res
}

// QueryRange returns the objects whose box overlaps the box of the given
// size centered on x/z.
func (g *HashGrid[T]) QueryRange(x, z, width, depth float64) []*Object[T] {
	box := boxAround(x, z, width, depth)
	span := g.spanOf(box)

	found := make(map[*Object[T]]struct{})
	collect := func(cell map[*Object[T]]struct{}) {
		for o := range cell {
			if _, ok := found[o]; ok {
				continue
			}
			if o.Bound().Intersects(box) {
				found[o] = struct{}{}
			}
		}
	}

	// Wide queries walk the occupied cells instead of every covered cell.
	if span.count() > float64(len(g.cells)) {
		for k, cell := range g.cells {
			if span.contains(k) {
				collect(cell)
			}
		}
	} else {
		span.each(func(k cellKey) {
			if cell, ok := g.cells[k]; ok {
				collect(cell)
			}
		})
	}

	return keys(found)
}

// All returns every indexed object once, no matter how many cells it spans.
func (g *HashGrid[T]) All() []*Object[T] {
	res := make([]*Object[T], 0, len(g.spans))
	for o := range g.spans {
		res = append(res, o)
	}

	sortByID(res)
	return res
}

// Len returns the number of indexed objects.
func (g *HashGrid[T]) Len() int {
	return len(g.spans)
}

func (g *HashGrid[T]) Clear() {
	g.cells = make(map[cellKey]map[*Object[T]]struct{})
	g.spans = make(map[*Object[T]]cellSpan)
}

func (g *HashGrid[T]) DebugInfo() GridDebugInfo {
	info := GridDebugInfo{
		CellSize:    g.CellSize,
		CellCount:   len(g.cells),
		ObjectCount: len(g.spans),
	}

	first := true
	for k, cell := range g.cells {
		if first {
			info.MinCell = [2]int{k.x, k.z}
			info.MaxCell = [2]int{k.x, k.z}
			first = false
		}

		info.MinCell[0] = min(info.MinCell[0], k.x)
		info.MinCell[1] = min(info.MinCell[1], k.z)
		info.MaxCell[0] = max(info.MaxCell[0], k.x)
		info.MaxCell[1] = max(info.MaxCell[1], k.z)
		info.MaxOccupancy = max(info.MaxOccupancy, len(cell))
	}

	return info
}

func keys[T any](m map[*Object[T]]struct{}) []*Object[T] {
	res := make([]*Object[T], 0, len(m))
	for o := range m {
		res = append(res, o)
	}

	sortByID(res)
	return res
}

func sortByID[T any](objects []*Object[T]) {
	slices.SortFunc(objects, func(a, b *Object[T]) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
