package spatial

import (
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultNearestMaxDistance is the search radius of FindNearest when none is
// given.
const DefaultNearestMaxDistance = 50

// Option configures a Manager.
type Option func(*options)

type options struct {
	cellSize           float64
	treeMinChildren    int
	treeMaxChildren    int
	coarseCandidates   bool
	nearestMaxDistance float64
	withoutMetrics     bool
}

// WithCellSize sets the hash grid cell size.
func WithCellSize(v float64) Option {
	return func(o *options) {
		o.cellSize = v
	}
}

// WithTreeChildren sets the minimum and maximum number of children of an
// R-tree node.
func WithTreeChildren(minChildren, maxChildren int) Option {
	return func(o *options) {
		o.treeMinChildren = minChildren
		o.treeMaxChildren = maxChildren
	}
}

// WithCoarseCandidates makes QueryByType and FindNearest draw their
// candidates from the hash grid instead of the R-tree.
func WithCoarseCandidates() Option {
	return func(o *options) {
		o.coarseCandidates = true
	}
}

// WithNearestMaxDistance sets the default search radius of FindNearest.
func WithNearestMaxDistance(v float64) Option {
	return func(o *options) {
		o.nearestMaxDistance = v
	}
}

// WithoutMetrics keeps the manager out of the process metrics. It is meant
// for short-lived managers that would otherwise skew the figures of the
// served world.
func WithoutMetrics() Option {
	return func(o *options) {
		o.withoutMetrics = true
	}
}

// NearestOption refines a FindNearest query.
type NearestOption func(*nearestQuery)

type nearestQuery struct {
	objectType  ObjectType
	maxDistance float64
}

// OfType restricts FindNearest to objects of the given type.
func OfType(t ObjectType) NearestOption {
	return func(q *nearestQuery) {
		q.objectType = t
	}
}

// Within sets the FindNearest search radius. Objects at exactly that
// distance are not returned.
func Within(maxDistance float64) NearestOption {
	return func(q *nearestQuery) {
		q.maxDistance = maxDistance
	}
}

// Stats is an aggregate count of the indexed objects.
type Stats struct {
	TotalObjects  int                `json:"totalObjects"`
	ObjectsByType map[ObjectType]int `json:"objectsByType"`
}

// Manager owns the object registry and keeps a hash grid and an R-tree in
// sync with it. It is the only way objects get in, out of, or moved within
// the indexes.
//
// Every operation runs under the manager lock, so a query never observes the
// registry and the indexes out of step.
type Manager[T any] struct {
	mutex   sync.RWMutex
	objects map[int]*Object[T]
	grid    *HashGrid[T]
	tree    *RTree[T]

	// The index QueryByType and FindNearest draw candidates from.
	candidateIndex Partition[T]

	nearestMaxDistance float64
	metrics            instruments
}

func NewManager[T any](opts ...Option) *Manager[T] {
	o := options{
		cellSize:           DefaultCellSize,
		treeMinChildren:    DefaultTreeMinChildren,
		treeMaxChildren:    DefaultTreeMaxChildren,
		nearestMaxDistance: DefaultNearestMaxDistance,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.nearestMaxDistance <= 0 {
		o.nearestMaxDistance = DefaultNearestMaxDistance
	}

	m := &Manager[T]{
		objects:            make(map[int]*Object[T]),
		grid:               NewHashGrid[T](o.cellSize),
		tree:               NewRTree[T](o.treeMinChildren, o.treeMaxChildren),
		nearestMaxDistance: o.nearestMaxDistance,
		metrics:            instruments{disabled: o.withoutMetrics},
	}

	m.candidateIndex = m.tree
	if o.coarseCandidates {
		m.candidateIndex = m.grid
	}
	return m
}

// AddObject indexes a copy of the given object. An object already indexed
// with the same id is replaced.
func (m *Manager[T]) AddObject(obj Object[T]) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.objects[obj.ID]; ok {
		logs.WithTag("object_id", obj.ID).
			Debug("replacing indexed object")
		m.removeObject(obj.ID)
	}

	o := &obj
	m.objects[o.ID] = o
	m.grid.Insert(o)
	m.tree.Insert(o)

	m.metrics.objectAdded(o.Type)
	m.metrics.mutation("add")
}

// RemoveObject removes the object with the given id. It does nothing when no
// such object is indexed.
func (m *Manager[T]) RemoveObject(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.removeObject(id)
}

func (m *Manager[T]) removeObject(id int) {
	o, ok := m.objects[id]
	if !ok {
		return
	}

	delete(m.objects, id)
	m.grid.Remove(o)
	if !m.tree.remove(o.ID, o.Bound()) {
		m.reportStaleTreeEntry(o.ID)
	}

	m.metrics.objectRemoved(o.Type)
	m.metrics.mutation("remove")
}

// UpdateObject moves the object with the given id. It does nothing when no
// such object is indexed.
func (m *Manager[T]) UpdateObject(id int, p Position) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	o, ok := m.objects[id]
	if !ok {
		return
	}

	// The tree finds entries by box: keep the pre-move state to remove the
	// old entry.
	old := *o

	o.X = p.X
	o.Y = p.Y
	o.Z = p.Z

	m.grid.Update(o)
	if !m.tree.Update(old, o) {
		m.reportStaleTreeEntry(id)
	}

	m.metrics.mutation("update")
}

func (m *Manager[T]) reportStaleTreeEntry(id int) {
	m.metrics.staleTreeEntry()
	logs.Warn(errors.New("tree entry not found").
		WithType(ErrTypeIndexInconsistent).
		WithTag("object_id", id))
}

// GetObject returns the object with the given id. The returned object must
// not be modified.
func (m *Manager[T]) GetObject(id int) (*Object[T], bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	o, ok := m.objects[id]
	return o, ok
}

// Objects returns every indexed object, ordered by id.
func (m *Manager[T]) Objects() []*Object[T] {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	res := make([]*Object[T], 0, len(m.objects))
	for _, o := range m.objects {
		res = append(res, o)
	}

	sortByID(res)
	return res
}

// Len returns the number of indexed objects.
func (m *Manager[T]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.objects)
}

// QueryRangeCoarse returns the objects overlapping the given box, using the
// hash grid.
func (m *Manager[T]) QueryRangeCoarse(x, z, width, depth float64) []*Object[T] {
	defer m.metrics.queryLatency("range_coarse", time.Now())

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.grid.QueryRange(x, z, width, depth)
}

// QueryRangePrecise returns the objects overlapping the given box, using the
// R-tree.
func (m *Manager[T]) QueryRangePrecise(x, z, width, depth float64) []*Object[T] {
	defer m.metrics.queryLatency("range_precise", time.Now())

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.tree.Search(x, z, width, depth)
}

// QueryPoint returns the objects whose box contains the given point.
func (m *Manager[T]) QueryPoint(x, z float64) []*Object[T] {
	defer m.metrics.queryLatency("point", time.Now())

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.grid.QueryPoint(x, z)
}

// QueryByType returns the objects of the given type overlapping the square of
// half side radius centered on x/z.
func (m *Manager[T]) QueryByType(t ObjectType, x, z, radius float64) []*Object[T] {
	defer m.metrics.queryLatency("by_type", time.Now())

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var res []*Object[T]
	for _, o := range m.candidates(x, z, radius*2, radius*2) {
		if o.Type == t {
			res = append(res, o)
		}
	}
	return res
}

// CheckCollisions returns the indexed objects, other than obj itself, whose
// box overlaps obj's box.
func (m *Manager[T]) CheckCollisions(obj *Object[T]) []*Object[T] {
	defer m.metrics.queryLatency("collisions", time.Now())

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var res []*Object[T]
	for _, o := range m.tree.Search(obj.X, obj.Z, obj.Width, obj.Depth) {
		if o.ID != obj.ID {
			res = append(res, o)
		}
	}
	return res
}

// FindNearest returns the object closest to x/z on the ground plane. Only
// objects within the search radius are considered, so the result is the
// global nearest only when it lies within that radius.
func (m *Manager[T]) FindNearest(x, z float64, opts ...NearestOption) (*Object[T], bool) {
	defer m.metrics.queryLatency("nearest", time.Now())

	q := nearestQuery{maxDistance: m.nearestMaxDistance}
	for _, opt := range opts {
		opt(&q)
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	from := orb.Point{x, z}
	best := q.maxDistance
	var nearest *Object[T]

	for _, o := range m.candidates(x, z, q.maxDistance*2, q.maxDistance*2) {
		if q.objectType != "" && o.Type != q.objectType {
			continue
		}

		if d := planar.Distance(from, orb.Point{o.X, o.Z}); d < best {
			best = d
			nearest = o
		}
	}

	return nearest, nearest != nil
}

func (m *Manager[T]) candidates(x, z, width, depth float64) []*Object[T] {
	return m.candidateIndex.QueryRange(x, z, width, depth)
}

// GetStats counts the indexed objects. It scans the whole registry.
func (m *Manager[T]) GetStats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.stats()
}

func (m *Manager[T]) stats() Stats {
	stats := Stats{
		TotalObjects:  len(m.objects),
		ObjectsByType: make(map[ObjectType]int),
	}
	for _, o := range m.objects {
		stats.ObjectsByType[o.Type]++
	}
	return stats
}

// Clear removes every object from the registry and both indexes.
func (m *Manager[T]) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.metrics.objectsCleared(m.stats().ObjectsByType)
	m.metrics.mutation("clear")
	logs.WithTag("objects", len(m.objects)).
		Debug("clearing spatial index")

	m.objects = make(map[int]*Object[T])
	m.grid.Clear()
	m.tree.Clear()
}

// DebugInfo returns a diagnostic snapshot of both indexes.
func (m *Manager[T]) DebugInfo() DebugInfo {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return DebugInfo{
		Objects: len(m.objects),
		Grid:    m.grid.DebugInfo(),
		Tree:    m.tree.DebugInfo(),
	}
}
