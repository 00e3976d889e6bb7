package spatial

// Partition is a spatial index over objects of payload type T. HashGrid and
// RTree both implement it; the Manager keeps one of each in sync and draws
// type and nearest query candidates from one of them.
type Partition[T any] interface {
	Insert(o *Object[T])
	Remove(o *Object[T])
	QueryRange(x, z, width, depth float64) []*Object[T]
	QueryPoint(x, z float64) []*Object[T]
	All() []*Object[T]
	Len() int
	Clear()
}

var (
	_ Partition[struct{}] = (*HashGrid[struct{}])(nil)
	_ Partition[struct{}] = (*RTree[struct{}])(nil)
)

// GridDebugInfo describes the hash grid occupancy.
type GridDebugInfo struct {
	CellSize     float64 `json:"cell_size"`
	CellCount    int     `json:"cell_count"`
	ObjectCount  int     `json:"object_count"`
	MinCell      [2]int  `json:"min_cell"`
	MaxCell      [2]int  `json:"max_cell"`
	MaxOccupancy int     `json:"max_occupancy"`
}

// TreeDebugInfo describes the R-tree shape.
type TreeDebugInfo struct {
	Size        int `json:"size"`
	Depth       int `json:"depth"`
	MinChildren int `json:"min_children"`
	MaxChildren int `json:"max_children"`
}

// DebugInfo is a diagnostic snapshot of both indexes.
type DebugInfo struct {
	Objects int           `json:"objects"`
	Grid    GridDebugInfo `json:"grid"`
	Tree    TreeDebugInfo `json:"tree"`
}
