package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRTreeCreation(t *testing.T) {
	tree := NewRTree[string](0, 0)
	require.Equal(t, DefaultTreeMinChildren, tree.MinChildren)
	require.Equal(t, DefaultTreeMaxChildren, tree.MaxChildren)
	require.Zero(t, tree.Len())

	tree = NewRTree[string](10, 12)
	require.Equal(t, 10, tree.MinChildren)
	require.Equal(t, 20, tree.MaxChildren)
}

func TestRTreeInsertAndSearch(t *testing.T) {
	tree := NewRTree[string](0, 0)
	tree.Insert(newGridObject(1, 5, 5, 2, 2))
	tree.Insert(newGridObject(2, 20, 20, 8, 6))

	t.Run("search overlapping box", func(t *testing.T) {
		require.Equal(t, []int{1}, ids(tree.Search(6, 6, 2, 2)))
		require.Equal(t, []int{1, 2}, ids(tree.Search(12, 12, 30, 30)))
	})

	t.Run("search disjoint box", func(t *testing.T) {
		require.Empty(t, tree.Search(50, 50, 2, 2))
	})

	t.Run("touching boxes overlap", func(t *testing.T) {
		require.Equal(t, []int{1}, ids(tree.Search(6, 5, 0, 0)))
		require.Equal(t, []int{2}, ids(tree.Search(25, 20, 2, 2)))
	})
}

func TestRTreeLargeCoordinates(t *testing.T) {
	tree := NewRTree[string](0, 0)
	tree.Insert(newGridObject(1, 2e7-1, 0, 2, 2))
	tree.Insert(newGridObject(2, 2e7+1, 0, 2, 2))
	tree.Insert(newGridObject(3, 1e8, 1e8, 0, 0))
	tree.Insert(newGridObject(4, -1e15, 3e12, 0, 0))

	t.Run("touching boxes overlap", func(t *testing.T) {
		require.Equal(t, []int{1, 2}, ids(tree.Search(2e7-1, 0, 2, 2)))
		require.Equal(t, []int{1, 2}, ids(tree.Search(2e7, 0, 0, 0)))
	})

	t.Run("zero area entries are found at their point", func(t *testing.T) {
		require.Equal(t, []int{3}, ids(tree.Search(1e8, 1e8, 0, 0)))
		require.Equal(t, []int{4}, ids(tree.Search(-1e15, 3e12, 0, 0)))
	})

	t.Run("disjoint boxes are not returned", func(t *testing.T) {
		require.Empty(t, tree.Search(1e8+4, 1e8, 2, 2))
	})
}

func TestRTreeSearchPoint(t *testing.T) {
	tree := NewRTree[string](0, 0)
	tree.Insert(newGridObject(1, 0.5, 0.5, 1, 1))
	tree.Insert(newGridObject(2, 3, 3, 0, 0))

	require.Equal(t, []int{1}, ids(tree.SearchPoint(0.5, 0.5)))
	require.Equal(t, []int{2}, ids(tree.SearchPoint(3, 3)))

	// Searching near a point also finds boxes that only come within the
	// epsilon of it.
	require.Equal(t, []int{1}, ids(tree.SearchPoint(1.04, 0.5)))
	require.Empty(t, tree.SearchPoint(1.2, 0.5))
}

func TestRTreeRemove(t *testing.T) {
	tree := NewRTree[string](0, 0)
	a := newGridObject(1, 5, 5, 2, 2)
	b := newGridObject(2, 6, 6, 2, 2)
	tree.Insert(a)
	tree.Insert(b)

	tree.Remove(a)
	require.Equal(t, 1, tree.Len())
	require.Equal(t, []int{2}, ids(tree.Search(5, 5, 2, 2)))

	tree.Remove(a)
	require.Equal(t, 1, tree.Len())
}

func TestRTreeRemoveAfterMove(t *testing.T) {
	tree := NewRTree[string](0, 0)
	o := newGridObject(1, 5, 5, 2, 2)
	tree.Insert(o)

	o.X = 100
	tree.Remove(o)

	// The entry was not found with the new box and stays in the tree under
	// the old one.
	require.Equal(t, 1, tree.Len())
	require.Equal(t, []int{1}, ids(tree.Search(5, 5, 1, 1)))
	require.Empty(t, tree.Search(100, 5, 1, 1))
	require.False(t, tree.has(o))
}

func TestRTreeUpdate(t *testing.T) {
	tree := NewRTree[string](0, 0)
	o := newGridObject(1, 5, 5, 2, 2)
	tree.Insert(o)

	old := *o
	o.X = 100
	o.Z = 40

	require.True(t, tree.Update(old, o))
	require.Equal(t, 1, tree.Len())
	require.Empty(t, tree.Search(5, 5, 1, 1))
	require.Equal(t, []int{1}, ids(tree.Search(100, 40, 1, 1)))
	require.True(t, tree.has(o))

	t.Run("snapshot that does not match the stored box", func(t *testing.T) {
		stale := *o
		stale.X = 1000
		o.X = 200

		require.False(t, tree.Update(stale, o))
		require.Equal(t, 2, tree.Len())
		require.Equal(t, []int{1}, ids(tree.Search(100, 40, 1, 1)))
		require.Equal(t, []int{1}, ids(tree.Search(200, 40, 1, 1)))
	})
}

func TestRTreeManyObjects(t *testing.T) {
	tree := NewRTree[string](2, 4)
	grid := NewHashGrid[string](7)

	var objects []*Object[string]
	for i := 0; i < 400; i++ {
		o := newGridObject(i, float64(i%20)*3, float64(i/20)*3, 2, 2)
		objects = append(objects, o)
		tree.Insert(o)
		grid.Insert(o)
	}
	require.Equal(t, 400, tree.Len())
	require.Greater(t, tree.DebugInfo().Depth, 1)

	require.Equal(t, ids(grid.QueryRange(10, 10, 12, 7)), ids(tree.Search(10, 10, 12, 7)))
	require.Equal(t, ids(grid.All()), ids(tree.All()))

	for _, o := range objects {
		require.True(t, tree.has(o))
		tree.Remove(o)
	}
	require.Zero(t, tree.Len())
	require.Empty(t, tree.All())
}

func TestRTreeClear(t *testing.T) {
	tree := NewRTree[string](0, 0)
	tree.Insert(newGridObject(1, 5, 5, 2, 2))
	tree.Insert(newGridObject(2, 7, 7, 2, 2))
	require.Equal(t, []int{1, 2}, ids(tree.All()))

	tree.Clear()
	require.Zero(t, tree.Len())
	require.Empty(t, tree.All())

	tree.Insert(newGridObject(3, 5, 5, 2, 2))
	require.Equal(t, []int{3}, ids(tree.All()))
}

func TestPartitions(t *testing.T) {
	for name, p := range map[string]Partition[string]{
		"grid": NewHashGrid[string](4),
		"tree": NewRTree[string](2, 4),
	} {
		t.Run(name, func(t *testing.T) {
			a := newGridObject(1, 0, 0, 2, 2)
			b := newGridObject(2, 9, 9, 2, 2)
			p.Insert(a)
			p.Insert(b)
			require.Equal(t, 2, p.Len())
			require.Equal(t, []int{1, 2}, ids(p.All()))

			require.Equal(t, []int{1}, ids(p.QueryRange(1, 1, 2, 2)))
			require.Equal(t, []int{2}, ids(p.QueryPoint(9, 9)))

			p.Remove(a)
			require.Equal(t, []int{2}, ids(p.All()))

			p.Clear()
			require.Zero(t, p.Len())
		})
	}
}
