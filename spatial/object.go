package spatial

import (
	"github.com/paulmach/orb"
)

// ObjectType is the kind of an indexed object. It is only used to filter
// query results, never to decide where an object is indexed.
type ObjectType string

const (
	TypeVehicle  ObjectType = "vehicle"
	TypeFacility ObjectType = "facility"
	TypeSegment  ObjectType = "segment"
	TypeAgent    ObjectType = "agent"
)

// ObjectTypes lists every known object type.
var ObjectTypes = []ObjectType{
	TypeVehicle,
	TypeFacility,
	TypeSegment,
	TypeAgent,
}

// Object is an axis-aligned entity projected into the index. X/Z is the
// ground plane; Y and Height are carried but not indexed.
//
// Objects returned by queries are views on the indexed state. They must not
// be modified directly: position changes go through Manager.UpdateObject.
type Object[T any] struct {
	ID     int
	X      float64
	Y      float64
	Z      float64
	Width  float64
	Height float64
	Depth  float64
	Type   ObjectType
	Data   T
}

// Position is a world-space center position.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Position returns the object center.
func (o *Object[T]) Position() Position {
	return Position{X: o.X, Y: o.Y, Z: o.Z}
}

// Bound returns the ground-plane bounding box of the object. Negative extents
// collapse to a zero-area box.
func (o *Object[T]) Bound() orb.Bound {
	return boxAround(o.X, o.Z, o.Width, o.Depth)
}

// boxAround returns the box of the given size centered on x/z. The orb Y axis
// holds the world z.
func boxAround(x, z, width, depth float64) orb.Bound {
	hw := max(width, 0) / 2
	hd := max(depth, 0) / 2

	return orb.Bound{
		Min: orb.Point{x - hw, z - hd},
		Max: orb.Point{x + hw, z + hd},
	}
}
