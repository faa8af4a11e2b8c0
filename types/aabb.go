package types

import "math"

// AABB is an axis-aligned bounding box with inclusive Min and Max corners.
type AABB[V Vector] struct {
	Min V
	Max V
}

// EmptyAABB returns an inverted box that any Grow call will replace.
func EmptyAABB[V Vector]() AABB[V] {
	return AABB[V]{
		Min: Splat[V](math.MaxFloat32),
		Max: Splat[V](-math.MaxFloat32),
	}
}

// NewAABB returns the box spanning the two corners in any order.
func NewAABB[V Vector](a, b V) AABB[V] {
	return AABB[V]{Min: MinVec(a, b), Max: MaxVec(a, b)}
}

// IsEmpty returns true if the box has not been grown yet.
func (b AABB[V]) IsEmpty() bool {
	for i := 0; i < len(b.Min); i++ {
		if b.Min[i] > b.Max[i] {
			return true
		}
	}
	return false
}

// Grow expands the box to include point.
func (b *AABB[V]) Grow(point V) {
	b.Min = MinVec(b.Min, point)
	b.Max = MaxVec(b.Max, point)
}

// GrowAABB expands the box to include other. Growing by an empty box is a no-op.
func (b *AABB[V]) GrowAABB(other AABB[V]) {
	if other.IsEmpty() {
		return
	}
	b.Min = MinVec(b.Min, other.Min)
	b.Max = MaxVec(b.Max, other.Max)
}

// Union returns the smallest box containing both a and b.
func Union[V Vector](a, b AABB[V]) AABB[V] {
	a.GrowAABB(b)
	return a
}

// Extent returns the box side lengths.
func (b AABB[V]) Extent() V {
	return SubVec(b.Max, b.Min)
}

// Center returns the box mid point.
func (b AABB[V]) Center() V {
	return ScaleVec(AddVec(b.Min, b.Max), 0.5)
}

// Area returns the dimension-general surface measure of the box: the sum,
// over all axes, of the product of the extents along the remaining axes. For
// 3D boxes this is half the surface area; for 2D boxes half the perimeter.
// Empty boxes have zero area.
func (b AABB[V]) Area() float32 {
	if b.IsEmpty() {
		return 0
	}

	side := b.Extent()
	var sum float32
	for i := 0; i < len(side); i++ {
		face := float32(1)
		for j := 0; j < len(side); j++ {
			if i != j {
				face *= side[j]
			}
		}
		sum += face
	}
	return sum
}

// Volume returns the product of the box extents. Empty boxes have zero volume.
func (b AABB[V]) Volume() float32 {
	if b.IsEmpty() {
		return 0
	}

	side := b.Extent()
	vol := float32(1)
	for i := 0; i < len(side); i++ {
		vol *= side[i]
	}
	return vol
}

// Intersect returns true if the two boxes overlap. Boxes that only touch
// along a face, edge or corner are considered to overlap.
func (b AABB[V]) Intersect(other AABB[V]) bool {
	for i := 0; i < len(b.Min); i++ {
		if b.Min[i] > other.Max[i] || b.Max[i] < other.Min[i] {
			return false
		}
	}
	return true
}

// Contains returns true if point lies inside or on the boundary of the box.
func (b AABB[V]) Contains(point V) bool {
	for i := 0; i < len(b.Min); i++ {
		if point[i] < b.Min[i] || point[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// ContainsAABB returns true if other lies entirely inside the box.
// An empty box is contained by every box.
func (b AABB[V]) ContainsAABB(other AABB[V]) bool {
	if other.IsEmpty() {
		return true
	}
	return b.Contains(other.Min) && b.Contains(other.Max)
}
