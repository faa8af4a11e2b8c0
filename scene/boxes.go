package scene

import "github.com/achilleasa/polaris-bvh/types"

// Boxes is a primitive container whose primitives are axis-aligned boxes.
type Boxes[V types.Vector] []types.AABB[V]

// Len returns the number of boxes.
func (b Boxes[V]) Len() int {
	return len(b)
}

// BBox returns the box at index.
func (b Boxes[V]) BBox(index int) types.AABB[V] {
	return b[index]
}

// Center returns the center of the box at index.
func (b Boxes[V]) Center(index int) V {
	return b[index].Center()
}

// Translate moves the box at index by offset.
func (b Boxes[V]) Translate(index int, offset V) {
	b[index].Min = types.AddVec(b[index].Min, offset)
	b[index].Max = types.AddVec(b[index].Max, offset)
}

// UnitBox returns a box with unit side length centered at center.
func UnitBox[V types.Vector](center V) types.AABB[V] {
	half := types.Splat[V](0.5)
	return types.AABB[V]{
		Min: types.SubVec(center, half),
		Max: types.AddVec(center, half),
	}
}
