package bvh

import "github.com/achilleasa/polaris-bvh/types"

// Bvh node definition. The meaning of LeftFirst depends on the node type:
//
// - For leafs (Count > 0) it is the offset of the first primitive index in
// the index array; the leaf owns Count consecutive entries.
// - For internal nodes (Count == 0) it is the index of the left child. The
// right child is always stored at LeftFirst + 1.
type Node[V types.Vector] struct {
	BBox      types.AABB[V]
	LeftFirst uint32
	Count     uint32
}

// IsLeaf returns true if the node references a range of primitives.
func (n *Node[V]) IsLeaf() bool {
	return n.Count > 0
}

// Cost returns the SAH cost of keeping this node as a leaf:
// bbox area * primitive count.
func (n *Node[V]) Cost() float32 {
	return n.BBox.Area() * float32(n.Count)
}

// Children returns the indices of the left and right child nodes.
// It must only be called for internal nodes.
func (n *Node[V]) Children() (left, right uint32) {
	return n.LeftFirst, n.LeftFirst + 1
}

// Primitives returns the [first, first+count) range of the index array
// that belongs to a leaf.
func (n *Node[V]) Primitives() (first, count uint32) {
	return n.LeftFirst, n.Count
}
