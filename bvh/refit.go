package bvh

import "github.com/achilleasa/polaris-bvh/types"

// Refit recalculates all node bboxes bottom-up after primitives have moved.
// The tree topology is left untouched so the SAH quality of the tree degrades
// as primitives drift away from their original positions; a full Build is
// required to restore it.
//
// Child nodes are always allocated after their parent so iterating the node
// list backwards updates children before their parents.
func (t *BVH[V]) Refit() {
	if len(t.indices) == 0 {
		return
	}

	for i := int(t.nodesUsed) - 1; i >= 0; i-- {
		node := &t.nodes[i]
		if node.IsLeaf() {
			node.BBox = t.leafBounds(node)
			continue
		}

		left, right := node.Children()
		node.BBox = types.Union(t.nodes[left].BBox, t.nodes[right].BBox)
	}
}
