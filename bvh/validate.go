package bvh

import "fmt"

// Validate checks the structural invariants of the tree:
//
// - every allocated node is reachable from the root exactly once
// - children are allocated after their parent and within the used node range
// - node bboxes contain their children (or leaf primitive) bboxes
// - the leaf index ranges form a permutation of [0, Len())
//
// It returns an error wrapping ErrInvalidTree describing the first violation.
func (t *BVH[V]) Validate() error {
	primCount := len(t.indices)
	if primCount == 0 {
		if t.nodesUsed != 1 || t.nodes[0].Count != 0 {
			return fmt.Errorf("%w: empty tree must consist of a single empty root", ErrInvalidTree)
		}
		return nil
	}

	seenPrims := make([]bool, primCount)
	seenNodes := make([]bool, t.nodesUsed)
	pending := []uint32{0}
	for len(pending) > 0 {
		nodeIndex := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if seenNodes[nodeIndex] {
			return fmt.Errorf("%w: node %d is referenced more than once", ErrInvalidTree, nodeIndex)
		}
		seenNodes[nodeIndex] = true

		node := &t.nodes[nodeIndex]
		if node.IsLeaf() {
			first, count := node.Primitives()
			if int(first)+int(count) > primCount {
				return fmt.Errorf("%w: leaf %d range [%d, %d) exceeds index array length %d", ErrInvalidTree, nodeIndex, first, first+count, primCount)
			}
			for _, primIndex := range t.LeafIndices(node) {
				if int(primIndex) >= primCount {
					return fmt.Errorf("%w: leaf %d references out of range primitive %d", ErrInvalidTree, nodeIndex, primIndex)
				}
				if seenPrims[primIndex] {
					return fmt.Errorf("%w: primitive %d appears in more than one leaf", ErrInvalidTree, primIndex)
				}
				seenPrims[primIndex] = true

				if !node.BBox.ContainsAABB(t.container.BBox(int(primIndex))) {
					return fmt.Errorf("%w: leaf %d bbox does not contain primitive %d", ErrInvalidTree, nodeIndex, primIndex)
				}
			}
			continue
		}

		left, right := node.Children()
		if left <= nodeIndex || right >= t.nodesUsed {
			return fmt.Errorf("%w: internal node %d has invalid children (%d, %d)", ErrInvalidTree, nodeIndex, left, right)
		}
		for _, child := range []uint32{left, right} {
			if !node.BBox.ContainsAABB(t.nodes[child].BBox) {
				return fmt.Errorf("%w: node %d bbox does not contain child %d", ErrInvalidTree, nodeIndex, child)
			}
		}
		pending = append(pending, left, right)
	}

	for nodeIndex, seen := range seenNodes {
		if !seen {
			return fmt.Errorf("%w: node %d is not reachable from the root", ErrInvalidTree, nodeIndex)
		}
	}
	for primIndex, seen := range seenPrims {
		if !seen {
			return fmt.Errorf("%w: primitive %d is not referenced by any leaf", ErrInvalidTree, primIndex)
		}
	}
	return nil
}
