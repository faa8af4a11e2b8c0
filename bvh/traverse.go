package bvh

import "github.com/achilleasa/polaris-bvh/types"

// StackCapacity is the maximum number of pending nodes a traversal can track.
// SAH built trees are O(log N) deep so this is never reached in practice.
const StackCapacity = 64

type nodeStack struct {
	items [StackCapacity]uint32
	size  int
}

func (s *nodeStack) push(nodeIndex uint32) {
	if s.size == StackCapacity {
		panic(ErrStackOverflow)
	}
	s.items[s.size] = nodeIndex
	s.size++
}

func (s *nodeStack) pop() (uint32, bool) {
	if s.size == 0 {
		return 0, false
	}
	s.size--
	return s.items[s.size], true
}

// A BoxPredicate decides whether a primitive bbox satisfies a box query.
// Predicates must only accept proxies that intersect the query box; subtrees
// whose bbox does not intersect the query are never visited.
type BoxPredicate[V types.Vector] func(query, proxy types.AABB[V]) bool

// Overlaps accepts primitives whose bbox intersects the query box.
func Overlaps[V types.Vector](query, proxy types.AABB[V]) bool {
	return query.Intersect(proxy)
}

// Encloses accepts primitives whose bbox lies entirely inside the query box.
func Encloses[V types.Vector](query, proxy types.AABB[V]) bool {
	return query.ContainsAABB(proxy)
}

// IntersectBox returns true if at least one primitive bbox overlaps query.
func (t *BVH[V]) IntersectBox(query types.AABB[V]) bool {
	return t.QueryBox(query, Overlaps[V])
}

// EnclosesAny returns true if query fully contains at least one primitive bbox.
func (t *BVH[V]) EnclosesAny(query types.AABB[V]) bool {
	return t.QueryBox(query, Encloses[V])
}

// QueryBox returns true as soon as a primitive satisfying pred is found.
func (t *BVH[V]) QueryBox(query types.AABB[V], pred BoxPredicate[V]) bool {
	return t.visitBox(query, func(primIndex uint32) bool {
		return pred(query, t.container.BBox(int(primIndex)))
	})
}

// CollectBox appends the indices of all primitives whose bbox overlaps query
// to dst and returns the extended slice.
func (t *BVH[V]) CollectBox(query types.AABB[V], dst []uint32) []uint32 {
	t.visitBox(query, func(primIndex uint32) bool {
		if query.Intersect(t.container.BBox(int(primIndex))) {
			dst = append(dst, primIndex)
		}
		return false
	})
	return dst
}

// Walk all leafs whose bbox overlaps query and invoke visit for each of their
// primitives. The walk stops early and returns true if visit returns true.
func (t *BVH[V]) visitBox(query types.AABB[V], visit func(primIndex uint32) bool) bool {
	if len(t.indices) == 0 || !query.Intersect(t.nodes[0].BBox) {
		return false
	}

	var stack nodeStack
	nodeIndex := uint32(0)
	for {
		node := &t.nodes[nodeIndex]
		if node.IsLeaf() {
			for _, primIndex := range t.LeafIndices(node) {
				if visit(primIndex) {
					return true
				}
			}
		} else {
			left, right := node.Children()
			overlapL := query.Intersect(t.nodes[left].BBox)
			overlapR := query.Intersect(t.nodes[right].BBox)

			switch {
			case overlapL && overlapR:
				stack.push(right)
				nodeIndex = left
				continue
			case overlapL:
				nodeIndex = left
				continue
			case overlapR:
				nodeIndex = right
				continue
			}
		}

		next, ok := stack.pop()
		if !ok {
			return false
		}
		nodeIndex = next
	}
}

// IntersectRay traverses the tree and records the closest primitive hit in
// ray.Hit. Only hits closer than the current ray.Hit.T are considered so the
// same ray can be traced against multiple trees; Hit.Instance tells which
// tree produced the closest hit (see WithInstance).
func (t *BVH[V]) IntersectRay(ray *types.Ray[V]) {
	if len(t.indices) == 0 || ray.IntersectAABB(t.nodes[0].BBox) == types.NoHit {
		return
	}

	var stack nodeStack
	nodeIndex := uint32(0)
	for {
		node := &t.nodes[nodeIndex]
		if node.IsLeaf() {
			for _, primIndex := range t.LeafIndices(node) {
				t.intersectPrimitive(primIndex, ray)
			}

			next, ok := stack.pop()
			if !ok {
				return
			}
			nodeIndex = next
			continue
		}

		// Visit the closest child first; the farthest one is only queued
		// if the ray actually hits it.
		near, far := node.Children()
		distNear := ray.IntersectAABB(t.nodes[near].BBox)
		distFar := ray.IntersectAABB(t.nodes[far].BBox)
		if distFar < distNear {
			near, far = far, near
			distNear, distFar = distFar, distNear
		}

		if distNear == types.NoHit {
			next, ok := stack.pop()
			if !ok {
				return
			}
			nodeIndex = next
			continue
		}

		nodeIndex = near
		if distFar != types.NoHit {
			stack.push(far)
		}
	}
}

func (t *BVH[V]) intersectPrimitive(primIndex uint32, ray *types.Ray[V]) {
	var dist float32
	if t.rayTester != nil {
		dist = t.rayTester.IntersectRay(int(primIndex), ray)
	} else {
		dist = ray.IntersectAABB(t.container.BBox(int(primIndex)))
	}

	if dist < ray.Hit.T {
		ray.Hit = types.Hit{T: dist, Index: primIndex, Instance: t.instance}
	}
}
