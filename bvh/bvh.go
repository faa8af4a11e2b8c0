// Package bvh implements a bounding volume hierarchy over axis-aligned
// primitive proxies. Trees are built top-down using a binned surface area
// heuristic and stored as a flat node array together with a permutation of
// the primitive indices so that every leaf owns a contiguous index range.
//
// A built tree is read-only for queries; multiple goroutines may run
// IntersectBox/IntersectRay concurrently as long as nobody calls Refit.
package bvh

import (
	"time"

	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
)

// The Container interface is implemented by primitive collections that can
// be partitioned by the bvh builder. Primitives are addressed by their index
// in [0, Len()). The BVH never copies primitive data; it keeps a reference to
// the container which must stay valid for the lifetime of the tree.
type Container[V types.Vector] interface {
	Len() int
	BBox(index int) types.AABB[V]
	Center(index int) V
}

// RayIntersector can be optionally implemented by a Container to provide an
// exact ray test for its primitives. IntersectRay returns the hit distance or
// types.NoHit. Reported distances must never be smaller than the entry
// distance into the primitive's bounding box.
//
// Containers that do not implement this interface are tested against their
// bounding boxes.
type RayIntersector[V types.Vector] interface {
	IntersectRay(index int, ray *types.Ray[V]) float32
}

// A callback that is called whenever the BVH builder creates a new leaf.
// The indices slice aliases the tree index array and must not be modified.
type LeafCallback func(nodeIndex uint32, indices []uint32)

type config struct {
	logger       log.Logger
	leafCb       LeafCallback
	splitFully   bool
	minLeafItems int
	instance     uint32
}

// Option customizes the BVH builder.
type Option func(*config)

// WithLeafCallback registers a callback that is invoked for each leaf
// produced by the builder.
func WithLeafCallback(cb LeafCallback) Option {
	return func(c *config) {
		c.leafCb = cb
	}
}

// WithSplitFully forces the builder to keep splitting nodes until each leaf
// holds a single primitive (or at most the WithMinLeafItems count), even when SAH reports that a split does not pay
// off. Nodes whose primitives share the same centroid still end up as
// multi-primitive leafs.
func WithSplitFully() Option {
	return func(c *config) {
		c.splitFully = true
	}
}

// WithMinLeafItems makes the builder turn every node holding at most n
// primitives into a leaf without evaluating any splits. Values below 1 are
// treated as 1.
func WithMinLeafItems(n int) Option {
	return func(c *config) {
		c.minLeafItems = n
	}
}

// WithInstance sets the instance id that the tree stamps on the ray hits it
// produces.
func WithInstance(id uint32) Option {
	return func(c *config) {
		c.instance = id
	}
}

// WithLogger overrides the logger used for reporting build statistics.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// BVH is a bounding volume hierarchy over the primitives of a Container.
type BVH[V types.Vector] struct {
	container Container[V]
	rayTester RayIntersector[V]

	// Bvh nodes stored as a contiguous list; node 0 is the root. Sibling
	// nodes are always allocated next to each other.
	nodes     []Node[V]
	nodesUsed uint32

	// A permutation of [0, container.Len()).
	indices []uint32

	instance  uint32
	buildTime time.Duration
	maxDepth  int
}

// Len returns the number of primitives indexed by the tree.
func (t *BVH[V]) Len() int {
	return len(t.indices)
}

// Instance returns the id recorded in Hit.Instance for hits against this tree.
func (t *BVH[V]) Instance() uint32 {
	return t.instance
}

// Root returns the root node.
func (t *BVH[V]) Root() Node[V] {
	return t.nodes[0]
}

// Nodes returns the allocated tree nodes. The returned slice aliases the
// tree storage.
func (t *BVH[V]) Nodes() []Node[V] {
	return t.nodes[:t.nodesUsed]
}

// NodesUsed returns the number of allocated nodes.
func (t *BVH[V]) NodesUsed() uint32 {
	return t.nodesUsed
}

// Indices returns the primitive index array. The returned slice aliases the
// tree storage.
func (t *BVH[V]) Indices() []uint32 {
	return t.indices
}

// LeafIndices returns the primitive indices owned by a leaf node.
func (t *BVH[V]) LeafIndices(node *Node[V]) []uint32 {
	first, count := node.Primitives()
	return t.indices[first : first+count]
}

// Recalculate the bbox of a node from the primitives in its index range.
func (t *BVH[V]) leafBounds(node *Node[V]) types.AABB[V] {
	bbox := types.EmptyAABB[V]()
	for _, primIndex := range t.LeafIndices(node) {
		bbox.GrowAABB(t.container.BBox(int(primIndex)))
	}
	return bbox
}
