package bvh

import (
	"math"
	"time"

	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
)

// The number of bins used for evaluating split candidates along each axis.
const numBins = 8

type splitCandidate struct {
	axis int

	// Primitives whose centroid falls in a bin < boundary go to the left child.
	boundary int

	cost float32
}

type bin[V types.Vector] struct {
	bbox  types.AABB[V]
	count uint32
}

type builder[V types.Vector] struct {
	logger log.Logger
	tree   *BVH[V]

	leafCb       LeafCallback
	splitFully   bool
	minLeafItems uint32

	leafs int
}

// Build constructs a BVH over the primitives of container.
//
// The builder recursively splits nodes along the axis/bin boundary with the
// lowest SAH score:
//
// left count * left bbox area + right count * right bbox area
//
// A node becomes a leaf if no split scores better than the node's own cost
// (count * bbox area) or if its primitive centroids cannot be separated.
//
// An empty (or nil) container produces a tree with a single empty root that
// answers every query negatively.
func Build[V types.Vector](container Container[V], opts ...Option) *BVH[V] {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.New("bvh builder")
	}

	count := 0
	if container != nil {
		count = container.Len()
	}

	nodeCap := 2 * count
	if nodeCap == 0 {
		nodeCap = 1
	}

	tree := &BVH[V]{
		container: container,
		nodes:     make([]Node[V], nodeCap),
		indices:   make([]uint32, count),
		nodesUsed: 1,
		instance:  cfg.instance,
	}
	if rt, ok := container.(RayIntersector[V]); ok {
		tree.rayTester = rt
	}
	for i := range tree.indices {
		tree.indices[i] = uint32(i)
	}

	if cfg.minLeafItems < 1 {
		cfg.minLeafItems = 1
	}

	b := &builder[V]{
		logger:       cfg.logger,
		tree:         tree,
		leafCb:       cfg.leafCb,
		splitFully:   cfg.splitFully,
		minLeafItems: uint32(cfg.minLeafItems),
	}

	start := time.Now()
	root := &tree.nodes[0]
	root.Count = uint32(count)
	if count == 0 {
		root.BBox = types.EmptyAABB[V]()
	} else {
		centroids := b.updateNodeBounds(0)
		b.subdivide(0, centroids, 0)
	}
	tree.buildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, primitives: %d, maxDepth: %d, nodes: %d, leafs: %d",
		tree.buildTime.Nanoseconds()/1e6,
		count, tree.maxDepth, tree.nodesUsed, b.leafs,
	)
	tree.checkDepth(b.logger)
	return tree
}

// Warn if the tree is deep enough for traversals to overflow their stack.
func (t *BVH[V]) checkDepth(logger log.Logger) {
	if t.maxDepth >= StackCapacity {
		logger.Warningf(
			"BVH tree depth %d exceeds traversal stack capacity %d; queries may overflow",
			t.maxDepth, StackCapacity,
		)
	}
}

// Recalculate the bbox of a node and return the bbox of its primitive centroids.
func (b *builder[V]) updateNodeBounds(nodeIndex uint32) types.AABB[V] {
	node := &b.tree.nodes[nodeIndex]
	node.BBox = types.EmptyAABB[V]()
	centroids := types.EmptyAABB[V]()
	for _, primIndex := range b.tree.LeafIndices(node) {
		node.BBox.GrowAABB(b.tree.container.BBox(int(primIndex)))
		centroids.Grow(b.tree.container.Center(int(primIndex)))
	}
	return centroids
}

// Split node into two children if that lowers the SAH cost and recurse.
func (b *builder[V]) subdivide(nodeIndex uint32, centroids types.AABB[V], depth int) {
	if depth > b.tree.maxDepth {
		b.tree.maxDepth = depth
	}

	node := &b.tree.nodes[nodeIndex]
	if node.Count <= b.minLeafItems {
		b.createLeaf(nodeIndex)
		return
	}

	split, found := b.findBestSplit(node, centroids)
	if !found || (!b.splitFully && split.cost >= node.Cost()) {
		b.createLeaf(nodeIndex)
		return
	}

	// In-place partition of the node's index range using the same binning
	// formula as findBestSplit.
	binMin := centroids.Min[split.axis]
	scale := numBins / (centroids.Max[split.axis] - binMin)
	indices := b.tree.indices
	i := node.LeftFirst
	j := node.LeftFirst + node.Count
	for i < j {
		center := b.tree.container.Center(int(indices[i]))
		if binIndex(center[split.axis], binMin, scale) < split.boundary {
			i++
		} else {
			j--
			indices[i], indices[j] = indices[j], indices[i]
		}
	}

	// Floating point effects may still leave one side empty
	leftCount := i - node.LeftFirst
	if leftCount == 0 || leftCount == node.Count {
		b.createLeaf(nodeIndex)
		return
	}

	leftIndex := b.tree.nodesUsed
	rightIndex := leftIndex + 1
	b.tree.nodesUsed += 2

	b.tree.nodes[leftIndex] = Node[V]{LeftFirst: node.LeftFirst, Count: leftCount}
	b.tree.nodes[rightIndex] = Node[V]{LeftFirst: i, Count: node.Count - leftCount}
	node.LeftFirst = leftIndex
	node.Count = 0

	leftCentroids := b.updateNodeBounds(leftIndex)
	b.subdivide(leftIndex, leftCentroids, depth+1)
	rightCentroids := b.updateNodeBounds(rightIndex)
	b.subdivide(rightIndex, rightCentroids, depth+1)
}

// Bin the node's primitives along each axis and evaluate the SAH cost of the
// numBins-1 boundaries between bins. Returns false if the centroid bbox is
// degenerate along every axis.
func (b *builder[V]) findBestSplit(node *Node[V], centroids types.AABB[V]) (best splitCandidate, found bool) {
	best.cost = math.MaxFloat32
	container := b.tree.container
	primIndices := b.tree.LeafIndices(node)

	for axis := 0; axis < len(centroids.Min); axis++ {
		binMin, binMax := centroids.Min[axis], centroids.Max[axis]
		if binMin == binMax {
			continue
		}

		var bins [numBins]bin[V]
		for i := range bins {
			bins[i].bbox = types.EmptyAABB[V]()
		}

		scale := numBins / (binMax - binMin)
		for _, primIndex := range primIndices {
			center := container.Center(int(primIndex))
			bi := binIndex(center[axis], binMin, scale)
			bins[bi].count++
			bins[bi].bbox.GrowAABB(container.BBox(int(primIndex)))
		}

		// Sweep the boundaries from both ends accumulating counts and bboxes
		var leftCost, rightCost [numBins - 1]float32
		var leftCount [numBins - 1]uint32
		leftBox := types.EmptyAABB[V]()
		rightBox := types.EmptyAABB[V]()
		var leftSum, rightSum uint32
		for i := 0; i < numBins-1; i++ {
			leftSum += bins[i].count
			leftCount[i] = leftSum
			leftBox.GrowAABB(bins[i].bbox)
			leftCost[i] = float32(leftSum) * leftBox.Area()

			rightSum += bins[numBins-1-i].count
			rightBox.GrowAABB(bins[numBins-1-i].bbox)
			rightCost[numBins-2-i] = float32(rightSum) * rightBox.Area()
		}

		for i := 0; i < numBins-1; i++ {
			// Boundaries that leave a side empty are not splits
			if leftCount[i] == 0 || leftCount[i] == node.Count {
				continue
			}
			cost := leftCost[i] + rightCost[i]
			if cost < best.cost {
				best = splitCandidate{axis: axis, boundary: i + 1, cost: cost}
				found = true
			}
		}
	}

	return best, found
}

// Setup the given node as a leaf and notify the leaf callback.
func (b *builder[V]) createLeaf(nodeIndex uint32) {
	b.leafs++
	if b.leafCb != nil {
		node := &b.tree.nodes[nodeIndex]
		b.leafCb(nodeIndex, b.tree.LeafIndices(node))
	}
}

// Map a centroid coordinate to its bin.
func binIndex(coord, binMin, scale float32) int {
	bi := int((coord - binMin) * scale)
	if bi < 0 {
		return 0
	}
	if bi > numBins-1 {
		return numBins - 1
	}
	return bi
}
