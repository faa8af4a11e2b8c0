package bvh

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-bvh/scene"
	"github.com/achilleasa/polaris-bvh/types"
)

func fourBoxScene() scene.Boxes[types.Vec2] {
	return scene.Boxes[types.Vec2]{
		scene.UnitBox(types.XY(0, 0)),
		scene.UnitBox(types.XY(10, 0)),
		scene.UnitBox(types.XY(0, 10)),
		scene.UnitBox(types.XY(10, 10)),
	}
}

func TestBuildEmpty(t *testing.T) {
	tree := Build[types.Vec3](scene.Boxes[types.Vec3]{})
	if tree.NodesUsed() != 1 {
		t.Fatalf("expected empty tree to have 1 node; got %d", tree.NodesUsed())
	}
	if tree.Root().Count != 0 {
		t.Fatalf("expected empty root to hold 0 primitives; got %d", tree.Root().Count)
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}

	nilTree := Build[types.Vec3](nil)
	if nilTree.Len() != 0 || nilTree.NodesUsed() != 1 {
		t.Fatalf("expected nil container to produce an empty tree; got %d primitives, %d nodes", nilTree.Len(), nilTree.NodesUsed())
	}

	// A typed nil pointer wrapped in the interface is empty as well
	nilMesh := Build[types.Vec3]((*scene.Mesh)(nil))
	if nilMesh.Len() != 0 || nilMesh.NodesUsed() != 1 {
		t.Fatalf("expected nil mesh to produce an empty tree; got %d primitives, %d nodes", nilMesh.Len(), nilMesh.NodesUsed())
	}
	ray := types.NewRay(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0))
	nilMesh.IntersectRay(&ray)
	if ray.Hit.Valid() {
		t.Fatalf("expected ray against nil mesh tree to miss; got %+v", ray.Hit)
	}
}

func TestBuildSinglePrimitive(t *testing.T) {
	box := types.NewAABB(types.XYZ(1, 2, 3), types.XYZ(4, 6, 8))
	tree := Build[types.Vec3](scene.Boxes[types.Vec3]{box})

	if tree.NodesUsed() != 1 {
		t.Fatalf("expected single primitive tree to have 1 node; got %d", tree.NodesUsed())
	}
	root := tree.Root()
	if !root.IsLeaf() || root.Count != 1 || root.LeftFirst != 0 {
		t.Fatalf("expected root to be a leaf with primitive range [0, 1); got leftFirst %d, count %d", root.LeftFirst, root.Count)
	}
	if root.BBox != box {
		t.Fatalf("expected root bbox to be %v; got %v", box, root.BBox)
	}
}

func TestBuildFourBoxes(t *testing.T) {
	var leafCount int
	seen := make(map[uint32]int)
	cb := func(nodeIndex uint32, indices []uint32) {
		leafCount++
		for _, primIndex := range indices {
			seen[primIndex]++
		}
	}

	tree := Build[types.Vec2](fourBoxScene(), WithLeafCallback(cb))

	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}

	expCount := 7
	if int(tree.NodesUsed()) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, tree.NodesUsed())
	}
	expCount = 4
	if leafCount != expCount {
		t.Fatalf("expected leaf callback to be called %d times; called %d", expCount, leafCount)
	}
	for primIndex := uint32(0); primIndex < 4; primIndex++ {
		if seen[primIndex] != 1 {
			t.Fatalf("expected primitive %d to appear in exactly 1 leaf; got %d", primIndex, seen[primIndex])
		}
	}

	// Leaf index ranges must not overlap
	covered := make([]bool, tree.Len())
	for _, node := range tree.Nodes() {
		if !node.IsLeaf() {
			continue
		}
		for i := node.LeftFirst; i < node.LeftFirst+node.Count; i++ {
			if covered[i] {
				t.Fatalf("expected leaf index ranges to be disjoint; offset %d is shared", i)
			}
			covered[i] = true
		}
	}
}

func TestBuildPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, count := range []int{1, 2, 3, 10, 100, 1000} {
		boxes2 := scene.RandomBoxes[types.Vec2](rng, count, 100, 5)
		tree2 := Build[types.Vec2](boxes2)
		if err := tree2.Validate(); err != nil {
			t.Fatalf("[2D, %d prims] %v", count, err)
		}
		assertPermutation(t, tree2.Indices())

		boxes3 := scene.RandomBoxes[types.Vec3](rng, count, 100, 5)
		tree3 := Build[types.Vec3](boxes3)
		if err := tree3.Validate(); err != nil {
			t.Fatalf("[3D, %d prims] %v", count, err)
		}
		assertPermutation(t, tree3.Indices())

		boxes4 := scene.RandomBoxes[types.Vec4](rng, count, 100, 5)
		tree4 := Build[types.Vec4](boxes4)
		if err := tree4.Validate(); err != nil {
			t.Fatalf("[4D, %d prims] %v", count, err)
		}
	}
}

func TestBuildCoincidentCentroids(t *testing.T) {
	// All centroids coincide so no axis can be split
	boxes := make(scene.Boxes[types.Vec3], 50)
	for i := range boxes {
		half := float32(i+1) * 0.1
		boxes[i] = types.NewAABB(types.XYZ(-half, -half, -half), types.XYZ(half, half, half))
	}

	tree := Build[types.Vec3](boxes)
	if tree.NodesUsed() != 1 {
		t.Fatalf("expected coincident centroids to produce a single leaf; got %d nodes", tree.NodesUsed())
	}
	if tree.Root().Count != 50 {
		t.Fatalf("expected root leaf to hold 50 primitives; got %d", tree.Root().Count)
	}
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestBuildSplitFully(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	count := 200
	boxes := scene.RandomBoxes[types.Vec3](rng, count, 10, 8)

	tree := Build[types.Vec3](boxes, WithSplitFully())
	if err := tree.Validate(); err != nil {
		t.Fatal(err)
	}

	expCount := 2*count - 1
	if int(tree.NodesUsed()) != expCount {
		t.Fatalf("expected fully split tree to have %d nodes; got %d", expCount, tree.NodesUsed())
	}
	for index, node := range tree.Nodes() {
		if node.IsLeaf() && node.Count != 1 {
			t.Fatalf("expected leaf %d to hold a single primitive; got %d", index, node.Count)
		}
	}
}

func TestBuildMinLeafItems(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	boxes := scene.RandomBoxes[types.Vec3](rng, 1000, 100, 2)

	for _, minItems := range []int{1, 4, 16} {
		tree := Build[types.Vec3](boxes, WithMinLeafItems(minItems), WithSplitFully())
		if err := tree.Validate(); err != nil {
			t.Fatalf("[min %d] %v", minItems, err)
		}

		// Children are allocated after their parents so a reverse pass
		// accumulates subtree primitive counts bottom-up.
		nodes := tree.Nodes()
		subtreeCount := make([]uint32, len(nodes))
		for i := len(nodes) - 1; i >= 0; i-- {
			node := &nodes[i]
			if node.IsLeaf() {
				if int(node.Count) > minItems {
					t.Fatalf("[min %d] expected fully split leaf %d to hold at most %d primitives; got %d", minItems, i, minItems, node.Count)
				}
				subtreeCount[i] = node.Count
				continue
			}

			left, right := node.Children()
			subtreeCount[i] = subtreeCount[left] + subtreeCount[right]
			if int(subtreeCount[i]) <= minItems {
				t.Fatalf("[min %d] expected internal node %d to hold more than %d primitives; got %d", minItems, i, minItems, subtreeCount[i])
			}
		}
	}

	// Values below 1 fall back to single primitive leafs
	tree := Build[types.Vec3](boxes, WithMinLeafItems(0), WithSplitFully())
	if exp := 2*len(boxes) - 1; int(tree.NodesUsed()) != exp {
		t.Fatalf("expected %d nodes; got %d", exp, tree.NodesUsed())
	}

	// A threshold covering every primitive yields a single leaf
	tree = Build[types.Vec3](boxes, WithMinLeafItems(len(boxes)))
	if tree.NodesUsed() != 1 || tree.Root().Count != uint32(len(boxes)) {
		t.Fatalf("expected a single leaf holding %d primitives; got %d nodes", len(boxes), tree.NodesUsed())
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	firstLeaf := func(tree *BVH[types.Vec2]) *Node[types.Vec2] {
		nodes := tree.Nodes()
		for i := range nodes {
			if nodes[i].IsLeaf() {
				return &nodes[i]
			}
		}
		return nil
	}

	type spec struct {
		descr   string
		corrupt func(tree *BVH[types.Vec2])
	}
	specs := []spec{
		{"shrunk leaf bbox", func(tree *BVH[types.Vec2]) {
			leaf := firstLeaf(tree)
			leaf.BBox.Max = leaf.BBox.Min
		}},
		{"duplicate primitive index", func(tree *BVH[types.Vec2]) {
			tree.indices[1] = tree.indices[0]
		}},
		{"leaf count overrun", func(tree *BVH[types.Vec2]) {
			firstLeaf(tree).Count = uint32(tree.Len()) + 1
		}},
		{"backwards child index", func(tree *BVH[types.Vec2]) {
			tree.nodes[0].LeftFirst = 0
		}},
		{"unreachable node", func(tree *BVH[types.Vec2]) {
			tree.nodesUsed++
		}},
		{"shrunk internal bbox", func(tree *BVH[types.Vec2]) {
			tree.nodes[0].BBox = types.NewAABB(types.XY(0, 0), types.XY(1, 1))
		}},
	}

	rng := rand.New(rand.NewSource(21))
	boxes := scene.RandomBoxes[types.Vec2](rng, 200, 100, 5)
	for _, s := range specs {
		tree := Build[types.Vec2](boxes)
		if err := tree.Validate(); err != nil {
			t.Fatalf("[%s] expected freshly built tree to be valid; got %v", s.descr, err)
		}

		s.corrupt(tree)
		err := tree.Validate()
		if !errors.Is(err, ErrInvalidTree) {
			t.Fatalf("[%s] expected Validate to return ErrInvalidTree; got %v", s.descr, err)
		}
	}
}

// Records warnings and debug messages emitted by the builder.
type recordingLogger struct {
	debug    []string
	warnings []string
}

func (l *recordingLogger) Debug(v ...interface{}) {
	l.debug = append(l.debug, fmt.Sprint(v...))
}

func (l *recordingLogger) Debugf(format string, v ...interface{}) {
	l.debug = append(l.debug, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Warning(v ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprint(v...))
}

func (l *recordingLogger) Warningf(format string, v ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, v...))
}

func (l *recordingLogger) Notice(v ...interface{})                 {}
func (l *recordingLogger) Noticef(format string, v ...interface{}) {}
func (l *recordingLogger) Info(v ...interface{})                   {}
func (l *recordingLogger) Infof(format string, v ...interface{})   {}
func (l *recordingLogger) Error(v ...interface{})                  {}
func (l *recordingLogger) Errorf(format string, v ...interface{})  {}

func TestBuildWithLogger(t *testing.T) {
	logger := &recordingLogger{}
	Build[types.Vec2](fourBoxScene(), WithLogger(logger))

	if len(logger.debug) != 1 || !strings.Contains(logger.debug[0], "nodes: 7, leafs: 4") {
		t.Fatalf("expected build statistics to be logged; got %v", logger.debug)
	}
	if len(logger.warnings) != 0 {
		t.Fatalf("expected no warnings for a shallow tree; got %v", logger.warnings)
	}
}

func TestCheckDepthWarning(t *testing.T) {
	type spec struct {
		depth       int
		expWarnings int
	}
	specs := []spec{
		{StackCapacity - 1, 0},
		{StackCapacity, 1},
		{StackCapacity + 10, 1},
	}

	for index, s := range specs {
		logger := &recordingLogger{}
		tree := chainTree(s.depth)
		tree.checkDepth(logger)

		if len(logger.warnings) != s.expWarnings {
			t.Fatalf("[spec %d] expected %d warnings; got %v", index, s.expWarnings, logger.warnings)
		}
		if s.expWarnings != 0 && !strings.Contains(logger.warnings[0], fmt.Sprintf("depth %d", s.depth)) {
			t.Fatalf("[spec %d] expected warning to mention depth %d; got %q", index, s.depth, logger.warnings[0])
		}
	}
}

func TestNodeCost(t *testing.T) {
	type spec struct {
		node    Node[types.Vec3]
		expCost float32
	}
	specs := []spec{
		{Node[types.Vec3]{BBox: types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 2, 3)), Count: 2}, 2 * (2*3 + 1*3 + 1*2)},
		{Node[types.Vec3]{BBox: types.NewAABB(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)), Count: 0}, 0},
		{Node[types.Vec3]{BBox: types.EmptyAABB[types.Vec3](), Count: 3}, 0},
	}

	for index, s := range specs {
		if cost := s.node.Cost(); cost != s.expCost {
			t.Fatalf("[spec %d] expected node cost %f; got %f", index, s.expCost, cost)
		}
	}
}

func TestBinIndex(t *testing.T) {
	type spec struct {
		coord  float32
		expBin int
	}
	specs := []spec{
		{0, 0},
		{1.24, 0},
		{1.25, 1},
		{9.99, 7},
		{10, 7},
		{-1, 0},
	}

	scale := float32(numBins) / 10
	for index, s := range specs {
		if bi := binIndex(s.coord, 0, scale); bi != s.expBin {
			t.Fatalf("[spec %d] expected coord %f to map to bin %d; got %d", index, s.coord, s.expBin, bi)
		}
	}
}

func assertPermutation(t *testing.T, indices []uint32) {
	t.Helper()
	seen := make([]bool, len(indices))
	for _, primIndex := range indices {
		if int(primIndex) >= len(indices) || seen[primIndex] {
			t.Fatalf("expected index array to be a permutation of [0, %d); found duplicate or out of range index %d", len(indices), primIndex)
		}
		seen[primIndex] = true
	}
}

func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	boxes := scene.RandomBoxes[types.Vec3](rng, 100000, 1000, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Build[types.Vec3](boxes)
	}
}
