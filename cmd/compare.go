package cmd

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/scene"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/dhconnelly/rtreego"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// rtreego rejects rects with zero length sides.
const rectEpsilon = 1e-6

// Adapts a primitive bbox to the rtreego.Spatial interface.
type rtreeBox struct {
	index int
	rect  rtreego.Rect
}

func (b *rtreeBox) Bounds() rtreego.Rect {
	return b.rect
}

func toRect(box types.AABB[types.Vec3]) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{float64(box.Min[0]), float64(box.Min[1]), float64(box.Min[2])},
		[]float64{
			math.Max(float64(box.Max[0]-box.Min[0]), rectEpsilon),
			math.Max(float64(box.Max[1]-box.Min[1]), rectEpsilon),
			math.Max(float64(box.Max[2]-box.Min[2]), rectEpsilon),
		},
	)
}

type compareResult struct {
	Name      string
	BuildTime time.Duration
	QueryTime time.Duration
	Results   int
}

// Compare box query performance of the BVH against an R-tree built over the
// same set of random primitives.
func Compare(ctx *cli.Context) error {
	setupLogging(ctx)

	results, err := runCompare(
		ctx.Int("prims"),
		ctx.Int("queries"),
		ctx.Int64("seed"),
		float32(ctx.Float64("world-size")),
		float32(ctx.Float64("max-size")),
	)
	if err != nil {
		return err
	}

	displayCompareResults(results)
	if results[0].Results != results[1].Results {
		logger.Warningf("result counts differ (%d vs %d); the R-tree pads degenerate rects and may treat touching boxes differently", results[0].Results, results[1].Results)
	}
	return nil
}

func runCompare(prims, queryCount int, seed int64, worldSize, maxSize float32) ([]compareResult, error) {
	rng := rand.New(rand.NewSource(seed))
	boxes := scene.RandomBoxes[types.Vec3](rng, prims, worldSize, maxSize)

	queries := make([]types.AABB[types.Vec3], queryCount)
	for i := range queries {
		center := scene.RandomPoint[types.Vec3](rng, 0, worldSize)
		half := types.Splat[types.Vec3](0.05 * worldSize)
		queries[i] = types.AABB[types.Vec3]{
			Min: types.SubVec(center, half),
			Max: types.AddVec(center, half),
		}
	}

	bvhRes := compareResult{Name: "BVH"}
	start := time.Now()
	tree := bvh.Build[types.Vec3](boxes)
	bvhRes.BuildTime = time.Since(start)

	var collected []uint32
	start = time.Now()
	for _, query := range queries {
		collected = tree.CollectBox(query, collected[:0])
		bvhRes.Results += len(collected)
	}
	bvhRes.QueryTime = time.Since(start)

	rtreeRes := compareResult{Name: "R-tree"}
	objs := make([]rtreego.Spatial, len(boxes))
	for i, box := range boxes {
		rect, err := toRect(box)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		objs[i] = &rtreeBox{index: i, rect: rect}
	}
	start = time.Now()
	rtree := rtreego.NewTree(3, 25, 50, objs...)
	rtreeRes.BuildTime = time.Since(start)

	queryRects := make([]rtreego.Rect, len(queries))
	for i, query := range queries {
		rect, err := toRect(query)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		queryRects[i] = rect
	}
	start = time.Now()
	for _, rect := range queryRects {
		rtreeRes.Results += len(rtree.SearchIntersect(rect))
	}
	rtreeRes.QueryTime = time.Since(start)

	logger.Infof("compared %d queries over %d primitives", queryCount, prims)
	return []compareResult{bvhRes, rtreeRes}, nil
}

func displayCompareResults(results []compareResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Build time", "Query time", "Results"})
	for _, res := range results {
		table.Append([]string{
			res.Name,
			res.BuildTime.String(),
			res.QueryTime.String(),
			fmt.Sprintf("%d", res.Results),
		})
	}

	table.Render()
	logger.Noticef("index comparison\n%s", buf.String())
}
