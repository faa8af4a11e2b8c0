package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/scene"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

var (
	errUnsupportedDim = errors.New("unsupported dimension; valid values are 2 and 3")
	errResultMismatch = errors.New("bvh and brute force results differ")
)

// Options for the bench command.
type benchOptions struct {
	Prims     int
	Rays      int
	Queries   int
	Seed      int64
	WorldSize float32
	MaxSize   float32
	Jitter    float32
	Workers   int
}

type benchStage struct {
	Name       string
	BVHTime    time.Duration
	BruteTime  time.Duration
	Hits       int
	Mismatches int
}

type benchResults struct {
	Stats  bvh.Stats
	Stages []benchStage
}

// Build a tree over random boxes and compare ray and box query results
// against a brute force scan, before and after a refit.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := benchOptions{
		Prims:     ctx.Int("prims"),
		Rays:      ctx.Int("rays"),
		Queries:   ctx.Int("queries"),
		Seed:      ctx.Int64("seed"),
		WorldSize: float32(ctx.Float64("world-size")),
		MaxSize:   float32(ctx.Float64("max-size")),
		Jitter:    float32(ctx.Float64("jitter")),
		Workers:   ctx.Int("workers"),
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	var (
		res benchResults
		err error
	)
	switch ctx.Int("dim") {
	case 2:
		res, err = runBench[types.Vec2](opts)
	case 3:
		res, err = runBench[types.Vec3](opts)
	default:
		return errUnsupportedDim
	}
	if err != nil {
		return err
	}

	logger.Noticef("BVH statistics:\n%s", res.Stats.Table())
	displayBenchResults(res)

	for _, stage := range res.Stages {
		if stage.Mismatches != 0 {
			return fmt.Errorf("%w: %d mismatches during stage %q", errResultMismatch, stage.Mismatches, stage.Name)
		}
	}
	return nil
}

func runBench[V types.Vector](opts benchOptions) (benchResults, error) {
	var res benchResults
	rng := rand.New(rand.NewSource(opts.Seed))

	logger.Infof("generating %d random boxes (%dD)", opts.Prims, len(types.Splat[V](0)))
	boxes := scene.RandomBoxes[V](rng, opts.Prims, opts.WorldSize, opts.MaxSize)

	start := time.Now()
	tree := bvh.Build[V](boxes)
	res.Stages = append(res.Stages, benchStage{Name: "Build", BVHTime: time.Since(start)})
	if err := tree.Validate(); err != nil {
		return res, err
	}

	rays := make([]types.Ray[V], opts.Rays)
	margin := 0.1 * opts.WorldSize
	for i := range rays {
		rays[i] = types.NewRay(
			scene.RandomPoint[V](rng, -margin, opts.WorldSize+margin),
			scene.RandomDir[V](rng),
		)
	}
	rayStage, bvhHits := benchRays(tree, boxes, rays)
	res.Stages = append(res.Stages, rayStage, benchParallelRays(tree, rays, bvhHits, opts.Workers))

	queries := make([]types.AABB[V], opts.Queries)
	for i := range queries {
		queries[i] = types.NewAABB(
			scene.RandomPoint[V](rng, 0, opts.WorldSize),
			scene.RandomPoint[V](rng, 0, opts.WorldSize),
		)
	}
	res.Stages = append(res.Stages, benchQueries("Box queries", tree, boxes, queries))

	logger.Infof("moving primitives by up to %.2f units and refitting", opts.Jitter)
	boxes.Jitter(rng, opts.Jitter)
	start = time.Now()
	tree.Refit()
	res.Stages = append(res.Stages, benchStage{Name: "Refit", BVHTime: time.Since(start)})
	if err := tree.Validate(); err != nil {
		return res, err
	}
	res.Stages = append(res.Stages, benchQueries("Box queries (refit)", tree, boxes, queries))

	res.Stats = tree.Stats()
	return res, nil
}

func benchRays[V types.Vector](tree *bvh.BVH[V], boxes scene.Boxes[V], rays []types.Ray[V]) (benchStage, []types.Hit) {
	stage := benchStage{Name: "Ray casts"}

	bvhHits := make([]types.Hit, len(rays))
	start := time.Now()
	for i := range rays {
		ray := rays[i]
		tree.IntersectRay(&ray)
		bvhHits[i] = ray.Hit
	}
	stage.BVHTime = time.Since(start)

	start = time.Now()
	for i := range rays {
		ray := rays[i]
		for primIndex := range boxes {
			if dist := ray.IntersectAABB(boxes[primIndex]); dist != types.NoHit {
				ray.Hit = types.Hit{T: dist, Index: uint32(primIndex)}
			}
		}
		if ray.Hit.Valid() {
			stage.Hits++
		}
		if ray.Hit.T != bvhHits[i].T {
			stage.Mismatches++
		}
	}
	stage.BruteTime = time.Since(start)

	return stage, bvhHits
}

// Cast the same rays from multiple workers and compare against the hits
// collected by the serial pass. The serial BVH time is used as the baseline.
func benchParallelRays[V types.Vector](tree *bvh.BVH[V], rays []types.Ray[V], serialHits []types.Hit, workers int) benchStage {
	stage := benchStage{Name: fmt.Sprintf("Ray casts (%d workers)", workers)}

	start := time.Now()
	hits := castRaysParallel(tree, rays, workers)
	stage.BVHTime = time.Since(start)

	for i, hit := range hits {
		if hit.Valid() {
			stage.Hits++
		}
		if hit != serialHits[i] {
			stage.Mismatches++
		}
	}
	return stage
}

func benchQueries[V types.Vector](name string, tree *bvh.BVH[V], boxes scene.Boxes[V], queries []types.AABB[V]) benchStage {
	stage := benchStage{Name: name}

	bvhResults := make([]bool, len(queries))
	start := time.Now()
	for i, query := range queries {
		bvhResults[i] = tree.IntersectBox(query)
	}
	stage.BVHTime = time.Since(start)

	start = time.Now()
	for i, query := range queries {
		found := false
		for _, box := range boxes {
			if query.Intersect(box) {
				found = true
				break
			}
		}
		if found {
			stage.Hits++
		}
		if found != bvhResults[i] {
			stage.Mismatches++
		}
	}
	stage.BruteTime = time.Since(start)

	return stage
}

func displayBenchResults(res benchResults) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "BVH", "Brute force", "Speedup", "Hits", "Mismatches"})
	var total time.Duration
	for _, stage := range res.Stages {
		total += stage.BVHTime
		bruteTime, speedup := "-", "-"
		if stage.BruteTime != 0 {
			bruteTime = stage.BruteTime.String()
			speedup = fmt.Sprintf("%.1fx", float64(stage.BruteTime)/float64(stage.BVHTime+1))
		}
		table.Append([]string{
			stage.Name,
			stage.BVHTime.String(),
			bruteTime,
			speedup,
			fmt.Sprintf("%d", stage.Hits),
			fmt.Sprintf("%d", stage.Mismatches),
		})
	}
	table.SetFooter([]string{"TOTAL", total.String(), "", "", "", ""})

	table.Render()
	logger.Noticef("benchmark results\n%s", buf.String())
}
