package cmd

import (
	"errors"
	"strings"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/scene"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/urfave/cli"
)

var errMissingMeshFile = errors.New("missing wavefront obj mesh file argument")

// Build a BVH for each supplied mesh and display the tree statistics.
func BuildMeshes(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errMissingMeshFile
	}

	var opts []bvh.Option
	if ctx.Bool("split-fully") {
		opts = append(opts, bvh.WithSplitFully())
	}
	if minLeafItems := ctx.Int("min-leaf"); minLeafItems > 1 {
		opts = append(opts, bvh.WithMinLeafItems(minLeafItems))
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(meshFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", meshFile)
			continue
		}

		logger.Noticef("parsing mesh: %s", meshFile)
		mesh, err := scene.ReadMesh(meshFile)
		if err != nil {
			return err
		}

		tree := bvh.Build[types.Vec3](mesh, opts...)
		if ctx.Bool("validate") {
			if err = tree.Validate(); err != nil {
				return err
			}
			logger.Notice("tree invariants validated")
		}

		logger.Noticef("BVH statistics for %s:\n%s", meshFile, tree.Stats().Table())
	}

	return nil
}
