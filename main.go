package main

import (
	"os"

	"github.com/achilleasa/polaris-bvh/cmd"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	// Flags shared by the commands that work on random scenes.
	sceneFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "prims, n",
			Value: 100000,
			Usage: "number of random primitives",
		},
		cli.IntFlag{
			Name:  "queries, q",
			Value: 10000,
			Usage: "number of random box queries",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random number generator seed",
		},
		cli.Float64Flag{
			Name:  "world-size",
			Value: 1000,
			Usage: "side length of the region primitives are placed in",
		},
		cli.Float64Flag{
			Name:  "max-size",
			Value: 10,
			Usage: "maximum primitive side length",
		},
	}

	app := cli.NewApp()
	app.Name = "polaris-bvh"
	app.Usage = "build and query bounding volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH for one or more meshes and display tree statistics",
			Description: `
Parse triangle meshes from wavefront obj files and build a binned SAH BVH
over their triangles. Tree statistics are displayed for each mesh.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "validate",
					Usage: "check tree invariants after the build",
				},
				cli.BoolFlag{
					Name:  "split-fully",
					Usage: "keep splitting until every leaf holds a single primitive",
				},
				cli.IntFlag{
					Name:  "min-leaf",
					Value: 1,
					Usage: "nodes with at most this many primitives always become leafs",
				},
			},
			Action: cmd.BuildMeshes,
		},
		{
			Name:  "bench",
			Usage: "benchmark BVH queries against a brute force scan",
			Description: `
Build a BVH over random boxes and time ray casts and box queries against a
brute force scan of every primitive. The primitives are then moved by a random
offset, the tree is refitted and the box queries are repeated.

The command fails if any BVH result differs from the brute force result.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "dim, d",
					Value: 3,
					Usage: "scene dimension (2 or 3)",
				},
				cli.IntFlag{
					Name:  "rays, r",
					Value: 10000,
					Usage: "number of random rays",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of workers for the parallel ray pass (defaults to the number of CPUs)",
				},
				cli.Float64Flag{
					Name:  "jitter",
					Value: 1,
					Usage: "maximum per-axis primitive offset applied before refitting",
				},
			}, sceneFlags...),
			Action: cmd.Bench,
		},
		{
			Name:   "compare",
			Usage:  "compare BVH box queries against an R-tree",
			Flags:  sceneFlags,
			Action: cmd.Compare,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("polaris-bvh").Error(err)
		os.Exit(1)
	}
}
