package cmd

import (
	"sync"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
)

// Split total items into contiguous blocks, one per worker. Blocks differ in
// size by at most one item; the first total%workers workers get the extra item.
func splitBlocks(total, workers int) []int {
	if workers < 1 {
		workers = 1
	}
	if workers > total && total > 0 {
		workers = total
	}

	blocks := make([]int, workers)
	perWorker, rem := total/workers, total%workers
	for w := range blocks {
		blocks[w] = perWorker
		if w < rem {
			blocks[w]++
		}
	}
	return blocks
}

// Cast rays against the tree using a pool of workers. Each worker traces a
// contiguous block of rays and writes the closest hits into the matching
// slots of the returned slice. The tree is only read so no locking is needed.
func castRaysParallel[V types.Vector](tree *bvh.BVH[V], rays []types.Ray[V], workers int) []types.Hit {
	hits := make([]types.Hit, len(rays))

	var wg sync.WaitGroup
	offset := 0
	for _, blockLen := range splitBlocks(len(rays), workers) {
		wg.Add(1)
		go func(first, count int) {
			defer wg.Done()
			for i := first; i < first+count; i++ {
				ray := rays[i]
				tree.IntersectRay(&ray)
				hits[i] = ray.Hit
			}
		}(offset, blockLen)
		offset += blockLen
	}
	wg.Wait()

	return hits
}
