package scene

import (
	"math/rand"

	"github.com/achilleasa/polaris-bvh/types"
)

// RandomBoxes generates count boxes whose centers are uniformly distributed
// in [0, worldSize) along every axis and whose side lengths lie in
// (0, maxSize].
func RandomBoxes[V types.Vector](rng *rand.Rand, count int, worldSize, maxSize float32) Boxes[V] {
	boxes := make(Boxes[V], count)
	for i := range boxes {
		var center, half V
		for axis := 0; axis < len(center); axis++ {
			center[axis] = rng.Float32() * worldSize
			half[axis] = 0.5 * maxSize * (1 - rng.Float32())
		}
		boxes[i] = types.AABB[V]{
			Min: types.SubVec(center, half),
			Max: types.AddVec(center, half),
		}
	}
	return boxes
}

// RandomSpheres generates count spheres uniformly distributed in
// [0, worldSize)^3 with radius in (0, maxRadius].
func RandomSpheres(rng *rand.Rand, count int, worldSize, maxRadius float32) Spheres {
	spheres := make(Spheres, count)
	for i := range spheres {
		spheres[i] = Sphere{
			Origin: types.Vec3{rng.Float32() * worldSize, rng.Float32() * worldSize, rng.Float32() * worldSize},
			Radius: maxRadius * (1 - rng.Float32()),
		}
	}
	return spheres
}

// RandomPoint returns a point uniformly distributed in [lo, hi) along every axis.
func RandomPoint[V types.Vector](rng *rand.Rand, lo, hi float32) V {
	var p V
	for axis := 0; axis < len(p); axis++ {
		p[axis] = lo + rng.Float32()*(hi-lo)
	}
	return p
}

// RandomDir returns a random non-zero direction with components in [-1, 1).
func RandomDir[V types.Vector](rng *rand.Rand) V {
	for {
		dir := RandomPoint[V](rng, -1, 1)
		if types.DotVec(dir, dir) > 1e-4 {
			return dir
		}
	}
}

// Jitter moves every box by a random offset in [-amount, amount) along each axis.
func (b Boxes[V]) Jitter(rng *rand.Rand, amount float32) {
	for i := range b {
		b.Translate(i, RandomPoint[V](rng, -amount, amount))
	}
}
