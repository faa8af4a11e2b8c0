package types

import "math"

// NoHit is the distance reported when a ray misses.
const NoHit float32 = math.MaxFloat32

// Hit records the closest intersection found so far along a ray.
type Hit struct {
	// Distance along the ray. Set to NoHit while nothing has been hit.
	T float32

	// Index of the primitive that produced the hit.
	Index uint32

	// Instance id of the tree that owns the primitive. It allows a ray to be
	// traced against several trees and still identify the closest primitive.
	Instance uint32
}

// Valid returns true if the hit record holds an actual intersection.
func (h Hit) Valid() bool {
	return h.T < NoHit
}

// A Ray with a precomputed reciprocal direction and a mutable closest hit
// record that is updated by intersection queries.
type Ray[V Vector] struct {
	Origin V
	Dir    V
	InvDir V

	Hit Hit
}

// NewRay creates a ray with an empty hit record.
func NewRay[V Vector](origin, dir V) Ray[V] {
	return Ray[V]{
		Origin: origin,
		Dir:    dir,
		InvDir: Reciprocal(dir),
		Hit:    Hit{T: NoHit},
	}
}

// Reset clears the ray hit record.
func (r *Ray[V]) Reset() {
	r.Hit = Hit{T: NoHit}
}

// Point returns the position at distance t along the ray.
func (r *Ray[V]) Point(t float32) V {
	return AddVec(r.Origin, ScaleVec(r.Dir, t))
}

// IntersectAABB runs a slab test against box. It returns the distance at
// which the ray enters the box (0 if the origin lies inside it) or NoHit if
// the ray misses the box, the box lies behind the ray or the entry point is
// not closer than the current hit.
//
// On axes the ray runs parallel to, the origin must lie within the box slab
// (boundary included) and the interval is left unbounded.
func (r *Ray[V]) IntersectAABB(box AABB[V]) float32 {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for i := 0; i < len(r.Origin); i++ {
		if r.Dir[i] == 0 {
			if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
				return NoHit
			}
			continue
		}

		t1 := (box.Min[i] - r.Origin[i]) * r.InvDir[i]
		t2 := (box.Max[i] - r.Origin[i]) * r.InvDir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return NoHit
	}
	if tmin < 0 {
		tmin = 0
	}
	if tmin >= r.Hit.T {
		return NoHit
	}
	return tmin
}
