package scene

import (
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

// A Sphere primitive.
type Sphere struct {
	Origin types.Vec3
	Radius float32
}

// BBox returns the sphere AABB.
func (s Sphere) BBox() types.AABB[types.Vec3] {
	r := types.Vec3{s.Radius, s.Radius, s.Radius}
	return types.AABB[types.Vec3]{
		Min: s.Origin.Sub(r),
		Max: s.Origin.Add(r),
	}
}

// Spheres is a primitive container for sphere primitives. In addition to
// their bounding boxes, spheres provide an exact ray intersection test.
type Spheres []Sphere

// Len returns the number of spheres.
func (s Spheres) Len() int {
	return len(s)
}

// BBox returns the AABB of the sphere at index.
func (s Spheres) BBox(index int) types.AABB[types.Vec3] {
	return s[index].BBox()
}

// Center returns the origin of the sphere at index.
func (s Spheres) Center(index int) types.Vec3 {
	return s[index].Origin
}

// IntersectRay returns the distance to the closest intersection between the
// ray and the sphere at index or types.NoHit. If the ray origin lies inside
// the sphere the exit point is reported. Hits that are not closer than the
// current ray hit are discarded.
func (s Spheres) IntersectRay(index int, ray *types.Ray[types.Vec3]) float32 {
	sphere := s[index]

	// Solve |origin + t*dir - center|^2 = radius^2 for t
	oc := ray.Origin.Sub(sphere.Origin)
	a := ray.Dir.Dot(ray.Dir)
	if a == 0 {
		return types.NoHit
	}
	halfB := oc.Dot(ray.Dir)
	c := oc.Dot(oc) - sphere.Radius*sphere.Radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return types.NoHit
	}

	sqrtDisc := math32.Sqrt(disc)
	t := (-halfB - sqrtDisc) / a
	if t < 0 {
		t = (-halfB + sqrtDisc) / a
	}
	if t < 0 || t >= ray.Hit.T {
		return types.NoHit
	}
	return t
}
