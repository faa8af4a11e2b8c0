package scene

import (
	"fmt"

	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/udhos/gwob"
)

// Determinants below this value are treated as rays parallel to the triangle.
const triangleEpsilon = 1e-9

// A Triangle primitive.
type Triangle struct {
	Vertices [3]types.Vec3

	bbox   types.AABB[types.Vec3]
	center types.Vec3
}

// NewTriangle creates a triangle and precalculates its bbox and centroid.
func NewTriangle(v0, v1, v2 types.Vec3) Triangle {
	bbox := types.EmptyAABB[types.Vec3]()
	bbox.Grow(v0)
	bbox.Grow(v1)
	bbox.Grow(v2)

	return Triangle{
		Vertices: [3]types.Vec3{v0, v1, v2},
		bbox:     bbox,
		center:   v0.Add(v1).Add(v2).Mul(1.0 / 3.0),
	}
}

// A Mesh is a primitive container for triangles. Triangles are only
// represented by their bounding boxes during BVH traversal.
type Mesh struct {
	Name      string
	Triangles []Triangle
}

// Len returns the number of triangles. A nil mesh is empty.
func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Triangles)
}

// BBox returns the AABB of the triangle at index.
func (m *Mesh) BBox(index int) types.AABB[types.Vec3] {
	return m.Triangles[index].bbox
}

// Center returns the centroid of the triangle at index.
func (m *Mesh) Center(index int) types.Vec3 {
	return m.Triangles[index].center
}

// IntersectRay runs a Moller-Trumbore test between the ray and the triangle
// at index. It returns the hit distance or types.NoHit if the ray misses, runs
// parallel to the triangle plane or the hit is not closer than the current
// ray hit.
func (m *Mesh) IntersectRay(index int, ray *types.Ray[types.Vec3]) float32 {
	tri := &m.Triangles[index]
	edge1 := tri.Vertices[1].Sub(tri.Vertices[0])
	edge2 := tri.Vertices[2].Sub(tri.Vertices[0])

	pvec := ray.Dir.Cross(edge2)
	det := edge1.Dot(pvec)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return types.NoHit
	}
	invDet := 1 / det

	tvec := ray.Origin.Sub(tri.Vertices[0])
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return types.NoHit
	}

	qvec := tvec.Cross(edge1)
	v := ray.Dir.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return types.NoHit
	}

	t := edge2.Dot(qvec) * invDet
	if t < 0 || t >= ray.Hit.T {
		return types.NoHit
	}
	return t
}

// ReadMesh parses a Wavefront OBJ file and returns a mesh with all triangles
// from all of its groups.
func ReadMesh(path string) (*Mesh, error) {
	logger := log.New("mesh reader")

	options := gwob.ObjParserOptions{
		LogStats: true,
		Logger: func(msg string) {
			logger.Debug(msg)
		},
		IgnoreNormals: true,
	}
	obj, err := gwob.NewObjFromFile(path, &options)
	if err != nil {
		return nil, fmt.Errorf("scene: could not parse %q: %w", path, err)
	}

	vertexStride := obj.StrideSize / 4
	vertexOffset := obj.StrideOffsetPosition / 4
	vertex := func(index int) types.Vec3 {
		base := vertexStride*index + vertexOffset
		return types.Vec3{obj.Coord[base], obj.Coord[base+1], obj.Coord[base+2]}
	}

	mesh := &Mesh{
		Name:      path,
		Triangles: make([]Triangle, 0, len(obj.Indices)/3),
	}
	for i := 0; i+2 < len(obj.Indices); i += 3 {
		mesh.Triangles = append(mesh.Triangles, NewTriangle(
			vertex(obj.Indices[i]),
			vertex(obj.Indices[i+1]),
			vertex(obj.Indices[i+2]),
		))
	}

	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoGeometry, path)
	}

	logger.Infof("loaded %q: %d triangles", path, len(mesh.Triangles))
	return mesh, nil
}
