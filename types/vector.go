package types

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

const floatCmpEpsilon = 1e-6

type Vec2 f32.Vec2
type Vec3 f32.Vec3
type Vec4 f32.Vec4

// Vector is satisfied by all fixed-size float32 tuples that can be used as
// points and extents by the spatial structures in this module.
type Vector interface {
	~[2]float32 | ~[3]float32 | ~[4]float32
}

// Define a 2 component vector.
func XY(x, y float32) Vec2 {
	return Vec2{x, y}
}

// Define a 3 component vector.
func XYZ(x, y, z float32) Vec3 {
	return Vec3{x, y, z}
}

// Define a 4 component vector.
func XYZW(x, y, z, w float32) Vec4 {
	return Vec4{x, y, z, w}
}

// Splat returns a vector with all components set to s.
func Splat[V Vector](s float32) V {
	var out V
	for i := 0; i < len(out); i++ {
		out[i] = s
	}
	return out
}

// Calc min component from two vectors.
func MinVec[V Vector](v1, v2 V) V {
	out := v1
	for i := 0; i < len(out); i++ {
		if v2[i] < out[i] {
			out[i] = v2[i]
		}
	}
	return out
}

// Calc max component from two vectors.
func MaxVec[V Vector](v1, v2 V) V {
	out := v1
	for i := 0; i < len(out); i++ {
		if v2[i] > out[i] {
			out[i] = v2[i]
		}
	}
	return out
}

// Subtract v2 from v1.
func SubVec[V Vector](v1, v2 V) V {
	out := v1
	for i := 0; i < len(out); i++ {
		out[i] -= v2[i]
	}
	return out
}

// Add v1 and v2.
func AddVec[V Vector](v1, v2 V) V {
	out := v1
	for i := 0; i < len(out); i++ {
		out[i] += v2[i]
	}
	return out
}

// Multiply all components of v with a scalar.
func ScaleVec[V Vector](v V, s float32) V {
	out := v
	for i := 0; i < len(out); i++ {
		out[i] *= s
	}
	return out
}

// Calculate dot product of 2 vectors.
func DotVec[V Vector](v1, v2 V) float32 {
	var sum float32
	for i := 0; i < len(v1); i++ {
		sum += v1[i] * v2[i]
	}
	return sum
}

// Reciprocal returns the component-wise reciprocal of v. Zero components map
// to +/-Inf with the sign of the zero.
func Reciprocal[V Vector](v V) V {
	out := v
	for i := 0; i < len(out); i++ {
		if v[i] == 0 {
			out[i] = math32.Inf(1)
			if math32.Signbit(v[i]) {
				out[i] = math32.Inf(-1)
			}
			continue
		}
		out[i] = 1 / v[i]
	}
	return out
}

// Add a vector.
func (v Vec3) Add(v2 Vec3) Vec3 {
	return Vec3{v[0] + v2[0], v[1] + v2[1], v[2] + v2[2]}
}

// Subtract a vector.
func (v Vec3) Sub(v2 Vec3) Vec3 {
	return Vec3{v[0] - v2[0], v[1] - v2[1], v[2] - v2[2]}
}

// Multiply a 3 component vector with a scalar.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Get 3 component vector length.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize 3 component vector. A zero-length vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < floatCmpEpsilon {
		return Vec3{}
	}
	l = 1.0 / l
	return Vec3{v[0] * l, v[1] * l, v[2] * l}
}

// Calculate dot product of 2 vectors
func (v Vec3) Dot(v2 Vec3) float32 {
	return v[0]*v2[0] + v[1]*v2[1] + v[2]*v2[2]
}

// Calculate cross product of 2 vectors.
func (v Vec3) Cross(v2 Vec3) Vec3 {
	return Vec3{v[1]*v2[2] - v[2]*v2[1], v[2]*v2[0] - v[0]*v2[2], v[0]*v2[1] - v[1]*v2[0]}
}
