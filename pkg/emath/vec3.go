package emath

import(
	"fmt"
	"math"

	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point, hopefully make this file redundant
)

// A Vec3 is a 3-D vector; [0] is x (along image columns), [1] is y
// (down image rows), [2] is z (towards the camera). Light directions
// and surface normals are both Vec3s of unit length.
type Vec3 f64.Vec3

func (v Vec3)Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }
func (v Vec3)Norm2() float64     { return v.Dot(v) }
func (v Vec3)Norm() float64      { return math.Sqrt(v.Norm2()) }

func (v Vec3)Add(w Vec3) Vec3 {
	return Vec3{v[0]+w[0], v[1]+w[1], v[2]+w[2]}
}

func (v Vec3)Scale(s float64) Vec3 {
	return Vec3{v[0]*s, v[1]*s, v[2]*s}
}

// Normalize returns v scaled to unit length. A zero vector stays zero.
func (v Vec3)Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec3{v[0]/n, v[1]/n, v[2]/n}
}

func (v Vec3)String() string {
	return fmt.Sprintf("[%12.10f, %12.10f, %12.10f]", v[0], v[1], v[2])
}
