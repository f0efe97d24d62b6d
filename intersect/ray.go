// Package intersect contains the ray-primitive intersection kernels shared by
// every acceleration structure. All kernels are pure functions operating on
// float32 values so that results match a GPU implementation of the same math.
package intersect

import "github.com/achilleasa/polaris-accel/types"

const (
	// Hits closer than this distance to the ray origin are discarded to
	// avoid self-intersections.
	Epsilon float32 = 1e-4

	// Rays whose direction is closer than this value to the triangle plane
	// are treated as parallel.
	ParallelEpsilon float32 = 1e-6

	// Returned by AABBDistance when the ray misses the box.
	Miss float32 = -1
)

// A ray with an origin and a (not necessarily normalized) direction.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Create a new ray.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// minNum returns the smaller operand, ignoring a NaN operand the same way
// GPU min() does.
func minNum(a, b float32) float32 {
	if a < b || b != b {
		return a
	}
	return b
}

// maxNum returns the larger operand, ignoring a NaN operand the same way
// GPU max() does.
func maxNum(a, b float32) float32 {
	if a > b || b != b {
		return a
	}
	return b
}
