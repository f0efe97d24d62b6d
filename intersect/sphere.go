package intersect

import (
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

// Sphere solves |O + tD - C|^2 = r^2 using the half-b form of the quadratic.
//
// The nearest root beyond Epsilon is returned. If the near root lies behind
// the origin the far root is tried, which handles rays that start inside the
// sphere.
func Sphere(origin, dir, center types.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	a := dir.Dot(dir)
	if a == 0 {
		return 0, false
	}
	halfB := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtD := math32.Sqrt(discriminant)
	t := (-halfB - sqrtD) / a
	if t > Epsilon {
		return t, true
	}

	t = (-halfB + sqrtD) / a
	if t > Epsilon {
		return t, true
	}

	return 0, false
}

// Get the outward unit normal of a sphere at point p.
func SphereNormal(p, center types.Vec3) types.Vec3 {
	return p.Sub(center).Normalize()
}
