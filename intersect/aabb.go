package intersect

import "github.com/achilleasa/polaris-accel/types"

// Slab runs the slab test and returns the entry and exit distances along the
// ray. Zero direction components produce +/-Inf plane distances which
// correctly collapse the test for axis-aligned rays.
func Slab(origin, dir types.Vec3, box types.AABB) (tNear, tFar float32) {
	t1 := (box.Min[0] - origin[0]) / dir[0]
	t2 := (box.Max[0] - origin[0]) / dir[0]
	tNear = minNum(t1, t2)
	tFar = maxNum(t1, t2)

	for axis := 1; axis < 3; axis++ {
		t1 = (box.Min[axis] - origin[axis]) / dir[axis]
		t2 = (box.Max[axis] - origin[axis]) / dir[axis]
		tNear = maxNum(tNear, minNum(t1, t2))
		tFar = minNum(tFar, maxNum(t1, t2))
	}

	return tNear, tFar
}

// AABBHit returns true if the ray intersects the box in front of its origin.
func AABBHit(origin, dir types.Vec3, box types.AABB) bool {
	tNear, tFar := Slab(origin, dir, box)
	return tFar >= tNear && tFar >= 0
}

// AABBDistance returns the distance to the first intersection of the ray with
// the box or Miss. If the ray starts inside the box, the exit distance is
// returned provided it exceeds Epsilon; a ray sitting on a face and pointing
// outwards therefore misses.
func AABBDistance(origin, dir types.Vec3, box types.AABB) float32 {
	tNear, tFar := Slab(origin, dir, box)
	if tFar < tNear || tFar < 0 {
		return Miss
	}

	if tNear < 0 {
		if tFar > Epsilon {
			return tFar
		}
		return Miss
	}

	return tNear
}
