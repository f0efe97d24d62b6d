package types

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box. Constructed boxes satisfy
// Min[i] <= Max[i]; flat boxes (Min[i] == Max[i]) are valid.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create a new AABB from its min and max corners.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Get an inverted box that acts as the identity element for Union.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Get the tightest box containing all points.
func AABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box.Min = MinVec3(box.Min, p)
		box.Max = MaxVec3(box.Max, p)
	}
	return box
}

// Union returns the component-wise min of the min corners and max of the max
// corners.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: MinVec3(b.Min, other.Min),
		Max: MaxVec3(b.Max, other.Max),
	}
}

// Union two boxes.
func Union(a, b AABB) AABB {
	return a.Union(b)
}

// Get the box midpoint.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the box extent along each axis.
func (b AABB) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Calculate 2*(dx*dy + dy*dz + dz*dx). Empty boxes have zero area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Extent()
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Returns true if this box is inverted along any axis.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow the box by pad units on every side.
func (b AABB) Expand(pad float32) AABB {
	p := Splat3(pad)
	return AABB{Min: b.Min.Sub(p), Max: b.Max.Add(p)}
}

// Returns true if p lies inside or on the boundary of the box.
func (b AABB) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Returns true if other lies entirely inside this box.
func (b AABB) ContainsBox(other AABB) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Returns true if the two boxes share at least one point.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Get the axis with the largest extent.
func (b AABB) LongestAxis() int {
	return b.Extent().MaxDimension()
}
