package scene

import (
	"fmt"

	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

// Surface describes a primitive at a ray hit point.
type Surface struct {
	Point  types.Vec3
	Normal types.Vec3

	// Texture coordinates interpolated from the triangle vertex UVs. Only
	// set for triangle hits.
	UV    types.Vec2
	HasUV bool
}

// Get the surface of the primitive with the given index at distance t along
// the ray. Triangle hits are re-evaluated with the scene kernel to recover
// their barycentric coordinates.
func (sc *Scene) SurfaceAt(index uint32, ray intersect.Ray, t float32) (Surface, error) {
	surf := Surface{Point: ray.At(t)}

	i := int(index)
	switch {
	case i < len(sc.Spheres):
		surf.Normal = intersect.SphereNormal(surf.Point, sc.Spheres[i].Center)
		return surf, nil
	case i < len(sc.Spheres)+len(sc.Boxes):
		surf.Normal = boxNormal(&sc.Boxes[i-len(sc.Spheres)], surf.Point)
		return surf, nil
	case i >= sc.PrimitiveCount():
		return surf, fmt.Errorf("scene: primitive index %d out of range", index)
	}

	tri := &sc.Triangles[i-len(sc.Spheres)-len(sc.Boxes)]
	kernel, err := sc.TriangleKernel.Kernel()
	if err != nil {
		return surf, err
	}
	hit, ok := tri.IntersectWith(ray, kernel)
	if !ok {
		return surf, fmt.Errorf("scene: ray does not hit triangle %d", index)
	}

	surf.Point = ray.At(hit.T)
	surf.Normal = hit.Normal
	surf.UV = hit.InterpolateUV(tri.UVs[0], tri.UVs[1], tri.UVs[2])
	surf.HasUV = true
	return surf, nil
}

// Get the normal of the box face closest to p.
func boxNormal(b *Box, p types.Vec3) types.Vec3 {
	var (
		normal  types.Vec3
		best    float32 = -1
		center          = b.Bounds().Center()
		halfExt         = b.Bounds().Extent().Mul(0.5)
	)
	for axis := 0; axis < 3; axis++ {
		if halfExt[axis] == 0 {
			continue
		}
		d := (p[axis] - center[axis]) / halfExt[axis]
		if math32.Abs(d) > best {
			best = math32.Abs(d)
			normal = types.Vec3{}
			normal[axis] = math32.Copysign(1, d)
		}
	}
	return normal
}
