package intersect

import (
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

// TriangleIntersection describes a ray-triangle hit. U weights the second
// vertex and V the third one.
type TriangleIntersection struct {
	T      float32
	U      float32
	V      float32
	Normal types.Vec3
}

// Get the barycentric coordinates (w, u, v) of the hit where w = 1 - u - v.
func (ti TriangleIntersection) Barycentric() types.Vec3 {
	return types.Vec3{1 - ti.U - ti.V, ti.U, ti.V}
}

// Interpolate per-vertex texture coordinates at the hit point.
func (ti TriangleIntersection) InterpolateUV(uv0, uv1, uv2 types.Vec2) types.Vec2 {
	w := 1 - ti.U - ti.V
	return uv0.Mul(w).Add(uv1.Mul(ti.U)).Add(uv2.Mul(ti.V))
}

// A triangle kernel intersects a ray with the triangle (v0, v1, v2).
type TriangleKernel func(origin, dir, v0, v1, v2 types.Vec3) (TriangleIntersection, bool)

// MollerTrumbore implements the Möller-Trumbore ray-triangle test.
func MollerTrumbore(origin, dir, v0, v1, v2 types.Vec3) (TriangleIntersection, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := dir.Cross(edge2)
	det := edge1.Dot(h)
	if math32.Abs(det) < ParallelEpsilon {
		return TriangleIntersection{}, false
	}

	invDet := 1.0 / det
	s := origin.Sub(v0)
	u := invDet * s.Dot(h)
	if u < 0 || u > 1 {
		return TriangleIntersection{}, false
	}

	q := s.Cross(edge1)
	v := invDet * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return TriangleIntersection{}, false
	}

	t := invDet * edge2.Dot(q)
	if t <= Epsilon {
		return TriangleIntersection{}, false
	}

	return TriangleIntersection{
		T:      t,
		U:      u,
		V:      v,
		Normal: edge1.Cross(edge2).Normalize(),
	}, true
}

// Watertight implements the watertight ray-triangle test by Woop, Benthin and
// Wald. Vertices are translated to the ray origin, permuted so that the
// dominant ray direction axis becomes z and sheared so that the ray points
// along +z. Edge functions evaluated in 2D then never let a ray slip between
// two triangles that share an edge.
func Watertight(origin, dir, v0, v1, v2 types.Vec3) (TriangleIntersection, bool) {
	kz := dir.Abs().MaxDimension()
	if dir[kz] == 0 {
		return TriangleIntersection{}, false
	}
	kx := (kz + 1) % 3
	ky := (kx + 1) % 3
	if dir[kz] < 0 {
		kx, ky = ky, kx
	}

	sx := dir[kx] / dir[kz]
	sy := dir[ky] / dir[kz]
	sz := 1.0 / dir[kz]

	a := v0.Sub(origin)
	b := v1.Sub(origin)
	c := v2.Sub(origin)

	ax := a[kx] - sx*a[kz]
	ay := a[ky] - sy*a[kz]
	bx := b[kx] - sx*b[kz]
	by := b[ky] - sy*b[kz]
	cx := c[kx] - sx*c[kz]
	cy := c[ky] - sy*c[kz]

	eu := cx*by - cy*bx
	ev := ax*cy - ay*cx
	ew := bx*ay - by*ax

	// Fall back to double precision when an edge function lands exactly on 0.
	if eu == 0 || ev == 0 || ew == 0 {
		eu = float32(float64(cx)*float64(by) - float64(cy)*float64(bx))
		ev = float32(float64(ax)*float64(cy) - float64(ay)*float64(cx))
		ew = float32(float64(bx)*float64(ay) - float64(by)*float64(ax))
	}

	if (eu < 0 || ev < 0 || ew < 0) && (eu > 0 || ev > 0 || ew > 0) {
		return TriangleIntersection{}, false
	}

	det := eu + ev + ew
	if det == 0 {
		return TriangleIntersection{}, false
	}

	az := sz * a[kz]
	bz := sz * b[kz]
	cz := sz * c[kz]
	scaledT := eu*az + ev*bz + ew*cz

	invDet := 1.0 / det
	t := scaledT * invDet
	if t <= Epsilon {
		return TriangleIntersection{}, false
	}

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	return TriangleIntersection{
		T:      t,
		U:      ev * invDet,
		V:      ew * invDet,
		Normal: edge1.Cross(edge2).Normalize(),
	}, true
}

// ClosestTriangle scans the candidate triangle indices and returns the
// closest hit together with the index of the triangle that produced it.
func ClosestTriangle(origin, dir types.Vec3, triangles [][3]types.Vec3, candidates []uint32, kernel TriangleKernel) (TriangleIntersection, uint32, bool) {
	var (
		closest TriangleIntersection
		index   uint32
		found   bool
	)

	for _, candidate := range candidates {
		tri := &triangles[candidate]
		hit, ok := kernel(origin, dir, tri[0], tri[1], tri[2])
		if !ok {
			continue
		}
		if !found || hit.T < closest.T {
			closest = hit
			index = candidate
			found = true
		}
	}

	return closest, index, found
}
