package intersect

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

func TestSphereThroughCenter(t *testing.T) {
	center := types.Vec3{0, 0, -10}
	var radius float32 = 2

	dist, ok := Sphere(types.Vec3{}, types.Vec3{0, 0, -1}, center, radius)
	if !ok {
		t.Fatal("expected ray through sphere center to hit")
	}
	if math32.Abs(dist-8) > 1e-4 {
		t.Fatalf("expected hit distance to be %f; got %f", 8.0, dist)
	}
}

func TestSphereFromInside(t *testing.T) {
	center := types.Vec3{1, 2, 3}
	var radius float32 = 3
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		dir := types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}.Normalize()
		if dir.Len() == 0 {
			continue
		}
		dist, ok := Sphere(center, dir, center, radius)
		if !ok {
			t.Fatalf("[%d] expected ray originating inside the sphere to hit", i)
		}
		if math32.Abs(dist-radius) > 1e-3 {
			t.Fatalf("[%d] expected hit distance to be %f; got %f", i, radius, dist)
		}
	}
}

func TestSphereMiss(t *testing.T) {
	center := types.Vec3{0, 0, -10}

	if _, ok := Sphere(types.Vec3{}, types.Vec3{0, 0, 1}, center, 2); ok {
		t.Fatal("expected ray pointing away from the sphere to miss")
	}
	if _, ok := Sphere(types.Vec3{}, types.Vec3{0, 1, 0}, center, 2); ok {
		t.Fatal("expected ray passing beside the sphere to miss")
	}
}

func TestAABBDistance(t *testing.T) {
	box := types.NewAABB(types.Vec3{-1, -1, -6}, types.Vec3{1, 1, -4})

	dist := AABBDistance(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, box)
	if dist != 4 {
		t.Fatalf("expected hit distance to be 4; got %f", dist)
	}
	if !AABBHit(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, box) {
		t.Fatal("expected AABBHit to report a hit")
	}

	// Diverging ray
	dist = AABBDistance(types.Vec3{0, 0, 0}, types.Vec3{0, 1, 1}, box)
	if dist != Miss {
		t.Fatalf("expected diverging ray to return the miss sentinel; got %f", dist)
	}
	if AABBHit(types.Vec3{0, 0, 0}, types.Vec3{0, 1, 1}, box) {
		t.Fatal("expected AABBHit to report a miss for a diverging ray")
	}

	// Origin inside the box returns the exit distance
	dist = AABBDistance(types.Vec3{0, 0, -5}, types.Vec3{0, 0, -1}, box)
	if math32.Abs(dist-1) > 1e-6 {
		t.Fatalf("expected exit distance to be 1; got %f", dist)
	}

	// Origin on the boundary pointing outwards
	dist = AABBDistance(types.Vec3{0, 0, -4}, types.Vec3{0, 0, 1}, box)
	if dist != Miss {
		t.Fatalf("expected ray leaving the box from its face to miss; got %f", dist)
	}
}

func TestAABBAxisAlignedRays(t *testing.T) {
	box := types.NewAABB(types.Vec3{-1, -1, -1}, types.Vec3{1, 1, 1})

	specs := []struct {
		origin types.Vec3
		dir    types.Vec3
		exp    float32
	}{
		{types.Vec3{-5, 0, 0}, types.Vec3{1, 0, 0}, 4},
		{types.Vec3{0, 5, 0}, types.Vec3{0, -1, 0}, 4},
		{types.Vec3{0, 0, 3}, types.Vec3{0, 0, -2}, 1},
		{types.Vec3{-5, 2, 0}, types.Vec3{1, 0, 0}, Miss},
		{types.Vec3{-5, 0, 0}, types.Vec3{-1, 0, 0}, Miss},
	}

	for index, spec := range specs {
		got := AABBDistance(spec.origin, spec.dir, box)
		if math32.Abs(got-spec.exp) > 1e-6 {
			t.Fatalf("[spec %d] expected distance %f; got %f", index, spec.exp, got)
		}
	}
}

func TestAABBFlatBox(t *testing.T) {
	flat := types.NewAABB(types.Vec3{-1, -1, -3}, types.Vec3{1, 1, -3})

	dist := AABBDistance(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}, flat)
	if dist != 3 {
		t.Fatalf("expected flat box hit distance to be 3; got %f", dist)
	}
}

var testTriangle = [3]types.Vec3{
	{-1, -1, -5},
	{1, -1, -5},
	{0, 1, -5},
}

func TestTriangleKernelsHit(t *testing.T) {
	kernels := map[string]TriangleKernel{
		"moller-trumbore": MollerTrumbore,
		"watertight":      Watertight,
	}

	for name, kernel := range kernels {
		hit, ok := kernel(types.Vec3{}, types.Vec3{0, 0, -1}, testTriangle[0], testTriangle[1], testTriangle[2])
		if !ok {
			t.Fatalf("[%s] expected ray to hit the triangle", name)
		}
		if math32.Abs(hit.T-5) > 1e-5 {
			t.Fatalf("[%s] expected hit distance to be 5; got %f", name, hit.T)
		}
		if math32.Abs(hit.U-0.25) > 1e-5 || math32.Abs(hit.V-0.5) > 1e-5 {
			t.Fatalf("[%s] expected barycentrics (0.25, 0.5); got (%f, %f)", name, hit.U, hit.V)
		}
		expNormal := types.Vec3{0, 0, 1}
		if hit.Normal.Sub(expNormal).Len() > 1e-5 {
			t.Fatalf("[%s] expected normal %v; got %v", name, expNormal, hit.Normal)
		}

		// Pointing away
		if _, ok = kernel(types.Vec3{}, types.Vec3{0, 0, 1}, testTriangle[0], testTriangle[1], testTriangle[2]); ok {
			t.Fatalf("[%s] expected ray pointing away from the triangle to miss", name)
		}

		// Outside the edges
		if _, ok = kernel(types.Vec3{3, 0, 0}, types.Vec3{0, 0, -1}, testTriangle[0], testTriangle[1], testTriangle[2]); ok {
			t.Fatalf("[%s] expected ray outside the triangle to miss", name)
		}

		// Parallel to the triangle plane
		if _, ok = kernel(types.Vec3{-5, 0, -5}, types.Vec3{1, 0, 0}, testTriangle[0], testTriangle[1], testTriangle[2]); ok {
			t.Fatalf("[%s] expected ray parallel to the triangle plane to miss", name)
		}
	}
}

func TestTriangleKernelsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	randVec := func(scale float32) types.Vec3 {
		return types.Vec3{
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
			(rng.Float32()*2 - 1) * scale,
		}
	}

	hits := 0
	for i := 0; i < 2000; i++ {
		v0, v1, v2 := randVec(5), randVec(5), randVec(5)
		origin := randVec(10)
		// Aim at a point inside the triangle so most rays are well conditioned.
		target := v0.Mul(0.2).Add(v1.Mul(0.3)).Add(v2.Mul(0.5))
		dir := target.Sub(origin)

		mt, mtOk := MollerTrumbore(origin, dir, v0, v1, v2)
		wt, wtOk := Watertight(origin, dir, v0, v1, v2)
		if !mtOk || !wtOk {
			continue
		}
		hits++

		if math32.Abs(mt.T-wt.T) > 0.1 {
			t.Fatalf("[%d] expected kernels to agree on t; got %f (moller-trumbore) vs %f (watertight)", i, mt.T, wt.T)
		}

		for _, hit := range []TriangleIntersection{mt, wt} {
			bary := hit.Barycentric()
			if sum := bary[0] + bary[1] + bary[2]; math32.Abs(sum-1) > 1e-5 {
				t.Fatalf("[%d] expected barycentrics to sum to 1; got %f", i, sum)
			}
			if hit.U < 0 || hit.U > 1 || hit.V < 0 || hit.V > 1 || hit.U+hit.V > 1+1e-6 {
				t.Fatalf("[%d] expected barycentrics inside the triangle; got u=%f v=%f", i, hit.U, hit.V)
			}
		}
	}

	if hits < 1000 {
		t.Fatalf("expected at least 1000 rays hit by both kernels; got %d", hits)
	}
}

func TestInterpolateUV(t *testing.T) {
	hit := TriangleIntersection{U: 0.25, V: 0.5}
	uv := hit.InterpolateUV(types.Vec2{0, 0}, types.Vec2{1, 0}, types.Vec2{0, 1})

	exp := types.Vec2{0.25, 0.5}
	if uv != exp {
		t.Fatalf("expected interpolated uv to be %v; got %v", exp, uv)
	}
}

func TestClosestTriangle(t *testing.T) {
	triangles := [][3]types.Vec3{
		{{-1, -1, -9}, {1, -1, -9}, {0, 1, -9}},
		{{-1, -1, -3}, {1, -1, -3}, {0, 1, -3}},
		{{10, -1, -1}, {11, -1, -1}, {10, 1, -1}},
		{{-1, -1, -6}, {1, -1, -6}, {0, 1, -6}},
	}

	hit, index, ok := ClosestTriangle(types.Vec3{}, types.Vec3{0, 0, -1}, triangles, []uint32{0, 1, 2, 3}, Watertight)
	if !ok {
		t.Fatal("expected a hit")
	}
	if index != 1 {
		t.Fatalf("expected closest triangle to be 1; got %d", index)
	}
	if math32.Abs(hit.T-3) > 1e-5 {
		t.Fatalf("expected hit distance to be 3; got %f", hit.T)
	}

	if _, _, ok = ClosestTriangle(types.Vec3{}, types.Vec3{0, 0, -1}, triangles, []uint32{2}, MollerTrumbore); ok {
		t.Fatal("expected no hit when only non-intersected candidates are scanned")
	}
}
