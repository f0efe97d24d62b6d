package types

import (
	"math/rand"
	"testing"
)

func randomBox(rng *rand.Rand) AABB {
	var min, max Vec3
	for i := 0; i < 3; i++ {
		a := rng.Float32()*200 - 100
		b := rng.Float32()*200 - 100
		if a > b {
			a, b = b, a
		}
		min[i], max[i] = a, b
	}
	return NewAABB(min, max)
}

func TestUnionProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a, b, c := randomBox(rng), randomBox(rng), randomBox(rng)

		if a.Union(b) != b.Union(a) {
			t.Fatalf("[%d] expected union to be commutative; got %v and %v", i, a.Union(b), b.Union(a))
		}
		if a.Union(b).Union(c) != a.Union(b.Union(c)) {
			t.Fatalf("[%d] expected union to be associative", i)
		}
		if a.Union(a) != a {
			t.Fatalf("[%d] expected union(a, a) to equal a; got %v", i, a.Union(a))
		}

		u := Union(a, b)
		if !u.ContainsBox(a) || !u.ContainsBox(b) {
			t.Fatalf("[%d] expected union %v to contain both %v and %v", i, u, a, b)
		}
	}
}

func TestEmptyAABBIsUnionIdentity(t *testing.T) {
	box := NewAABB(Vec3{-1, 2, 3}, Vec3{4, 5, 6})
	if got := EmptyAABB().Union(box); got != box {
		t.Fatalf("expected empty.Union(box) to be %v; got %v", box, got)
	}
	if !EmptyAABB().IsEmpty() {
		t.Fatal("expected EmptyAABB to report itself as empty")
	}
	if area := EmptyAABB().SurfaceArea(); area != 0 {
		t.Fatalf("expected empty box area to be 0; got %f", area)
	}
}

func TestCenterAndSurfaceArea(t *testing.T) {
	box := NewAABB(Vec3{0, 0, 0}, Vec3{1, 2, 3})

	expCenter := Vec3{0.5, 1, 1.5}
	if got := box.Center(); got != expCenter {
		t.Fatalf("expected center to be %v; got %v", expCenter, got)
	}

	// 2 * (1*2 + 2*3 + 3*1)
	var expArea float32 = 22
	if got := box.SurfaceArea(); got != expArea {
		t.Fatalf("expected surface area to be %f; got %f", expArea, got)
	}

	flat := NewAABB(Vec3{0, 0, 0}, Vec3{2, 2, 0})
	expArea = 8
	if got := flat.SurfaceArea(); got != expArea {
		t.Fatalf("expected flat box surface area to be %f; got %f", expArea, got)
	}
}

func TestAABBFromPointsAndExpand(t *testing.T) {
	box := AABBFromPoints(Vec3{1, -1, 0}, Vec3{-2, 3, 0.5}, Vec3{0, 0, -4})
	exp := NewAABB(Vec3{-2, -1, -4}, Vec3{1, 3, 0.5})
	if box != exp {
		t.Fatalf("expected box to be %v; got %v", exp, box)
	}

	padded := box.Expand(1)
	exp = NewAABB(Vec3{-3, -2, -5}, Vec3{2, 4, 1.5})
	if padded != exp {
		t.Fatalf("expected padded box to be %v; got %v", exp, padded)
	}

	if axis := box.LongestAxis(); axis != 2 {
		t.Fatalf("expected longest axis to be 2; got %d", axis)
	}
}

func TestOverlaps(t *testing.T) {
	specs := []struct {
		a, b AABB
		exp  bool
	}{
		{NewAABB(Vec3{0, 0, 0}, Vec3{1, 1, 1}), NewAABB(Vec3{2, 0, 0}, Vec3{3, 1, 1}), false},
		{NewAABB(Vec3{0, 0, 0}, Vec3{1, 1, 1}), NewAABB(Vec3{1, 0, 0}, Vec3{3, 1, 1}), true},
		{NewAABB(Vec3{0, 0, 0}, Vec3{4, 4, 4}), NewAABB(Vec3{1, 1, 1}, Vec3{2, 2, 2}), true},
		{NewAABB(Vec3{0, 0, 0}, Vec3{1, 1, 1}), NewAABB(Vec3{0, 0, -3}, Vec3{1, 1, -2}), false},
	}

	for index, spec := range specs {
		if got := spec.a.Overlaps(spec.b); got != spec.exp {
			t.Fatalf("[spec %d] expected Overlaps to return %t; got %t", index, spec.exp, got)
		}
		if got := spec.b.Overlaps(spec.a); got != spec.exp {
			t.Fatalf("[spec %d] expected reversed Overlaps to return %t; got %t", index, spec.exp, got)
		}
	}
}
