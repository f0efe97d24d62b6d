// Package tracer answers closest-hit ray queries against the acceleration
// structures produced by the scene compiler.
package tracer

import (
	"github.com/achilleasa/polaris-accel/asset/compiler/bvh"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/types"
)

// The closest intersection between a ray and the scene.
type Hit struct {
	T         float32
	Primitive uint32
}

// The Tracer interface is implemented by all acceleration strategies. Tracers
// are immutable once created and can be queried concurrently.
type Tracer interface {
	// Get tracer id.
	Id() string

	// Find the closest primitive hit by the ray.
	Intersect(ray intersect.Ray) (Hit, bool)
}

// Tracer ids.
const (
	BruteForceId = "brute-force"
	BvhId        = "bvh"
	FlatBvhId    = "flat-bvh"
	GridId       = "grid"
)

// Test a primitive against a ray.
func primitiveTest(prims []scene.Primitive) bvh.PrimitiveTest {
	return func(ray intersect.Ray, primIndex uint32) (float32, bool) {
		return prims[primIndex].Intersect(ray)
	}
}

type bruteForceTracer struct {
	// Spheres and boxes; triangles are scanned as a batch.
	prims []scene.Primitive

	triangles     [][3]types.Vec3
	candidates    []uint32
	firstTriangle uint32
	kernel        intersect.TriangleKernel
}

// Create a tracer that tests every primitive of a scene. It serves as a
// reference for the accelerated strategies.
func NewBruteForceTracer(sc *scene.Scene) (Tracer, error) {
	prims, err := sc.Primitives()
	if err != nil {
		return nil, err
	}
	kernel, err := sc.TriangleKernel.Kernel()
	if err != nil {
		return nil, err
	}

	firstTriangle := len(sc.Spheres) + len(sc.Boxes)
	tr := &bruteForceTracer{
		prims:         prims[:firstTriangle],
		triangles:     make([][3]types.Vec3, len(sc.Triangles)),
		candidates:    make([]uint32, len(sc.Triangles)),
		firstTriangle: uint32(firstTriangle),
		kernel:        kernel,
	}
	for index := range sc.Triangles {
		tr.triangles[index] = sc.Triangles[index].Vertices
		tr.candidates[index] = uint32(index)
	}
	return tr, nil
}

func (tr *bruteForceTracer) Id() string {
	return BruteForceId
}

func (tr *bruteForceTracer) Intersect(ray intersect.Ray) (Hit, bool) {
	var (
		closest Hit
		found   bool
	)
	for index, prim := range tr.prims {
		t, ok := prim.Intersect(ray)
		if ok && (!found || t < closest.T) {
			closest = Hit{T: t, Primitive: uint32(index)}
			found = true
		}
	}

	if len(tr.candidates) != 0 {
		hit, triIndex, ok := intersect.ClosestTriangle(ray.Origin, ray.Dir, tr.triangles, tr.candidates, tr.kernel)
		if ok && (!found || hit.T < closest.T) {
			closest = Hit{T: hit.T, Primitive: tr.firstTriangle + triIndex}
			found = true
		}
	}
	return closest, found
}

type bvhTracer struct {
	root *bvh.Node
	test bvh.PrimitiveTest
}

// Create a tracer that walks a BVH tree.
func NewBvhTracer(root *bvh.Node, prims []scene.Primitive) Tracer {
	return &bvhTracer{root: root, test: primitiveTest(prims)}
}

func (tr *bvhTracer) Id() string {
	return BvhId
}

func (tr *bvhTracer) Intersect(ray intersect.Ray) (Hit, bool) {
	hit, ok := bvh.Traverse(tr.root, ray, tr.test)
	return Hit(hit), ok
}

type flatBvhTracer struct {
	nodes       []scene.BvhNode
	primIndices []uint32
	test        bvh.PrimitiveTest
}

// Create a tracer that walks a flattened BVH.
func NewFlatBvhTracer(nodes []scene.BvhNode, primIndices []uint32, prims []scene.Primitive) Tracer {
	return &flatBvhTracer{
		nodes:       nodes,
		primIndices: primIndices,
		test:        primitiveTest(prims),
	}
}

func (tr *flatBvhTracer) Id() string {
	return FlatBvhId
}

func (tr *flatBvhTracer) Intersect(ray intersect.Ray) (Hit, bool) {
	hit, ok := bvh.TraverseFlat(tr.nodes, tr.primIndices, ray, tr.test)
	return Hit(hit), ok
}

// Create a tracer for each acceleration structure present in a compiled
// scene. The brute force tracer is always listed first.
func FromCompiledScene(sc *scene.CompiledScene) ([]Tracer, error) {
	source := sc.Source
	if source == nil {
		source = &scene.Scene{}
	}
	prims, err := source.Primitives()
	if err != nil {
		return nil, err
	}

	bruteForce, err := NewBruteForceTracer(source)
	if err != nil {
		return nil, err
	}

	tracers := []Tracer{bruteForce}
	if sc.Strategy.HasBvh() {
		tracers = append(tracers, NewFlatBvhTracer(sc.BvhNodeList, sc.BvhPrimitiveIndices, prims))
	}
	if sc.Strategy.HasGrid() && sc.Grid != nil {
		tracers = append(tracers, NewGridTracer(sc.Grid, prims))
	}
	return tracers, nil
}
