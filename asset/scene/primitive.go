package scene

import (
	"errors"

	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/types"
)

var ErrUnknownKernel = errors.New("scene: unknown triangle kernel")

// The kernel used for ray-triangle tests.
type KernelType string

const (
	MollerTrumboreKernel KernelType = "moller-trumbore"
	WatertightKernel     KernelType = "watertight"
)

// Get the intersection function for this kernel type. An empty kernel type
// selects Möller-Trumbore.
func (k KernelType) Kernel() (intersect.TriangleKernel, error) {
	switch k {
	case MollerTrumboreKernel, "":
		return intersect.MollerTrumbore, nil
	case WatertightKernel:
		return intersect.Watertight, nil
	}
	return nil, ErrUnknownKernel
}

// The Primitive interface is implemented by all scene geometry that can be
// indexed by an acceleration structure.
type Primitive interface {
	// Get the primitive AABB.
	Bounds() types.AABB

	// Intersect the primitive and return the hit distance.
	Intersect(ray intersect.Ray) (float32, bool)
}

// An analytic sphere.
type Sphere struct {
	Center types.Vec3 `json:"center"`
	Radius float32    `json:"radius"`
}

func (s *Sphere) Bounds() types.AABB {
	r := types.Splat3(s.Radius)
	return types.NewAABB(s.Center.Sub(r), s.Center.Add(r))
}

func (s *Sphere) Centroid() types.Vec3 {
	return s.Center
}

func (s *Sphere) Intersect(ray intersect.Ray) (float32, bool) {
	return intersect.Sphere(ray.Origin, ray.Dir, s.Center, s.Radius)
}

// A solid axis-aligned box.
type Box struct {
	Min types.Vec3 `json:"min"`
	Max types.Vec3 `json:"max"`
}

func (b *Box) Bounds() types.AABB {
	return types.NewAABB(b.Min, b.Max)
}

func (b *Box) Intersect(ray intersect.Ray) (float32, bool) {
	t := intersect.AABBDistance(ray.Origin, ray.Dir, b.Bounds())
	return t, t != intersect.Miss
}

// A triangle with optional per-vertex texture coordinates.
type Triangle struct {
	Vertices [3]types.Vec3 `json:"vertices"`
	UVs      [3]types.Vec2 `json:"uvs"`
}

func (t *Triangle) Bounds() types.AABB {
	return types.AABBFromPoints(t.Vertices[0], t.Vertices[1], t.Vertices[2])
}

// Intersect the triangle using the given kernel.
func (t *Triangle) IntersectWith(ray intersect.Ray, kernel intersect.TriangleKernel) (intersect.TriangleIntersection, bool) {
	return kernel(ray.Origin, ray.Dir, t.Vertices[0], t.Vertices[1], t.Vertices[2])
}

// A triangle bound to the scene's triangle kernel.
type kernelTriangle struct {
	*Triangle
	kernel intersect.TriangleKernel
}

func (kt kernelTriangle) Intersect(ray intersect.Ray) (float32, bool) {
	hit, ok := kt.IntersectWith(ray, kt.kernel)
	return hit.T, ok
}

// Scene holds the source geometry for a set of acceleration structures.
type Scene struct {
	Name           string     `json:"name"`
	TriangleKernel KernelType `json:"triangle_kernel,omitempty"`
	Spheres        []Sphere   `json:"spheres,omitempty"`
	Boxes          []Box      `json:"boxes,omitempty"`
	Triangles      []Triangle `json:"triangles,omitempty"`
}

// Get the total number of primitives.
func (sc *Scene) PrimitiveCount() int {
	return len(sc.Spheres) + len(sc.Boxes) + len(sc.Triangles)
}

// Get a flat list of the scene primitives. Spheres come first, followed by
// boxes and triangles; the position of each primitive in the returned list is
// the primitive index referenced by the acceleration structures.
func (sc *Scene) Primitives() ([]Primitive, error) {
	kernel, err := sc.TriangleKernel.Kernel()
	if err != nil {
		return nil, err
	}

	prims := make([]Primitive, 0, sc.PrimitiveCount())
	for index := range sc.Spheres {
		prims = append(prims, &sc.Spheres[index])
	}
	for index := range sc.Boxes {
		prims = append(prims, &sc.Boxes[index])
	}
	for index := range sc.Triangles {
		prims = append(prims, kernelTriangle{Triangle: &sc.Triangles[index], kernel: kernel})
	}
	return prims, nil
}

// Get the kind of the primitive with the given index.
func (sc *Scene) PrimitiveKind(index uint32) string {
	switch i := int(index); {
	case i < len(sc.Spheres):
		return "sphere"
	case i < len(sc.Spheres)+len(sc.Boxes):
		return "box"
	case i < sc.PrimitiveCount():
		return "triangle"
	}
	return "unknown"
}

// Get the union of all primitive bounds.
func (sc *Scene) Bounds() types.AABB {
	box := types.EmptyAABB()
	for index := range sc.Spheres {
		box = box.Union(sc.Spheres[index].Bounds())
	}
	for index := range sc.Boxes {
		box = box.Union(sc.Boxes[index].Bounds())
	}
	for index := range sc.Triangles {
		box = box.Union(sc.Triangles[index].Bounds())
	}
	return box
}
