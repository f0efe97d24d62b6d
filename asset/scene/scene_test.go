package scene

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/types"
)

func TestRecordSizes(t *testing.T) {
	specs := []struct {
		name string
		got  int
		exp  int
	}{
		{"BvhNode", BvhNodeSize, 32},
		{"GridMetadata", GridMetadataSize, 96},
		{"GridCell", GridCellSize, 80},
	}

	for _, spec := range specs {
		if spec.got != spec.exp {
			t.Fatalf("expected %s record size to be %d bytes; got %d", spec.name, spec.exp, spec.got)
		}
	}
}

func TestBvhNodeByteLayout(t *testing.T) {
	node := BvhNode{
		BoundsMin:  types.Vec3{-1, -2, -3},
		PrimCount:  4,
		BoundsMax:  types.Vec3{1, 2, 3},
		PrimOffset: 7,
	}

	data, err := EncodeBuffer([]BvhNode{node})
	if err != nil {
		t.Fatal(err)
	}

	floatAt := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
	}

	if floatAt(0) != -1 || floatAt(4) != -2 || floatAt(8) != -3 {
		t.Fatalf("expected bounds_min at offset 0")
	}
	if got := binary.LittleEndian.Uint32(data[12:]); got != 4 {
		t.Fatalf("expected prim_count at offset 12 to be 4; got %d", got)
	}
	if floatAt(16) != 1 || floatAt(20) != 2 || floatAt(24) != 3 {
		t.Fatalf("expected bounds_max at offset 16")
	}
	if got := binary.LittleEndian.Uint32(data[28:]); got != 7 {
		t.Fatalf("expected prim_offset at offset 28 to be 7; got %d", got)
	}

	decoded, err := DecodeBvhNodes(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || decoded[0] != node {
		t.Fatalf("expected decoded node to be %v; got %v", node, decoded)
	}
}

func TestGridRecordsByteLayout(t *testing.T) {
	meta := GridMetadata{
		BoundsMin:      types.Vec3{-10, -10, -10},
		NumLevels:      GridLevels,
		BoundsMax:      types.Vec3{10, 10, 10},
		FinestCellSize: 2,
	}
	meta.GridSizes[3] = [4]uint32{11, 12, 13, 0}

	data, err := EncodeBuffer(meta)
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(data[12:]); got != GridLevels {
		t.Fatalf("expected num_levels at offset 12 to be %d; got %d", GridLevels, got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[28:])); got != 2 {
		t.Fatalf("expected finest_cell_size at offset 28 to be 2; got %f", got)
	}
	// grid_sizes[3][1] lives at 32 + 3*16 + 4
	if got := binary.LittleEndian.Uint32(data[84:]); got != 12 {
		t.Fatalf("expected grid_sizes[3][1] to be 12; got %d", got)
	}

	decodedMeta, err := DecodeGridMetadata(data)
	if err != nil {
		t.Fatal(err)
	}
	if decodedMeta != meta {
		t.Fatalf("expected decoded metadata to be %v; got %v", meta, decodedMeta)
	}

	var cell GridCell
	cell.ObjectIndices[0] = 3
	cell.ObjectIndices[1] = 9
	cell.Count = 2
	data, err = EncodeBuffer([]GridCell{cell, cell})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2*GridCellSize {
		t.Fatalf("expected encoded cells to take %d bytes; got %d", 2*GridCellSize, len(data))
	}
	if got := binary.LittleEndian.Uint32(data[GridCellSize+4*MaxObjectsPerCell:]); got != 2 {
		t.Fatalf("expected second cell count to be 2; got %d", got)
	}

	cells, err := DecodeGridCells(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != 2 || cells[1].Count != 2 || cells[1].Objects()[1] != 9 {
		t.Fatalf("unexpected decoded cells: %v", cells)
	}

	if _, err = DecodeGridCells(data[:10]); err == nil {
		t.Fatal("expected an error when decoding a truncated cell buffer")
	}
}

func TestPrimitiveOrdering(t *testing.T) {
	sc := &Scene{
		Spheres: []Sphere{{Center: types.Vec3{0, 0, -10}, Radius: 1}},
		Boxes:   []Box{{Min: types.Vec3{4, -1, -11}, Max: types.Vec3{6, 1, -9}}},
		Triangles: []Triangle{
			{Vertices: [3]types.Vec3{{-6, -1, -10}, {-4, -1, -10}, {-5, 1, -10}}},
		},
	}

	prims, err := sc.Primitives()
	if err != nil {
		t.Fatal(err)
	}
	if len(prims) != 3 {
		t.Fatalf("expected 3 primitives; got %d", len(prims))
	}

	rays := []intersect.Ray{
		intersect.NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}),
		intersect.NewRay(types.Vec3{5, 0, 0}, types.Vec3{0, 0, -1}),
		intersect.NewRay(types.Vec3{-5, 0, 0}, types.Vec3{0, 0, -1}),
	}
	expDist := []float32{9, 9, 10}
	for index, ray := range rays {
		dist, ok := prims[index].Intersect(ray)
		if !ok {
			t.Fatalf("[prim %d] expected ray to hit", index)
		}
		if dist != expDist[index] {
			t.Fatalf("[prim %d] expected hit distance %f; got %f", index, expDist[index], dist)
		}
	}

	expBounds := types.NewAABB(types.Vec3{-6, -1, -11}, types.Vec3{6, 1, -9})
	if got := sc.Bounds(); got != expBounds {
		t.Fatalf("expected scene bounds %v; got %v", expBounds, got)
	}

	sc.TriangleKernel = "bogus"
	if _, err = sc.Primitives(); err != ErrUnknownKernel {
		t.Fatalf("expected ErrUnknownKernel; got %v", err)
	}
}

func TestSurfaceAt(t *testing.T) {
	sc := &Scene{
		Spheres: []Sphere{{Center: types.Vec3{0, 0, -10}, Radius: 1}},
		Boxes:   []Box{{Min: types.Vec3{4, -1, -11}, Max: types.Vec3{6, 1, -9}}},
		Triangles: []Triangle{
			{
				Vertices: [3]types.Vec3{{-6, -1, -10}, {-4, -1, -10}, {-5, 1, -10}},
				UVs:      [3]types.Vec2{{0, 0}, {1, 0}, {0, 1}},
			},
		},
	}

	specs := []struct {
		ray       intersect.Ray
		t         float32
		expPoint  types.Vec3
		expNormal types.Vec3
		expUV     types.Vec2
		hasUV     bool
	}{
		{intersect.NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, -1}), 9, types.Vec3{0, 0, -9}, types.Vec3{0, 0, 1}, types.Vec2{}, false},
		{intersect.NewRay(types.Vec3{5, 0, 0}, types.Vec3{0, 0, -1}), 9, types.Vec3{5, 0, -9}, types.Vec3{0, 0, 1}, types.Vec2{}, false},
		{intersect.NewRay(types.Vec3{-5, 0, 0}, types.Vec3{0, 0, -1}), 10, types.Vec3{-5, 0, -10}, types.Vec3{0, 0, 1}, types.Vec2{0.25, 0.5}, true},
	}

	near := func(a, b float32) bool {
		return math.Abs(float64(a-b)) < 1e-5
	}
	for index, spec := range specs {
		surf, err := sc.SurfaceAt(uint32(index), spec.ray, spec.t)
		if err != nil {
			t.Fatalf("[prim %d] unexpected error: %v", index, err)
		}
		for axis := 0; axis < 3; axis++ {
			if !near(surf.Point[axis], spec.expPoint[axis]) || !near(surf.Normal[axis], spec.expNormal[axis]) {
				t.Fatalf("[prim %d] expected point %v and normal %v; got %v and %v", index, spec.expPoint, spec.expNormal, surf.Point, surf.Normal)
			}
		}
		if surf.HasUV != spec.hasUV {
			t.Fatalf("[prim %d] expected HasUV to be %t", index, spec.hasUV)
		}
		if !near(surf.UV[0], spec.expUV[0]) || !near(surf.UV[1], spec.expUV[1]) {
			t.Fatalf("[prim %d] expected uv %v; got %v", index, spec.expUV, surf.UV)
		}
	}

	if _, err := sc.SurfaceAt(3, specs[0].ray, 1); err == nil {
		t.Fatal("expected an error for an out of range primitive index")
	}
}

func TestCompiledSceneStats(t *testing.T) {
	sc := &CompiledScene{
		Strategy: StrategyAll,
		Source:   &Scene{Spheres: make([]Sphere, 3)},
		BvhNodeList: []BvhNode{
			{}, {}, {},
		},
		BvhPrimitiveIndices: []uint32{0, 1, 2},
		Grid: &GridBuffers{
			CoarseCounts: make([]uint8, 10),
			FineCells:    make([]GridCell, 2),
		},
	}

	stats := sc.Stats()
	for _, exp := range []string{"Spheres", "Nodes", "Fine cells", "96 bytes", "160 bytes"} {
		if !strings.Contains(stats, exp) {
			t.Fatalf("expected stats table to contain %q; got:\n%s", exp, stats)
		}
	}
}
