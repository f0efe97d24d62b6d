package tracer

import (
	"github.com/achilleasa/polaris-accel/asset/compiler/grid"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/intersect"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

type gridTracer struct {
	meta   scene.GridMetadata
	bounds types.AABB
	prims  []scene.Primitive

	// Per-level views into the packed coarse counts.
	coarse [scene.GridLevels - 1][]uint8
	cells  []scene.GridCell

	sizes     [scene.GridLevels][3]int
	cellSizes [scene.GridLevels]float32

	maxSteps int
}

// Create a tracer that marches through a packed hierarchical grid. Cells
// whose coarse count is zero are skipped in a single step; the occupants of
// fine cells are tested and a hit is only accepted if it lies before the
// exit point of the current cell.
func NewGridTracer(gb *scene.GridBuffers, prims []scene.Primitive) Tracer {
	tr := &gridTracer{
		meta:   gb.Metadata,
		bounds: types.NewAABB(gb.Metadata.BoundsMin, gb.Metadata.BoundsMax),
		prims:  prims,
		cells:  gb.FineCells,
	}

	for level := 0; level < scene.GridLevels; level++ {
		s := gb.Metadata.GridSizes[level]
		tr.sizes[level] = [3]int{int(s[0]), int(s[1]), int(s[2])}
		tr.cellSizes[level] = gb.Metadata.LevelCellSize(level)
		tr.maxSteps += tr.sizes[level][0] + tr.sizes[level][1] + tr.sizes[level][2]

		if level < scene.GridLevels-1 {
			offset := gb.CoarseLevelOffset(level)
			tr.coarse[level] = gb.CoarseCounts[offset : offset+gb.Metadata.LevelCellCount(level)]
		}
	}

	// Each fine cell visit takes up to GridLevels iterations
	tr.maxSteps = 2*scene.GridLevels*tr.maxSteps + 64

	return tr
}

func (tr *gridTracer) Id() string {
	return GridId
}

func (tr *gridTracer) Intersect(ray intersect.Ray) (Hit, bool) {
	tEnter, tExit := intersect.Slab(ray.Origin, ray.Dir, tr.bounds)
	if tExit < tEnter || tExit < 0 || len(tr.cells) == 0 {
		return Hit{}, false
	}

	t := math32.Max(tEnter, 0)
	level := 0
	for step := 0; step < tr.maxSteps && t <= tExit; step++ {
		cell := tr.cellAt(level, ray.At(t), ray.Dir)
		cellIndex := cell[0] + cell[1]*tr.sizes[level][0] + cell[2]*tr.sizes[level][0]*tr.sizes[level][1]

		var occupied bool
		if level < scene.GridLevels-1 {
			occupied = tr.coarse[level][cellIndex] != 0
		} else {
			occupied = tr.cells[cellIndex].Count != 0
		}

		// Descend until we reach the fine level
		if occupied && level < scene.GridLevels-1 {
			level++
			continue
		}

		cellNear, cellExit := intersect.Slab(ray.Origin, ray.Dir, grid.PackedCellBounds(&tr.meta, level, cell))
		if cellExit < cellNear {
			// p rounded into a cell the ray does not cross
			cellExit = t
		}

		if occupied {
			if hit, ok := tr.testCell(&tr.cells[cellIndex], ray, cellExit); ok {
				return hit, true
			}
		}

		// Skip to the cell exit point and restart from the coarsest level
		t = advance(t, cellExit)
		level = 0
	}

	return Hit{}, false
}

// Test the occupants of a fine cell and return the closest hit that lies
// before the cell exit distance.
func (tr *gridTracer) testCell(cell *scene.GridCell, ray intersect.Ray, cellExit float32) (Hit, bool) {
	var (
		closest Hit
		found   bool
	)
	for _, primIndex := range cell.Objects() {
		t, ok := tr.prims[primIndex].Intersect(ray)
		if !ok || t > cellExit {
			continue
		}
		if !found || t < closest.T {
			closest = Hit{T: t, Primitive: primIndex}
			found = true
		}
	}
	return closest, found
}

// Get the level cell containing p. Points lying on a cell boundary are
// assigned to the cell the ray is heading into.
func (tr *gridTracer) cellAt(level int, p, dir types.Vec3) [3]int {
	var cell [3]int
	for axis := 0; axis < 3; axis++ {
		f := (p[axis] - tr.bounds.Min[axis]) / tr.cellSizes[level]
		c := math32.Floor(f)
		if dir[axis] < 0 && f == c {
			c--
		}

		switch {
		case !(c >= 0):
			cell[axis] = 0
		case c >= float32(tr.sizes[level][axis]):
			cell[axis] = tr.sizes[level][axis] - 1
		default:
			cell[axis] = int(c)
		}
	}
	return cell
}

// Move t to the cell exit. If rounding keeps t stuck on a boundary, nudge it
// forward so the march always makes progress.
func advance(t, cellExit float32) float32 {
	if cellExit > t {
		return cellExit
	}
	return t + math32.Max(1e-5, math32.Abs(t)*1e-6)
}
