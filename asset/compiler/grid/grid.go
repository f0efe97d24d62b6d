// Package grid builds hierarchical multi-level uniform grids. A grid is a
// stack of uniform grids over the same primitive set; the coarse levels keep
// a per-cell occupancy count which lets a ray marcher skip empty space while
// the finest level keeps the list of primitives overlapping each cell.
package grid

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

const (
	// The total number of grid levels (coarse levels + the fine level).
	NumLevels = scene.GridLevels

	// Coarse level counters saturate at this value.
	MaxCoarseCount = 255
)

var ErrInvalidOptions = errors.New("grid: invalid build options")

// The Boundable interface is implemented by all primitives that can be
// inserted into a grid.
type Boundable interface {
	Bounds() types.AABB
}

// Grid build options.
type Options struct {
	// The cell size of the finest level. Each coarser level doubles it.
	FinestCellSize float32

	// The max number of cells along any axis of a level.
	MaxDimension int

	// Grow FinestCellSize when the padded scene extent does not fit in
	// MaxDimension fine cells. Otherwise the clamped last cells along an
	// axis stretch over the remaining extent and quickly overflow.
	FitCellSize bool

	// The max number of primitives stored in a fine cell. Must not exceed
	// scene.MaxObjectsPerCell.
	MaxPerCell int

	// Scene bounds are padded by this amount on every side.
	Padding float32

	// Fine cells filled above this fraction of MaxPerCell are reported as
	// crowded.
	WarnOccupancy float32
}

// Get the default grid options.
func DefaultOptions() Options {
	return Options{
		FinestCellSize: 1.0,
		MaxDimension:   64,
		FitCellSize:    true,
		MaxPerCell:     scene.MaxObjectsPerCell,
		Padding:        1.0,
		WarnOccupancy:  0.75,
	}
}

// Validate options.
func (o Options) Validate() error {
	switch {
	case !(o.FinestCellSize > 0) || math32.IsInf(o.FinestCellSize, 0):
		return fmt.Errorf("%w: finest cell size must be a positive number", ErrInvalidOptions)
	case o.MaxDimension < 1:
		return fmt.Errorf("%w: max dimension must be at least 1", ErrInvalidOptions)
	case o.MaxPerCell < 1 || o.MaxPerCell > scene.MaxObjectsPerCell:
		return fmt.Errorf("%w: max objects per cell must be in [1, %d]", ErrInvalidOptions, scene.MaxObjectsPerCell)
	case !(o.Padding >= 0):
		return fmt.Errorf("%w: padding must not be negative", ErrInvalidOptions)
	}
	return nil
}

// A coarse grid level keeps a saturating occupancy counter per cell.
type CoarseLevel struct {
	CellSize float32
	Size     [3]int
	Counts   []uint8
}

// The finest grid level keeps the list of primitives overlapping each cell.
type FineLevel struct {
	CellSize float32
	Size     [3]int
	Cells    [][]uint32
}

// Report summarizes the lossy capacity policies applied while building.
type Report struct {
	Objects int

	// Primitive references that did not fit into a full fine cell.
	DroppedRefs int

	// Fine cells that reached MaxPerCell.
	FullCells int

	// Fine cells at or above the WarnOccupancy threshold.
	CrowdedCells int

	// Coarse cells whose counter saturated.
	SaturatedCells int
}

// HierarchicalGrid is a stack of uniform grids over the same scene bounds.
// It is read-only after Build returns.
type HierarchicalGrid struct {
	Bounds types.AABB

	// Coarse levels, coarsest first.
	Coarse []CoarseLevel
	Fine   FineLevel

	Report Report
}

// Build a hierarchical grid for a list of objects. The grid bounds are the
// union of all object bounds padded by opts.Padding. Level k uses a cell size
// of FinestCellSize * 2^(NumLevels-1-k). Coarse counters saturate at 255 and
// fine cells keep at most opts.MaxPerCell primitives; any overflow is
// reported in the returned grid's Report and logged.
func Build(objects []Boundable, opts Options) (*HierarchicalGrid, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := log.New("grid builder")
	start := time.Now()

	bounds := types.EmptyAABB()
	objBounds := make([]types.AABB, len(objects))
	for index, obj := range objects {
		objBounds[index] = obj.Bounds()
		bounds = bounds.Union(objBounds[index])
	}
	if bounds.IsEmpty() {
		bounds = types.NewAABB(types.Vec3{}, types.Vec3{})
	}

	g := &HierarchicalGrid{
		Bounds: bounds.Expand(opts.Padding),
		Coarse: make([]CoarseLevel, NumLevels-1),
	}
	g.Report.Objects = len(objects)

	finestCellSize := opts.FinestCellSize
	if opts.FitCellSize {
		if fitted := fitCellSize(g.Bounds, opts.MaxDimension); fitted > finestCellSize {
			logger.Infof(
				"scene extent %v does not fit in %d cells of size %.2f; using finest cell size %.2f",
				g.Bounds.Extent(), opts.MaxDimension, finestCellSize, fitted,
			)
			finestCellSize = fitted
		}
	}

	for level := 0; level < NumLevels; level++ {
		cellSize := finestCellSize * float32(uint32(1)<<uint(NumLevels-1-level))
		size := levelSize(g.Bounds, cellSize, opts.MaxDimension)
		cellCount := size[0] * size[1] * size[2]

		if level < NumLevels-1 {
			g.Coarse[level] = CoarseLevel{
				CellSize: cellSize,
				Size:     size,
				Counts:   make([]uint8, cellCount),
			}
			continue
		}
		g.Fine = FineLevel{
			CellSize: cellSize,
			Size:     size,
			Cells:    make([][]uint32, cellCount),
		}
	}

	for objIndex, box := range objBounds {
		for level := 0; level < NumLevels; level++ {
			lo := g.WorldToCell(level, box.Min)
			hi := g.WorldToCell(level, box.Max)

			for z := lo[2]; z <= hi[2]; z++ {
				for y := lo[1]; y <= hi[1]; y++ {
					for x := lo[0]; x <= hi[0]; x++ {
						cellIndex := g.CellIndex(level, [3]int{x, y, z})
						if level < NumLevels-1 {
							g.incCoarse(level, cellIndex)
							continue
						}
						g.appendFine(cellIndex, uint32(objIndex), opts.MaxPerCell)
					}
				}
			}
		}
	}

	g.finalizeReport(opts)
	instrumentBuild(time.Since(start), g.Report)

	if g.Report.DroppedRefs > 0 {
		logger.Warningf(
			"%d primitive references dropped from %d full fine cells (max %d per cell); consider a smaller finest cell size",
			g.Report.DroppedRefs, g.Report.FullCells, opts.MaxPerCell,
		)
	} else if g.Report.CrowdedCells > 0 {
		logger.Warningf("%d fine cells are at least %.0f%% full", g.Report.CrowdedCells, opts.WarnOccupancy*100)
	}
	if g.Report.SaturatedCells > 0 {
		logger.Warningf("%d coarse cells saturated at %d objects", g.Report.SaturatedCells, MaxCoarseCount)
	}

	logger.Debugf(
		"grid build time: %d ms, bounds: %v, fine size: %v, objects: %d",
		time.Since(start).Nanoseconds()/1e6, g.Bounds, g.Fine.Size, len(objects),
	)
	return g, nil
}

// Get the smallest finest cell size for which the longest axis of bounds fits
// in maxDim cells, including the safety cell. Returns 0 if no such size exists.
func fitCellSize(bounds types.AABB, maxDim int) float32 {
	if maxDim < 2 {
		return 0
	}
	return bounds.Extent().MaxComponent() / float32(maxDim-1)
}

// Calculate the number of cells along each axis for a level.
func levelSize(bounds types.AABB, cellSize float32, maxDim int) [3]int {
	var size [3]int
	extent := bounds.Extent()
	for axis := 0; axis < 3; axis++ {
		dim := int(math32.Ceil(extent[axis]/cellSize)) + 1
		if dim < 1 {
			dim = 1
		} else if dim > maxDim {
			dim = maxDim
		}
		size[axis] = dim
	}
	return size
}

func (g *HierarchicalGrid) incCoarse(level, cellIndex int) {
	counts := g.Coarse[level].Counts
	if counts[cellIndex] < MaxCoarseCount {
		counts[cellIndex]++
	}
}

func (g *HierarchicalGrid) appendFine(cellIndex int, objIndex uint32, maxPerCell int) {
	if len(g.Fine.Cells[cellIndex]) >= maxPerCell {
		g.Report.DroppedRefs++
		return
	}
	g.Fine.Cells[cellIndex] = append(g.Fine.Cells[cellIndex], objIndex)
}

func (g *HierarchicalGrid) finalizeReport(opts Options) {
	crowded := int(math32.Ceil(opts.WarnOccupancy * float32(opts.MaxPerCell)))
	if crowded < 1 {
		crowded = 1
	}

	for _, cell := range g.Fine.Cells {
		if len(cell) >= opts.MaxPerCell {
			g.Report.FullCells++
		}
		if len(cell) >= crowded {
			g.Report.CrowdedCells++
		}
	}

	for _, level := range g.Coarse {
		for _, count := range level.Counts {
			if count == MaxCoarseCount {
				g.Report.SaturatedCells++
			}
		}
	}
}

// Get the cell size of a level.
func (g *HierarchicalGrid) LevelCellSize(level int) float32 {
	if level < len(g.Coarse) {
		return g.Coarse[level].CellSize
	}
	return g.Fine.CellSize
}

// Get the number of cells along each axis of a level.
func (g *HierarchicalGrid) LevelSize(level int) [3]int {
	if level < len(g.Coarse) {
		return g.Coarse[level].Size
	}
	return g.Fine.Size
}

// Map a world-space point to the coordinates of the level cell containing
// it. Points outside the grid are clamped to the closest boundary cell.
func (g *HierarchicalGrid) WorldToCell(level int, p types.Vec3) [3]int {
	var cell [3]int
	cellSize := g.LevelCellSize(level)
	size := g.LevelSize(level)
	for axis := 0; axis < 3; axis++ {
		c := int(math32.Floor((p[axis] - g.Bounds.Min[axis]) / cellSize))
		if c < 0 {
			c = 0
		} else if c >= size[axis] {
			c = size[axis] - 1
		}
		cell[axis] = c
	}
	return cell
}

// Get the row-major index of a level cell.
func (g *HierarchicalGrid) CellIndex(level int, cell [3]int) int {
	size := g.LevelSize(level)
	return cell[0] + cell[1]*size[0] + cell[2]*size[0]*size[1]
}

// Get the world-space bounds of a level cell. When a level is clamped to its
// max dimension, the last cell along an axis also covers the remainder of the
// grid bounds.
func (g *HierarchicalGrid) CellBounds(level int, cell [3]int) types.AABB {
	return cellBounds(g.Bounds, g.LevelCellSize(level), g.LevelSize(level), cell)
}

func cellBounds(bounds types.AABB, cellSize float32, size [3]int, cell [3]int) types.AABB {
	var box types.AABB
	for axis := 0; axis < 3; axis++ {
		box.Min[axis] = bounds.Min[axis] + float32(cell[axis])*cellSize
		box.Max[axis] = box.Min[axis] + cellSize
		if cell[axis] == size[axis]-1 && box.Max[axis] < bounds.Max[axis] {
			box.Max[axis] = bounds.Max[axis]
		}
	}
	return box
}

// Get the occupancy count of a level cell. Coarse counts saturate at 255.
func (g *HierarchicalGrid) Count(level int, cell [3]int) int {
	cellIndex := g.CellIndex(level, cell)
	if level < len(g.Coarse) {
		return int(g.Coarse[level].Counts[cellIndex])
	}
	return len(g.Fine.Cells[cellIndex])
}

// Get the primitives overlapping a fine level cell.
func (g *HierarchicalGrid) Cell(cell [3]int) []uint32 {
	return g.Fine.Cells[g.CellIndex(NumLevels-1, cell)]
}
