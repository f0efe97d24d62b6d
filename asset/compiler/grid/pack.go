package grid

import (
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/types"
)

// Pack the grid into the fixed-size buffers consumed by GPU grid marchers:
// a metadata record, the concatenated coarse level counts (coarsest first)
// and one fixed-capacity record per fine cell in row-major order.
func (g *HierarchicalGrid) Pack() *scene.GridBuffers {
	gb := &scene.GridBuffers{
		Metadata: scene.GridMetadata{
			BoundsMin:      g.Bounds.Min,
			NumLevels:      NumLevels,
			BoundsMax:      g.Bounds.Max,
			FinestCellSize: g.Fine.CellSize,
		},
	}

	coarseLen := 0
	for _, level := range g.Coarse {
		coarseLen += len(level.Counts)
	}

	gb.CoarseCounts = make([]uint8, 0, coarseLen)
	for level := 0; level < NumLevels; level++ {
		size := g.LevelSize(level)
		gb.Metadata.GridSizes[level] = [4]uint32{uint32(size[0]), uint32(size[1]), uint32(size[2]), 0}
		if level < len(g.Coarse) {
			gb.CoarseCounts = append(gb.CoarseCounts, g.Coarse[level].Counts...)
		}
	}

	gb.FineCells = make([]scene.GridCell, len(g.Fine.Cells))
	for cellIndex, objects := range g.Fine.Cells {
		rec := &gb.FineCells[cellIndex]
		rec.Count = uint32(copy(rec.ObjectIndices[:], objects))
	}

	return gb
}

// PackedCellBounds returns the world-space bounds of a cell described by a
// packed metadata record. It matches HierarchicalGrid.CellBounds.
func PackedCellBounds(meta *scene.GridMetadata, level int, cell [3]int) types.AABB {
	s := meta.GridSizes[level]
	return cellBounds(
		types.NewAABB(meta.BoundsMin, meta.BoundsMax),
		meta.LevelCellSize(level),
		[3]int{int(s[0]), int(s[1]), int(s[2])},
		cell,
	)
}
