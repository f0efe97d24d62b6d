package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/achilleasa/polaris-accel/types"
	"github.com/olekukonko/tablewriter"
)

const (
	// The number of levels in the hierarchical grid (coarsest first).
	GridLevels = 4

	// The capacity of a fine grid cell record.
	MaxObjectsPerCell = 16
)

// Flattened BVH nodes take 32 bytes. The field order matches the layout that
// GPU kernels walk by raw offset.
//
// - For internal nodes PrimCount is 0 and PrimOffset is the index of the right
//   child; the left child is always the next node in the list.
// - For leafs PrimCount is > 0 and PrimOffset is the index of the first
//   primitive in the flattened primitive index list.
type BvhNode struct {
	BoundsMin  types.Vec3
	PrimCount  uint32
	BoundsMax  types.Vec3
	PrimOffset uint32
}

// Returns true if this is a leaf node.
func (n *BvhNode) IsLeaf() bool {
	return n.PrimCount > 0
}

// Get the node bounding box.
func (n *BvhNode) Bounds() types.AABB {
	return types.NewAABB(n.BoundsMin, n.BoundsMax)
}

// Set bounding box.
func (n *BvhNode) SetBounds(bbox types.AABB) {
	n.BoundsMin = bbox.Min
	n.BoundsMax = bbox.Max
}

// Set the index of the right child node.
func (n *BvhNode) SetRightChild(index uint32) {
	n.PrimCount = 0
	n.PrimOffset = index
}

// Set primitive index and count.
func (n *BvhNode) SetPrimitives(firstPrimIndex, count uint32) {
	n.PrimOffset = firstPrimIndex
	n.PrimCount = count
}

// Grid metadata record (96 bytes). Each level size is padded to 4 uint32s.
type GridMetadata struct {
	BoundsMin      types.Vec3
	NumLevels      uint32
	BoundsMax      types.Vec3
	FinestCellSize float32
	GridSizes      [GridLevels][4]uint32
}

// Get the cell count for a grid level.
func (m *GridMetadata) LevelCellCount(level int) int {
	s := m.GridSizes[level]
	return int(s[0]) * int(s[1]) * int(s[2])
}

// Get the cell size for a grid level.
func (m *GridMetadata) LevelCellSize(level int) float32 {
	return m.FinestCellSize * float32(uint32(1)<<uint(int(m.NumLevels)-1-level))
}

// A fine grid cell record (80 bytes).
type GridCell struct {
	ObjectIndices [MaxObjectsPerCell]uint32
	Count         uint32
	_             [3]uint32
}

// Get the populated object indices.
func (c *GridCell) Objects() []uint32 {
	return c.ObjectIndices[:c.Count]
}

// The packed representation of a hierarchical grid.
type GridBuffers struct {
	Metadata GridMetadata

	// Per-cell occupancy counts for all coarse levels, coarsest first.
	CoarseCounts []uint8

	// Fine level cells in row-major order.
	FineCells []GridCell
}

// Get the offset of a coarse level inside CoarseCounts.
func (gb *GridBuffers) CoarseLevelOffset(level int) int {
	offset := 0
	for l := 0; l < level; l++ {
		offset += gb.Metadata.LevelCellCount(l)
	}
	return offset
}

// The acceleration structure strategy stored in a compiled scene.
type Strategy string

const (
	StrategyBvh  Strategy = "bvh"
	StrategyGrid Strategy = "grid"
	StrategyAll  Strategy = "all"
)

// Returns true if the strategy includes a BVH.
func (s Strategy) HasBvh() bool {
	return s == StrategyBvh || s == StrategyAll
}

// Returns true if the strategy includes a hierarchical grid.
func (s Strategy) HasGrid() bool {
	return s == StrategyGrid || s == StrategyAll
}

// CompiledScene bundles the source geometry together with the flattened
// acceleration structures that a downstream renderer uploads verbatim.
type CompiledScene struct {
	Id       string
	Strategy Strategy
	Source   *Scene

	// Flattened BVH and the primitive indices referenced by its leafs.
	BvhNodeList         []BvhNode
	BvhPrimitiveIndices []uint32

	// Packed grid; nil if the strategy does not include a grid.
	Grid *GridBuffers
}

// Build a tabular representation of scene statistics.
func (sc *CompiledScene) Stats() string {
	var (
		buf          bytes.Buffer
		spheres      []Sphere
		boxes        []Box
		triangles    []Triangle
		gridMeta     []GridMetadata
		coarseCounts []uint8
		fineCells    []GridCell
	)

	if sc.Source != nil {
		spheres, boxes, triangles = sc.Source.Spheres, sc.Source.Boxes, sc.Source.Triangles
	}
	if sc.Grid != nil {
		gridMeta = []GridMetadata{sc.Grid.Metadata}
		coarseCounts, fineCells = sc.Grid.CoarseCounts, sc.Grid.FineCells
	}

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", fmtCount(spheres, boxes, triangles), fmtSize(spheres, boxes, triangles)})
	table.Append([]string{"", "Spheres", fmtCount(spheres), fmtSize(spheres)})
	table.Append([]string{"", "Boxes", fmtCount(boxes), fmtSize(boxes)})
	table.Append([]string{"", "Triangles", fmtCount(triangles), fmtSize(triangles)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "---", fmtCount(sc.BvhNodeList), fmtSize(sc.BvhNodeList, sc.BvhPrimitiveIndices)})
	table.Append([]string{"", "Nodes", fmtCount(sc.BvhNodeList), fmtSize(sc.BvhNodeList)})
	table.Append([]string{"", "Prim. indices", fmtCount(sc.BvhPrimitiveIndices), fmtSize(sc.BvhPrimitiveIndices)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Grid", "---", fmtCount(fineCells), fmtSize(gridMeta, coarseCounts, fineCells)})
	table.Append([]string{"", "Metadata", fmtCount(gridMeta), fmtSize(gridMeta)})
	table.Append([]string{"", "Coarse counts", fmtCount(coarseCounts), fmtSize(coarseCounts)})
	table.Append([]string{"", "Fine cells", fmtCount(fineCells), fmtSize(fineCells)})
	table.SetFooter([]string{"Total", string(sc.Strategy), " ", strings.TrimLeft(fmtSize(spheres, boxes, triangles, sc.BvhNodeList, sc.BvhPrimitiveIndices, gridMeta, coarseCounts, fineCells), " ")})

	table.Render()
	return buf.String()
}

// Sum the number of elements in a set of slices.
func fmtCount(items ...interface{}) string {
	total := 0
	for _, item := range items {
		total += reflect.ValueOf(item).Len()
	}
	return fmt.Sprintf("%d", total)
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
