package reader

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/polaris-accel/asset"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/chewxy/math32"
	"github.com/segmentio/encoding/json"
)

// Grid levels larger than this along any axis are rejected when loading a
// bundle.
const maxGridDimension = 1 << 16

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read a compiled scene bundle.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.CompiledScene, error) {
	p.logger.Noticef(`loading compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		switch f.Name {
		case scene.ManifestEntry, scene.SourceEntry, scene.BvhNodesEntry, scene.BvhPrimsEntry,
			scene.GridMetaEntry, scene.GridCoarseEntry, scene.GridCellsEntry:
		default:
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		entries[f.Name], err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zipSceneReader: failed to load %s: %s", f.Name, err.Error())
		}
	}

	sc, err := decodeBundle(entries)
	if err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

func decodeBundle(entries map[string][]byte) (*scene.CompiledScene, error) {
	manifestData, exists := entries[scene.ManifestEntry]
	if !exists {
		return nil, fmt.Errorf("zipSceneReader: missing %s", scene.ManifestEntry)
	}
	var manifest scene.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("zipSceneReader: failed to parse %s: %s", scene.ManifestEntry, err.Error())
	}
	if manifest.Version != scene.BundleVersion {
		return nil, fmt.Errorf("zipSceneReader: unsupported bundle version %d", manifest.Version)
	}
	if !manifest.Strategy.HasBvh() && !manifest.Strategy.HasGrid() {
		return nil, fmt.Errorf("zipSceneReader: unsupported strategy %q", manifest.Strategy)
	}

	sc := &scene.CompiledScene{
		Id:       manifest.Id,
		Strategy: manifest.Strategy,
		Source:   &scene.Scene{},
	}

	if data, exists := entries[scene.SourceEntry]; exists {
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(sc.Source); err != nil {
			return nil, fmt.Errorf("zipSceneReader: failed to load %s: %s", scene.SourceEntry, err.Error())
		}
	}

	var err error
	if sc.Strategy.HasBvh() {
		if sc.BvhNodeList, err = scene.DecodeBvhNodes(entries[scene.BvhNodesEntry]); err != nil {
			return nil, err
		}
		if sc.BvhPrimitiveIndices, err = scene.DecodeUint32s(entries[scene.BvhPrimsEntry]); err != nil {
			return nil, err
		}
	}

	if sc.Strategy.HasGrid() {
		gb := &scene.GridBuffers{}
		if gb.Metadata, err = scene.DecodeGridMetadata(entries[scene.GridMetaEntry]); err != nil {
			return nil, err
		}
		if err = validateGridMetadata(&gb.Metadata); err != nil {
			return nil, err
		}
		gb.CoarseCounts = entries[scene.GridCoarseEntry]
		if exp := gb.CoarseLevelOffset(scene.GridLevels - 1); exp != len(gb.CoarseCounts) {
			return nil, fmt.Errorf("zipSceneReader: expected %d coarse counts; got %d", exp, len(gb.CoarseCounts))
		}
		if gb.FineCells, err = scene.DecodeGridCells(entries[scene.GridCellsEntry]); err != nil {
			return nil, err
		}
		if exp := gb.Metadata.LevelCellCount(scene.GridLevels - 1); exp != len(gb.FineCells) {
			return nil, fmt.Errorf("zipSceneReader: expected %d fine cells; got %d", exp, len(gb.FineCells))
		}
		sc.Grid = gb
	}

	if len(sc.BvhNodeList) != manifest.BvhNodes {
		return nil, fmt.Errorf("zipSceneReader: expected %d bvh nodes; got %d", manifest.BvhNodes, len(sc.BvhNodeList))
	}

	primCount := sc.Source.PrimitiveCount()
	if manifest.Primitives != primCount {
		return nil, fmt.Errorf("zipSceneReader: expected %d primitives; got %d", manifest.Primitives, primCount)
	}
	if err = validateBvh(sc.BvhNodeList, sc.BvhPrimitiveIndices, primCount); err != nil {
		return nil, err
	}
	if sc.Grid != nil {
		if err = validateGridCells(sc.Grid.FineCells, primCount); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Check that every node of a flattened BVH references valid children and
// primitives. Child indices must point forward so traversal terminates.
func validateBvh(nodes []scene.BvhNode, primIndices []uint32, primCount int) error {
	for index := range nodes {
		node := &nodes[index]
		if node.IsLeaf() {
			if uint64(node.PrimOffset)+uint64(node.PrimCount) > uint64(len(primIndices)) {
				return fmt.Errorf(
					"zipSceneReader: bvh node %d references primitive indices [%d, %d) past the end of the index list (%d)",
					index, node.PrimOffset, uint64(node.PrimOffset)+uint64(node.PrimCount), len(primIndices),
				)
			}
			continue
		}

		if index+1 >= len(nodes) {
			return fmt.Errorf("zipSceneReader: bvh node %d has no left child", index)
		}
		if int(node.PrimOffset) <= index+1 || int(node.PrimOffset) >= len(nodes) {
			return fmt.Errorf("zipSceneReader: bvh node %d has invalid right child index %d", index, node.PrimOffset)
		}
	}

	for index, primIndex := range primIndices {
		if int(primIndex) >= primCount {
			return fmt.Errorf("zipSceneReader: bvh primitive index %d references primitive %d; scene has %d", index, primIndex, primCount)
		}
	}
	return nil
}

// Check grid metadata before any buffer sizes are derived from it.
func validateGridMetadata(meta *scene.GridMetadata) error {
	if meta.NumLevels != scene.GridLevels {
		return fmt.Errorf("zipSceneReader: unsupported grid level count %d", meta.NumLevels)
	}
	if !(meta.FinestCellSize > 0) || math32.IsInf(meta.FinestCellSize, 0) {
		return fmt.Errorf("zipSceneReader: invalid finest cell size %f", meta.FinestCellSize)
	}
	for axis := 0; axis < 3; axis++ {
		if !(meta.BoundsMin[axis] <= meta.BoundsMax[axis]) {
			return fmt.Errorf("zipSceneReader: invalid grid bounds %v - %v", meta.BoundsMin, meta.BoundsMax)
		}
	}
	for level := 0; level < scene.GridLevels; level++ {
		for axis := 0; axis < 3; axis++ {
			if dim := meta.GridSizes[level][axis]; dim == 0 || dim > maxGridDimension {
				return fmt.Errorf("zipSceneReader: invalid size %d along axis %d of grid level %d", dim, axis, level)
			}
		}
	}
	return nil
}

// Check that fine cell records stay within their capacity and reference
// existing primitives.
func validateGridCells(cells []scene.GridCell, primCount int) error {
	for index := range cells {
		cell := &cells[index]
		if cell.Count > scene.MaxObjectsPerCell {
			return fmt.Errorf("zipSceneReader: grid cell %d holds %d objects; max is %d", index, cell.Count, scene.MaxObjectsPerCell)
		}
		for _, objIndex := range cell.Objects() {
			if int(objIndex) >= primCount {
				return fmt.Errorf("zipSceneReader: grid cell %d references primitive %d; scene has %d", index, objIndex, primCount)
			}
		}
	}
	return nil
}
