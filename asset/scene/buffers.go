package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var byteOrder = binary.LittleEndian

// Sizes of the fixed-size GPU records in bytes.
var (
	BvhNodeSize      = binary.Size(BvhNode{})
	GridMetadataSize = binary.Size(GridMetadata{})
	GridCellSize     = binary.Size(GridCell{})
)

// Encode a list of fixed-size records (or a single record) into their
// little-endian byte representation.
func EncodeBuffer(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, byteOrder, data); err != nil {
		return nil, fmt.Errorf("scene: could not encode buffer: %s", err.Error())
	}
	return buf.Bytes(), nil
}

// Decode flattened BVH nodes.
func DecodeBvhNodes(data []byte) ([]BvhNode, error) {
	if len(data)%BvhNodeSize != 0 {
		return nil, fmt.Errorf("scene: bvh node buffer length %d is not a multiple of %d", len(data), BvhNodeSize)
	}
	nodes := make([]BvhNode, len(data)/BvhNodeSize)
	if err := binary.Read(bytes.NewReader(data), byteOrder, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Decode a list of uint32 values.
func DecodeUint32s(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("scene: uint32 buffer length %d is not a multiple of 4", len(data))
	}
	out := make([]uint32, len(data)/4)
	for index := range out {
		out[index] = byteOrder.Uint32(data[index*4:])
	}
	return out, nil
}

// Decode a grid metadata record.
func DecodeGridMetadata(data []byte) (GridMetadata, error) {
	var meta GridMetadata
	if len(data) != GridMetadataSize {
		return meta, fmt.Errorf("scene: grid metadata buffer length %d; expected %d", len(data), GridMetadataSize)
	}
	err := binary.Read(bytes.NewReader(data), byteOrder, &meta)
	return meta, err
}

// Decode fine grid cell records.
func DecodeGridCells(data []byte) ([]GridCell, error) {
	if len(data)%GridCellSize != 0 {
		return nil, fmt.Errorf("scene: grid cell buffer length %d is not a multiple of %d", len(data), GridCellSize)
	}
	cells := make([]GridCell, len(data)/GridCellSize)
	if err := binary.Read(bytes.NewReader(data), byteOrder, cells); err != nil {
		return nil, err
	}
	return cells, nil
}
