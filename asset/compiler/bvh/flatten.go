package bvh

import "github.com/achilleasa/polaris-accel/asset/scene"

// Flatten a BVH tree into a list of nodes using a depth-first pre-order walk.
// The left child of an internal node is always stored right after it while
// the index of the right child is stored in its PrimOffset field. Leafs point
// to a contiguous block inside the returned primitive index list.
func Flatten(root *Node) ([]scene.BvhNode, []uint32) {
	if root == nil {
		return nil, nil
	}

	stats := CollectStats(root)
	nodeList := make([]scene.BvhNode, 0, stats.Nodes)
	primList := make([]uint32, 0, stats.TotalPrimitives)

	var flatten func(node *Node) uint32
	flatten = func(node *Node) uint32 {
		nodeIndex := uint32(len(nodeList))
		nodeList = append(nodeList, scene.BvhNode{})
		nodeList[nodeIndex].SetBounds(node.Bounds)

		if node.IsLeaf() {
			nodeList[nodeIndex].SetPrimitives(uint32(len(primList)), uint32(len(node.Primitives)))
			primList = append(primList, node.Primitives...)
			return nodeIndex
		}

		flatten(node.Left)
		rightIndex := flatten(node.Right)

		// nodeList may have been reallocated by the recursive calls
		nodeList[nodeIndex].SetRightChild(rightIndex)
		return nodeIndex
	}

	flatten(root)
	return nodeList, primList
}
