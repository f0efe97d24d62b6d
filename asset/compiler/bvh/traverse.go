package bvh

import (
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/intersect"
)

// The depth of the fixed traversal stack used by TraverseFlat. A SAH tree
// would need to be pathologically unbalanced to exceed it; deeper trees fall
// back to a growable stack.
const flatStackSize = 64

// The closest intersection found while traversing a BVH.
type Hit struct {
	T         float32
	Primitive uint32
}

// PrimitiveTest intersects the primitive with the given index and returns
// the hit distance.
type PrimitiveTest func(ray intersect.Ray, primIndex uint32) (float32, bool)

// Traverse the tree and return the closest primitive hit. The ray is tested
// against the bounds of each node before descending into it; leaf primitives
// are tested linearly and both children of internal nodes are visited.
func Traverse(root *Node, ray intersect.Ray, test PrimitiveTest) (Hit, bool) {
	if root == nil {
		return Hit{}, false
	}
	return traverse(root, ray, test)
}

func traverse(node *Node, ray intersect.Ray, test PrimitiveTest) (Hit, bool) {
	if !intersect.AABBHit(ray.Origin, ray.Dir, node.Bounds) {
		return Hit{}, false
	}

	if node.IsLeaf() {
		return testLeaf(node.Primitives, ray, test)
	}

	leftHit, leftOk := traverse(node.Left, ray, test)
	rightHit, rightOk := traverse(node.Right, ray, test)
	switch {
	case leftOk && rightOk:
		if rightHit.T < leftHit.T {
			return rightHit, true
		}
		return leftHit, true
	case leftOk:
		return leftHit, true
	}
	return rightHit, rightOk
}

// Traverse a flattened tree without recursion. The nodes and primitive
// indices must come from Flatten.
func TraverseFlat(nodes []scene.BvhNode, primIndices []uint32, ray intersect.Ray, test PrimitiveTest) (Hit, bool) {
	var (
		closest Hit
		found   bool
		buf     [flatStackSize]uint32
	)
	if len(nodes) == 0 {
		return closest, false
	}

	stack := append(buf[:0], 0)
	for len(stack) > 0 {
		nodeIndex := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &nodes[nodeIndex]
		tNear, tFar := intersect.Slab(ray.Origin, ray.Dir, node.Bounds())
		if tFar < tNear || tFar < 0 || (found && tNear > closest.T) {
			continue
		}

		if node.IsLeaf() {
			leafPrims := primIndices[node.PrimOffset : node.PrimOffset+node.PrimCount]
			if hit, ok := testLeaf(leafPrims, ray, test); ok && (!found || hit.T < closest.T) {
				closest, found = hit, true
			}
			continue
		}

		stack = append(stack, node.PrimOffset, nodeIndex+1)
	}

	return closest, found
}

// Test all primitives in a leaf and keep the closest hit.
func testLeaf(primitives []uint32, ray intersect.Ray, test PrimitiveTest) (Hit, bool) {
	var (
		closest Hit
		found   bool
	)
	for _, primIndex := range primitives {
		t, ok := test(ray, primIndex)
		if ok && (!found || t < closest.T) {
			closest = Hit{T: t, Primitive: primIndex}
			found = true
		}
	}
	return closest, found
}
