package bvh

// Stats summarizes the shape of a BVH tree.
type Stats struct {
	Nodes           int
	Leafs           int
	MaxDepth        int
	TotalPrimitives int
	AvgLeafSize     float32
}

// Walk a tree and collect its statistics.
func CollectStats(root *Node) Stats {
	var stats Stats
	if root == nil {
		return stats
	}

	collectStats(root, 0, &stats)
	if stats.Leafs > 0 {
		stats.AvgLeafSize = float32(stats.TotalPrimitives) / float32(stats.Leafs)
	}
	return stats
}

func collectStats(node *Node, depth int, stats *Stats) {
	stats.Nodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.Leafs++
		stats.TotalPrimitives += len(node.Primitives)
		return
	}

	collectStats(node.Left, depth+1, stats)
	collectStats(node.Right, depth+1, stats)
}
