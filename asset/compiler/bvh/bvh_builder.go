package bvh

import (
	"time"

	"github.com/achilleasa/polaris-accel/log"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/chewxy/math32"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

const (
	// The builder will not evaluate split candidates along an axis if the
	// node bbox extent along that axis is less than this threshold.
	minAxisExtent float32 = 1e-6

	// Nodes with at least this many items score their three axes in
	// parallel.
	ParallelThreshold = 4096
)

// The Boundable interface is implemented by all primitives that can be
// partitioned by the bvh builder.
type Boundable interface {
	Bounds() types.AABB
}

// Primitives may optionally implement Centroider to override the default
// centroid (the center of their bounds) used for binning.
type Centroider interface {
	Centroid() types.Vec3
}

// Get the centroid of a bounded item.
func centroidOf(item Boundable) types.Vec3 {
	if c, ok := item.(Centroider); ok {
		return c.Centroid()
	}
	return item.Bounds().Center()
}

// Builder options.
type Options struct {
	// Nodes with this many items or fewer become leafs.
	MaxLeafItems int

	// The number of SAH buckets per axis.
	Buckets int

	// SAH cost model constants.
	TraversalCost    float32
	IntersectionCost float32
}

// Get the default builder options.
func DefaultOptions() Options {
	return Options{
		MaxLeafItems:     4,
		Buckets:          12,
		TraversalCost:    0.125,
		IntersectionCost: 1.0,
	}
}

// Node is a BVH tree node. Internal nodes own exactly two children; leafs
// have no children and list the indices of the primitives they contain.
// Bounds always equals the union of the bounds of all primitives beneath the
// node.
type Node struct {
	Bounds     types.AABB
	Left       *Node
	Right      *Node
	Primitives []uint32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

type splitScore struct {
	axis       Axis
	splitPoint float32
	cost       float32
	valid      bool
}

// better reports whether s should replace other as the best split. Ties are
// broken towards the lower axis so that concurrent scoring stays
// deterministic.
func (s splitScore) better(other splitScore) bool {
	if !s.valid {
		return false
	}
	if !other.valid || s.cost < other.cost {
		return true
	}
	return s.cost == other.cost && s.axis < other.axis
}

type bucket struct {
	bounds types.AABB
	count  int
}

type builder struct {
	logger log.Logger
	opts   Options

	centroids []types.Vec3
	bounds    []types.AABB

	// The index array partitioned in place while the tree is built.
	indices []uint32

	stats Stats
}

// Construct a BVH with the default options.
func Build(workList []Boundable) *Node {
	return BuildWithOptions(workList, DefaultOptions())
}

// Construct a BVH from a set of bounded items using the surface area
// heuristic (SAH) over binned centroids:
//
// cost = traversal cost + intersection cost * (left area * left count + right area * right count)
//
// Leafs store the indices of items in workList. The tree only depends on the
// order of workList, so identical input yields identical trees. An empty
// work list yields a nil tree.
func BuildWithOptions(workList []Boundable, opts Options) *Node {
	if len(workList) == 0 {
		return nil
	}
	if opts.MaxLeafItems < 1 {
		opts.MaxLeafItems = 1
	}
	if opts.Buckets < 2 {
		opts.Buckets = 2
	}

	b := &builder{
		logger:    log.New("bvh builder"),
		opts:      opts,
		centroids: make([]types.Vec3, len(workList)),
		bounds:    make([]types.AABB, len(workList)),
		indices:   make([]uint32, len(workList)),
	}

	for index, item := range workList {
		b.bounds[index] = item.Bounds()
		b.centroids[index] = centroidOf(item)
		b.indices[index] = uint32(index)
	}

	start := time.Now()
	root := b.partition(b.indices, 0)
	elapsed := time.Since(start)

	if b.stats.Leafs > 0 {
		b.stats.AvgLeafSize = float32(b.stats.TotalPrimitives) / float32(b.stats.Leafs)
	}
	instrumentBuild(elapsed, b.stats)

	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, avg leaf size: %.2f",
		elapsed.Nanoseconds()/1e6,
		b.stats.MaxDepth, b.stats.Nodes, b.stats.Leafs, b.stats.AvgLeafSize,
	)
	return root
}

// Partition the given slice of the index array and return the subtree root.
func (b *builder) partition(indices []uint32, depth int) *Node {
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}
	b.stats.Nodes++

	// Calculate bounding box for node
	node := &Node{Bounds: types.EmptyAABB()}
	for _, index := range indices {
		node.Bounds = node.Bounds.Union(b.bounds[index])
	}

	// Do we have enough items for partitioning? If not create a leaf
	if len(indices) <= b.opts.MaxLeafItems {
		return b.createLeaf(node, indices)
	}

	best := b.findSplit(indices, node.Bounds)
	if !best.valid {
		return b.createLeaf(node, indices)
	}

	// Items whose centroid lies below the split point go left
	mid := 0
	for i := range indices {
		if b.centroids[indices[i]][best.axis] < best.splitPoint {
			indices[mid], indices[i] = indices[i], indices[mid]
			mid++
		}
	}

	// Guard against degenerate partitions
	if mid == 0 || mid == len(indices) {
		return b.createLeaf(node, indices)
	}

	node.Left = b.partition(indices[:mid], depth+1)
	node.Right = b.partition(indices[mid:], depth+1)
	return node
}

// Find the cheapest split across all three axes.
func (b *builder) findSplit(indices []uint32, nodeBounds types.AABB) splitScore {
	var best splitScore

	if len(indices) < ParallelThreshold {
		for axis := XAxis; axis <= ZAxis; axis++ {
			if candidate := b.scoreAxis(indices, nodeBounds, axis); candidate.better(best) {
				best = candidate
			}
		}
		return best
	}

	// Run axis split tests in parallel
	scoreChan := make(chan splitScore, 3)
	for axis := XAxis; axis <= ZAxis; axis++ {
		go func(axis Axis) {
			scoreChan <- b.scoreAxis(indices, nodeBounds, axis)
		}(axis)
	}
	for pending := 3; pending > 0; pending-- {
		if candidate := <-scoreChan; candidate.better(best) {
			best = candidate
		}
	}
	return best
}

// Bin item centroids along an axis and score every split between adjacent
// buckets. Returns an invalid score if the axis cannot be split.
func (b *builder) scoreAxis(indices []uint32, nodeBounds types.AABB, axis Axis) splitScore {
	axisMin := nodeBounds.Min[axis]
	extent := nodeBounds.Max[axis] - axisMin
	if extent < minAxisExtent {
		return splitScore{}
	}

	numBuckets := b.opts.Buckets
	buckets := make([]bucket, numBuckets)
	for i := range buckets {
		buckets[i].bounds = types.EmptyAABB()
	}

	scale := float32(numBuckets) / extent
	for _, index := range indices {
		bi := int((b.centroids[index][axis] - axisMin) * scale)
		if bi < 0 {
			bi = 0
		} else if bi >= numBuckets {
			bi = numBuckets - 1
		}
		buckets[bi].count++
		buckets[bi].bounds = buckets[bi].bounds.Union(b.bounds[index])
	}

	// Sweep from the right to accumulate the right hand side areas/counts.
	rightArea := make([]float32, numBuckets)
	rightCount := make([]int, numBuckets)
	acc := types.EmptyAABB()
	count := 0
	for i := numBuckets - 1; i > 0; i-- {
		acc = acc.Union(buckets[i].bounds)
		count += buckets[i].count
		rightArea[i] = acc.SurfaceArea()
		rightCount[i] = count
	}

	best := splitScore{axis: axis, cost: math32.MaxFloat32}
	acc = types.EmptyAABB()
	count = 0
	for i := 0; i < numBuckets-1; i++ {
		acc = acc.Union(buckets[i].bounds)
		count += buckets[i].count

		// Make sure that we don't generate empty partitions
		if count == 0 || rightCount[i+1] == 0 {
			continue
		}

		cost := b.opts.TraversalCost + b.opts.IntersectionCost*
			(acc.SurfaceArea()*float32(count)+rightArea[i+1]*float32(rightCount[i+1]))
		if cost < best.cost {
			best.cost = cost
			best.splitPoint = axisMin + extent*float32(i+1)/float32(numBuckets)
			best.valid = true
		}
	}

	return best
}

// Setup the given node as a leaf containing all items in the index slice.
func (b *builder) createLeaf(node *Node, indices []uint32) *Node {
	node.Primitives = indices[:len(indices):len(indices)]

	b.stats.Leafs++
	b.stats.TotalPrimitives += len(indices)
	return node
}
