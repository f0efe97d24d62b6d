package compiler

import (
	"errors"
	"time"

	"github.com/achilleasa/polaris-accel/asset/compiler/bvh"
	"github.com/achilleasa/polaris-accel/asset/compiler/grid"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/log"
	"github.com/google/uuid"
)

var (
	ErrNilScene        = errors.New("compiler: nil scene")
	ErrUnknownStrategy = errors.New("compiler: unknown acceleration strategy")
)

// Compiler options.
type Options struct {
	// The acceleration structures to build.
	Strategy scene.Strategy

	Bvh  bvh.Options
	Grid grid.Options
}

// Get the default compiler options which build both structures.
func DefaultOptions() Options {
	return Options{
		Strategy: scene.StrategyAll,
		Bvh:      bvh.DefaultOptions(),
		Grid:     grid.DefaultOptions(),
	}
}

// Structures holds the in-memory acceleration structures for a scene. Both
// structures index the list returned by Scene.Primitives.
type Structures struct {
	Primitives []scene.Primitive

	// Nil if the strategy does not include a BVH or the scene is empty.
	BvhRoot *bvh.Node

	// Nil if the strategy does not include a grid.
	Grid *grid.HierarchicalGrid
}

type sceneCompiler struct {
	source *scene.Scene
	opts   Options
	logger log.Logger
}

// Build the acceleration structures selected by opts.Strategy.
func Build(sc *scene.Scene, opts Options) (*Structures, error) {
	if sc == nil {
		return nil, ErrNilScene
	}
	if opts.Strategy == "" {
		opts.Strategy = scene.StrategyAll
	}
	if !opts.Strategy.HasBvh() && !opts.Strategy.HasGrid() {
		return nil, ErrUnknownStrategy
	}

	compiler := &sceneCompiler{
		source: sc,
		opts:   opts,
		logger: log.New("scene compiler"),
	}
	return compiler.build()
}

// Compile a scene into a set of flattened acceleration structures which can
// be uploaded to a GPU or written to a scene bundle.
func Compile(sc *scene.Scene, opts Options) (*scene.CompiledScene, error) {
	structures, err := Build(sc, opts)
	if err != nil {
		return nil, err
	}
	if opts.Strategy == "" {
		opts.Strategy = scene.StrategyAll
	}

	compiled := &scene.CompiledScene{
		Id:       uuid.New().String(),
		Strategy: opts.Strategy,
		Source:   sc,
	}

	if structures.BvhRoot != nil {
		compiled.BvhNodeList, compiled.BvhPrimitiveIndices = bvh.Flatten(structures.BvhRoot)
	}
	if structures.Grid != nil {
		compiled.Grid = structures.Grid.Pack()
	}

	return compiled, nil
}

func (sc *sceneCompiler) build() (*Structures, error) {
	start := time.Now()
	sc.logger.Noticef(`compiling scene "%s" (strategy: %s)`, sc.source.Name, sc.opts.Strategy)

	prims, err := sc.source.Primitives()
	if err != nil {
		return nil, err
	}

	out := &Structures{Primitives: prims}

	if sc.opts.Strategy.HasBvh() {
		out.BvhRoot = sc.partitionGeometry(prims)
	}

	if sc.opts.Strategy.HasGrid() {
		out.Grid, err = sc.buildGrid(prims)
		if err != nil {
			return nil, err
		}
	}

	sc.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return out, nil
}

// Partition scene primitives into a BVH tree.
func (sc *sceneCompiler) partitionGeometry(prims []scene.Primitive) *bvh.Node {
	start := time.Now()
	sc.logger.Infof("building scene BVH tree (%d primitives)", len(prims))

	workList := make([]bvh.Boundable, len(prims))
	for index, prim := range prims {
		workList[index] = prim
	}
	root := bvh.BuildWithOptions(workList, sc.opts.Bvh)

	if root == nil {
		sc.logger.Warning("the scene contains no primitives; BVH is empty")
	} else {
		stats := bvh.CollectStats(root)
		sc.logger.Infof(
			"built BVH in %d ms (nodes: %d, leafs: %d, max depth: %d, avg leaf size: %.2f)",
			time.Since(start).Nanoseconds()/1e6, stats.Nodes, stats.Leafs, stats.MaxDepth, stats.AvgLeafSize,
		)
	}
	return root
}

// Build a hierarchical grid over the scene primitives.
func (sc *sceneCompiler) buildGrid(prims []scene.Primitive) (*grid.HierarchicalGrid, error) {
	start := time.Now()
	sc.logger.Infof("building hierarchical grid (%d primitives)", len(prims))

	objects := make([]grid.Boundable, len(prims))
	for index, prim := range prims {
		objects[index] = prim
	}
	g, err := grid.Build(objects, sc.opts.Grid)
	if err != nil {
		return nil, err
	}

	sc.logger.Infof(
		"built grid in %d ms (fine level: %v cells of size %.2f, dropped refs: %d)",
		time.Since(start).Nanoseconds()/1e6, g.Fine.Size, g.Fine.CellSize, g.Report.DroppedRefs,
	)
	return g, nil
}
