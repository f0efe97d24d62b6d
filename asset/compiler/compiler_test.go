package compiler

import (
	"testing"

	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testScene() *scene.Scene {
	sc := &scene.Scene{Name: "test"}
	for i := 0; i < 10; i++ {
		x := float32(i) * 3
		sc.Spheres = append(sc.Spheres, scene.Sphere{Center: types.Vec3{x, 0, -10}, Radius: 1})
		sc.Boxes = append(sc.Boxes, scene.Box{Min: types.Vec3{x - 1, 4, -11}, Max: types.Vec3{x + 1, 6, -9}})
		sc.Triangles = append(sc.Triangles, scene.Triangle{
			Vertices: [3]types.Vec3{{x - 1, -6, -10}, {x + 1, -6, -10}, {x, -4, -10}},
		})
	}
	return sc
}

func TestCompileAll(t *testing.T) {
	sc := testScene()
	compiled, err := Compile(sc, DefaultOptions())
	require.NoError(t, err)

	_, err = uuid.Parse(compiled.Id)
	require.NoError(t, err)
	require.Equal(t, scene.StrategyAll, compiled.Strategy)
	require.Same(t, sc, compiled.Source)

	require.NotEmpty(t, compiled.BvhNodeList)
	require.Len(t, compiled.BvhPrimitiveIndices, sc.PrimitiveCount())
	require.Equal(t, sc.Bounds(), compiled.BvhNodeList[0].Bounds())

	require.NotNil(t, compiled.Grid)
	require.Equal(t, uint32(scene.GridLevels), compiled.Grid.Metadata.NumLevels)
	require.Equal(t, compiled.Grid.Metadata.LevelCellCount(scene.GridLevels-1), len(compiled.Grid.FineCells))
}

func TestCompileSingleStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = scene.StrategyBvh
	compiled, err := Compile(testScene(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, compiled.BvhNodeList)
	require.Nil(t, compiled.Grid)

	opts.Strategy = scene.StrategyGrid
	compiled, err = Compile(testScene(), opts)
	require.NoError(t, err)
	require.Empty(t, compiled.BvhNodeList)
	require.NotNil(t, compiled.Grid)
}

func TestBuildStructures(t *testing.T) {
	sc := testScene()
	structures, err := Build(sc, Options{Bvh: DefaultOptions().Bvh, Grid: DefaultOptions().Grid})
	require.NoError(t, err)
	require.Len(t, structures.Primitives, sc.PrimitiveCount())
	require.NotNil(t, structures.BvhRoot)
	require.NotNil(t, structures.Grid)
	require.Equal(t, sc.Bounds(), structures.BvhRoot.Bounds)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(nil, DefaultOptions())
	require.Equal(t, ErrNilScene, err)

	opts := DefaultOptions()
	opts.Strategy = "octree"
	_, err = Compile(testScene(), opts)
	require.Equal(t, ErrUnknownStrategy, err)

	sc := testScene()
	sc.TriangleKernel = "bogus"
	_, err = Compile(sc, DefaultOptions())
	require.Equal(t, scene.ErrUnknownKernel, err)

	opts = DefaultOptions()
	opts.Grid.FinestCellSize = 0
	_, err = Compile(testScene(), opts)
	require.Error(t, err)
}

func TestCompileEmptyScene(t *testing.T) {
	compiled, err := Compile(&scene.Scene{Name: "empty"}, DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, compiled.BvhNodeList)
	require.Empty(t, compiled.BvhPrimitiveIndices)
	require.NotNil(t, compiled.Grid)
}
