package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/polaris-accel/asset/compiler"
	"github.com/achilleasa/polaris-accel/asset/scene"
	"github.com/achilleasa/polaris-accel/asset/scene/reader"
	"github.com/achilleasa/polaris-accel/types"
	"github.com/urfave/cli"
)

// Flags shared by all commands that compile scenes.
var CompilerFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "strategy",
		Value: string(scene.StrategyAll),
		Usage: "acceleration structures to build (bvh, grid or all)",
	},
	cli.IntFlag{
		Name:  "leaf-size",
		Value: compiler.DefaultOptions().Bvh.MaxLeafItems,
		Usage: "max primitives per BVH leaf",
	},
	cli.IntFlag{
		Name:  "buckets",
		Value: compiler.DefaultOptions().Bvh.Buckets,
		Usage: "number of SAH buckets per axis",
	},
	cli.Float64Flag{
		Name:  "cell-size",
		Value: float64(compiler.DefaultOptions().Grid.FinestCellSize),
		Usage: "finest grid level cell size; grown to fit the scene in max-dim cells unless --fit-cell-size=false",
	},
	cli.BoolTFlag{
		Name:  "fit-cell-size",
		Usage: "grow the finest cell size when the scene extent exceeds max-dim cells",
	},
	cli.IntFlag{
		Name:  "max-dim",
		Value: compiler.DefaultOptions().Grid.MaxDimension,
		Usage: "max number of grid cells along each axis",
	},
	cli.IntFlag{
		Name:  "max-per-cell",
		Value: compiler.DefaultOptions().Grid.MaxPerCell,
		Usage: fmt.Sprintf("max primitives per fine grid cell (up to %d)", scene.MaxObjectsPerCell),
	},
}

// Populate compiler options from command flags.
func compilerOptions(ctx *cli.Context) compiler.Options {
	opts := compiler.DefaultOptions()
	opts.Strategy = scene.Strategy(ctx.String("strategy"))
	opts.Bvh.MaxLeafItems = ctx.Int("leaf-size")
	opts.Bvh.Buckets = ctx.Int("buckets")
	opts.Grid.FinestCellSize = float32(ctx.Float64("cell-size"))
	opts.Grid.MaxDimension = ctx.Int("max-dim")
	opts.Grid.FitCellSize = ctx.BoolT("fit-cell-size")
	opts.Grid.MaxPerCell = ctx.Int("max-per-cell")
	return opts
}

// Load the scene passed as the single command argument.
func loadScene(ctx *cli.Context) (*scene.CompiledScene, error) {
	if ctx.NArg() != 1 {
		return nil, fmt.Errorf("missing scene file argument")
	}
	return reader.ReadSceneWithOptions(ctx.Args().First(), compilerOptions(ctx))
}

// Parse a "x,y,z" vector.
func parseVec3(value string) (types.Vec3, error) {
	var v types.Vec3
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("invalid vector %q; expected x,y,z", value)
	}
	for index, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, fmt.Errorf("invalid vector %q: %s", value, err.Error())
		}
		v[index] = float32(f)
	}
	return v, nil
}

// Parse a "x,y,z" ray direction and normalize it.
func parseDir(value string) (types.Vec3, error) {
	dir, err := parseVec3(value)
	if err != nil {
		return dir, err
	}
	dir = dir.Normalize()
	if dir.Len() == 0 {
		return dir, fmt.Errorf("ray direction %q is too short to normalize", value)
	}
	return dir, nil
}
