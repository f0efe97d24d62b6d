package cmd

import (
	"errors"
	"strings"

	"github.com/achilleasa/polaris-accel/asset/scene/reader"
	"github.com/achilleasa/polaris-accel/asset/scene/writer"
	"github.com/urfave/cli"
)

// Compile scene descriptions to compressed scene bundles.
func CompileScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file arguments")
	}

	opts := compilerOptions(ctx)
	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".json") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadSceneWithOptions(sceneFile, opts)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())

		zipFile := strings.TrimSuffix(sceneFile, ".json") + ".zip"
		if out := ctx.String("out"); out != "" && ctx.NArg() == 1 {
			zipFile = out
		}
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}

// Display scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information (id: %s):\n%s", sc.Id, sc.Stats())

	return nil
}
