package cmd

import (
	"strings"

	"github.com/urfave/cli"

	"github.com/achilleasa/lighttracer/asset/scene/reader"
	"github.com/achilleasa/lighttracer/asset/scene/writer"
)

// Compile scene to binary format.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx.String("config"))
	if err != nil {
		return err
	}
	applyFlags(ctx, &cfg)

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(sceneFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", sceneFile)
			continue
		}

		logger.Noticef("parsing and compiling scene: %s", sceneFile)
		sc, err := reader.ReadScene(sceneFile, cfg.Compiler)
		if err != nil {
			return err
		}

		// Display compiled scene info
		logger.Noticef("scene information:\n%s", sc.Stats())
		if err = sc.CheckCapacity(cfg.TextureSide); err != nil {
			logger.Warning(err)
		}

		zipFile := strings.TrimSuffix(sceneFile, ".obj") + ".zip"
		err = writer.WriteScene(sc, zipFile)
		if err != nil {
			return err
		}
	}

	return nil
}
