package cmd

import (
	"errors"
	"strings"

	"github.com/urfave/cli"

	"github.com/achilleasa/lighttracer/asset/compiler"
	"github.com/achilleasa/lighttracer/asset/scene/reader"
)

// Display compiled scene info.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing compiled scene zip file")
	}

	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".zip") {
		return errors.New("only compiled scene files with a .zip extension are supported")
	}

	sc, err := reader.ReadScene(sceneFile, compiler.DefaultOptions())
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	return sc.CheckCapacity(ctx.Int("texture-side"))
}
