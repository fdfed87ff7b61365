package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	configFlag := cli.StringFlag{
		Name:  "config, c",
		Usage: "load settings from a TOML file; explicit flags override file values",
	}
	textureSideFlag := cli.IntFlag{
		Name:  "texture-side",
		Value: scene.DefaultTextureSide,
		Usage: "side of the square textures the packed scene must fit in",
	}
	leafSizeFlag := cli.IntFlag{
		Name:  "leaf-size",
		Value: 7,
		Usage: "max number of triangles in a BVH leaf",
	}

	app := cli.NewApp()
	app.Name = "lighttracer"
	app.Usage = "build BVHs for triangle scenes and sample light paths"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile text scene representation into a binary compressed format",
			Description: `
Parse a scene definition from a wavefront obj file, build a BVH tree to optimize
ray intersection tests and package scene elements for packing.

The optimized scene data is then written to a zip archive which can be supplied
as an argument to the info and sample commands.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags:     []cli.Flag{configFlag, leafSizeFlag, textureSideFlag},
			Action:    cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "display compiled scene information",
			ArgsUsage: "scene_file.zip",
			Flags:     []cli.Flag{textureSideFlag},
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:  "sample",
			Usage: "sample light vertices for a scene",
			Description: `
Trace light paths from the scene emitters and collect the light vertices where
they terminate. Each round produces a fresh batch which is optionally appended
to the output file as a little-endian float32 stream (8 floats per vertex).`,
			ArgsUsage: "scene_file.{obj,zip}",
			Flags: []cli.Flag{
				configFlag,
				leafSizeFlag,
				textureSideFlag,
				cli.IntFlag{
					Name:  "samples, s",
					Value: 20 * 1024,
					Usage: "light vertices per round",
				},
				cli.IntFlag{
					Name:  "rounds, r",
					Value: 1,
					Usage: "number of rounds; 0 samples until interrupted",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Usage: "number of parallel tracers (default: number of CPUs)",
				},
				cli.IntFlag{
					Name:  "max-depth",
					Value: 5,
					Usage: "max light path depth",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed; tracer i uses seed + i",
				},
				cli.StringFlag{
					Name:  "scheduler",
					Value: "perfect",
					Usage: "batch scheduler (naive or perfect)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "file for the packed light vertices",
				},
			},
			Action: cmd.SampleScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
