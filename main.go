package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/polaris-accel/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "polaris-accel"
	app.Usage = "build and query ray tracing acceleration structures"
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
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile JSON scene descriptions into a binary compressed format",
			Description: `
Parse a scene description from a JSON file, build a BVH tree and/or a
hierarchical grid to optimize ray intersection tests and package the
acceleration structures in a GPU-friendly format.

The compiled scene data is then written to a zip archive which can be supplied
as an argument to the info, trace and bench commands.`,
			ArgsUsage: "scene_file1.json scene_file2.json ...",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file when compiling a single scene",
				},
			}, cmd.CompilerFlags...),
			Action: cmd.CompileScene,
		},
		{
			Name:      "info",
			Usage:     "print scene statistics",
			ArgsUsage: "scene_file.{json,zip}",
			Flags:     cmd.CompilerFlags,
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:      "trace",
			Usage:     "trace a single ray with every available acceleration structure",
			ArgsUsage: "scene_file.{json,zip}",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,0",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
			}, cmd.CompilerFlags...),
			Action: cmd.TraceRay,
		},
		{
			Name:      "bench",
			Usage:     "benchmark acceleration structures with random rays",
			ArgsUsage: "scene_file.{json,zip}",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 100000,
					Usage: "number of random rays",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of tracing goroutines",
				},
				cli.IntFlag{
					Name:  "rounds",
					Value: 3,
					Usage: "number of times to trace the ray batch",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for ray generation",
				},
				cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "serve prometheus metrics on this address while benchmarking",
				},
			}, cmd.CompilerFlags...),
			Action: cmd.BenchScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
