package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli"

	"github.com/achilleasa/lighttracer/asset/compiler"
	assetscene "github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/log"
	"github.com/achilleasa/lighttracer/renderer"
	"github.com/achilleasa/lighttracer/tracer"
)

// Settings that can be loaded from a TOML file. Command line flags override
// any value loaded from the file.
type config struct {
	// Optional log level (debug, info, notice, warning, error).
	LogLevel string `toml:"log_level"`

	// Batch scheduler: "naive" or "perfect".
	Scheduler string `toml:"scheduler"`

	// Side of the square textures the packed scene is uploaded to.
	TextureSide int `toml:"texture_side"`

	Compiler compiler.Options `toml:"compiler"`
	Renderer renderer.Options `toml:"renderer"`
}

func defaultConfig() config {
	return config{
		Scheduler:   "perfect",
		TextureSide: assetscene.DefaultTextureSide,
		Compiler:    compiler.DefaultOptions(),
		Renderer:    renderer.DefaultOptions(),
	}
}

// Load config from a TOML file. An empty filename yields the defaults.
func loadConfig(filename string) (config, error) {
	cfg := defaultConfig()
	if filename == "" {
		return cfg, nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: could not parse %s: %w", filename, err)
	}

	if cfg.LogLevel != "" {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		log.SetLevel(level)
	}

	return cfg, nil
}

// Override config values with any explicitly set command flags.
func applyFlags(ctx *cli.Context, cfg *config) {
	if ctx.IsSet("samples") {
		cfg.Renderer.SamplesPerRound = ctx.Int("samples")
	}
	if ctx.IsSet("rounds") {
		cfg.Renderer.Rounds = ctx.Int("rounds")
	}
	if ctx.IsSet("workers") {
		cfg.Renderer.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("seed") {
		cfg.Renderer.Seed = ctx.Int64("seed")
	}
	if ctx.IsSet("max-depth") {
		cfg.Renderer.Tracer.MaxDepth = ctx.Int("max-depth")
	}
	if ctx.IsSet("leaf-size") {
		cfg.Compiler.MaxLeafItems = ctx.Int("leaf-size")
	}
	if ctx.IsSet("scheduler") {
		cfg.Scheduler = ctx.String("scheduler")
	}
	if ctx.IsSet("texture-side") {
		cfg.TextureSide = ctx.Int("texture-side")
	}
}

// Create the batch scheduler selected by the config.
func (cfg *config) scheduler() (tracer.BatchScheduler, error) {
	switch cfg.Scheduler {
	case "naive":
		return tracer.NaiveScheduler(), nil
	case "perfect", "":
		return tracer.PerfectScheduler(), nil
	}
	return nil, fmt.Errorf("config: unknown scheduler %q; expected naive or perfect", cfg.Scheduler)
}
