package renderer

import (
	"runtime"

	"github.com/achilleasa/lighttracer/tracer"
)

// Default number of light vertices produced per round.
const DefaultSamplesPerRound = 20 * 1024

type Options struct {
	// Number of light vertices produced per round.
	SamplesPerRound int `toml:"samples_per_round"`

	// Number of rounds produced by Rounds. A zero value keeps producing
	// rounds until the context is cancelled.
	Rounds int `toml:"rounds"`

	// Number of independent tracers. Defaults to the number of CPUs.
	Workers int `toml:"workers"`

	// Seed for the first tracer's random source. Tracer i is seeded with
	// Seed + i.
	Seed int64 `toml:"seed"`

	// Light tracer options.
	Tracer tracer.Options `toml:"tracer"`
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		SamplesPerRound: DefaultSamplesPerRound,
		Rounds:          1,
		Workers:         runtime.NumCPU(),
		Seed:            1,
		Tracer:          tracer.DefaultOptions(),
	}
}
