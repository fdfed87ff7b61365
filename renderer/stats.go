package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// The assigned batch size and the percentage of the round it represents.
	BatchSize    int
	RoundPercent float32

	// Number of walks discarded while producing the batch.
	Discarded int

	// Sampling time for assigned batch.
	RenderTime time.Duration
}

type RoundStats struct {
	// The round number, starting at 1.
	Round int

	// Individual tracer stats.
	Tracers []TracerStat

	// Number of light vertices produced in the round.
	BatchSize int

	// Total sampling time for entire round.
	RenderTime time.Duration
}
