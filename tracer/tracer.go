package tracer

import (
	"context"
	"time"

	"github.com/achilleasa/lighttracer/scene"
)

// Tracer statistics for the last produced batch.
type Stats struct {
	// The number of light vertices in the batch.
	BatchSize int

	// The number of random walks that were discarded (escaped paths or
	// paths with a degenerate density).
	Discarded int

	// The time for producing this batch.
	BatchTime time.Duration
}

// Get the number of walks attempted for the batch.
func (s *Stats) Attempts() int {
	return s.BatchSize + s.Discarded
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Get the tracer's computation speed estimate compared to a
	// baseline implementation.
	SpeedEstimate() float32

	// Produce a batch of count light vertices. A tracer is driven by a
	// single goroutine; independent tracers may run in parallel against
	// the same BVH.
	Trace(ctx context.Context, count int) ([]scene.LightVertex, error)

	// Retrieve last batch statistics.
	Stats() *Stats
}
