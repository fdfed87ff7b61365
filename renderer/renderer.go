package renderer

import (
	"context"

	assetscene "github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/scene"
)

// A batch of light vertices produced by a single round. Batches are
// disposable: each round produces a fresh one.
type Batch struct {
	// The round number, starting at 1.
	Round int

	Vertices []scene.LightVertex
}

// Pack batch vertices into a flat float buffer.
func (b *Batch) Pack() []float32 {
	return assetscene.PackLightVertices(b.Vertices)
}

// The result of a background round.
type Result struct {
	Batch *Batch
	Err   error
}

type Renderer interface {
	// Produce the next batch of light vertices.
	Render(ctx context.Context) (*Batch, error)

	// Produce batches in the background. The next round is sampled while
	// the caller consumes the current one. The returned channel is closed
	// after the configured number of rounds, after the first error or when
	// ctx is cancelled.
	Rounds(ctx context.Context) <-chan Result

	// Get statistics for the last round.
	Stats() RoundStats
}
