package renderer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	assetscene "github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/log"
	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/tracer"
)

// A renderer that splits each round across a pool of tracers running in
// parallel.
type defaultRenderer struct {
	logger log.Logger

	scheduler tracer.BatchScheduler
	tracers   []tracer.Tracer
	options   Options

	// Serializes rounds; a tracer may only be driven by one goroutine.
	renderMutex sync.Mutex

	round            int
	batchAssignments []int

	statsMutex sync.Mutex
	stats      RoundStats
}

// Create a renderer that samples the given scene using a pool of CPU light
// tracers. Each tracer owns a random source seeded with opts.Seed plus its
// index so that rounds are reproducible.
func NewDefault(sc *assetscene.Scene, scheduler tracer.BatchScheduler, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	bvh := sc.BVH()
	emitters := sc.Emitters()
	tracers := make([]tracer.Tracer, opts.Workers)
	for idx := range tracers {
		tr, err := tracer.NewLightTracer(
			fmt.Sprintf("light tracer %d", idx),
			bvh,
			emitters,
			tracer.NewSource(opts.Seed+int64(idx)),
			opts.Tracer,
		)
		if err != nil {
			return nil, err
		}
		tracers[idx] = tr
	}

	return New(tracers, scheduler, opts)
}

// Create a renderer for an existing set of tracers. If scheduler is nil, the
// naive scheduler is used.
func New(tracers []tracer.Tracer, scheduler tracer.BatchScheduler, opts Options) (Renderer, error) {
	if len(tracers) == 0 {
		return nil, ErrNoTracers
	}
	if scheduler == nil {
		scheduler = tracer.NaiveScheduler()
	}
	if opts.SamplesPerRound <= 0 {
		opts.SamplesPerRound = DefaultSamplesPerRound
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scheduler: scheduler,
		tracers:   tracers,
		options:   opts,
	}
	r.logger.Infof("attached %d tracers", len(tracers))
	return r, nil
}

// Produce the next batch. If a tracer exhausts its attempt budget, the
// partial batch is returned together with an error wrapping
// tracer.ErrSamplingStalled. If ctx is cancelled ErrInterrupted is returned.
func (r *defaultRenderer) Render(ctx context.Context) (*Batch, error) {
	r.renderMutex.Lock()
	defer r.renderMutex.Unlock()

	start := time.Now()
	r.round++
	r.batchAssignments = r.scheduler.Schedule(r.tracers, r.options.SamplesPerRound)

	// Tracers do not share state so a failing tracer does not need to
	// cancel its siblings.
	results := make([][]scene.LightVertex, len(r.tracers))
	var g errgroup.Group
	for idx, tr := range r.tracers {
		idx, tr := idx, tr
		count := r.batchAssignments[idx]
		g.Go(func() error {
			vertices, err := tr.Trace(ctx, count)
			results[idx] = vertices
			if err != nil {
				return fmt.Errorf("%s: %w", tr.Id(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	if ctx.Err() != nil {
		r.logger.Warningf("round %d interrupted", r.round)
		return nil, ErrInterrupted
	}
	if err != nil && !errors.Is(err, tracer.ErrSamplingStalled) {
		return nil, err
	}

	batch := &Batch{
		Round:    r.round,
		Vertices: make([]scene.LightVertex, 0, r.options.SamplesPerRound),
	}
	for _, vertices := range results {
		batch.Vertices = append(batch.Vertices, vertices...)
	}

	r.updateStats(len(batch.Vertices), time.Since(start))
	r.logger.Debugf("round %d: produced %d light vertices in %d ms", r.round, len(batch.Vertices), time.Since(start).Nanoseconds()/1e6)

	if err != nil {
		return batch, fmt.Errorf("renderer: round %d: %w", r.round, err)
	}
	return batch, nil
}

// Produce batches in the background.
func (r *defaultRenderer) Rounds(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		for round := 0; r.options.Rounds <= 0 || round < r.options.Rounds; round++ {
			batch, err := r.Render(ctx)
			select {
			case out <- Result{Batch: batch, Err: err}:
			case <-ctx.Done():
				return
			}

			if err != nil {
				return
			}
		}
	}()
	return out
}

// Get statistics for the last round.
func (r *defaultRenderer) Stats() RoundStats {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	stats := r.stats
	stats.Tracers = append([]TracerStat(nil), r.stats.Tracers...)
	return stats
}

func (r *defaultRenderer) updateStats(batchSize int, renderTime time.Duration) {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	r.stats.Round = r.round
	r.stats.BatchSize = batchSize
	r.stats.RenderTime = renderTime
	r.stats.Tracers = make([]TracerStat, len(r.tracers))
	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers[idx] = TracerStat{
			Id:           tr.Id(),
			BatchSize:    trStats.BatchSize,
			RoundPercent: 100.0 * float32(r.batchAssignments[idx]) / float32(r.options.SamplesPerRound),
			Discarded:    trStats.Discarded,
			RenderTime:   trStats.BatchTime,
		}
	}
}
