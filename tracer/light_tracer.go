package tracer

import (
	"context"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/log"
	"github.com/achilleasa/lighttracer/scene"
)

const (
	// Default bounce limit for a light path.
	DefaultMaxDepth = 5

	// Default base of the depth-decaying roulette survival probability.
	DefaultRouletteBase float32 = 0.8

	// Default number of walks that may be attempted per requested sample.
	DefaultAttemptsPerSample = 1024

	// Check for context cancellation every this many walks.
	ctxCheckInterval = 256
)

type Options struct {
	// Bounce limit for a light path. Values below 2 are raised to 2 as a
	// path needs at least one bounce to terminate on a surface.
	MaxDepth int `toml:"max_depth"`

	// A path surviving bounce d does so with probability RouletteBase^d.
	RouletteBase float32 `toml:"roulette_base"`

	// The maximum number of walks for a single Trace call. If zero, it
	// defaults to DefaultAttemptsPerSample times the requested count.
	MaxAttempts int `toml:"max_attempts"`

	// Relative speed estimate reported to batch schedulers.
	SpeedEstimate float32 `toml:"speed_estimate"`
}

// Get the default light tracer options.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      DefaultMaxDepth,
		RouletteBase:  DefaultRouletteBase,
		SpeedEstimate: 1.0,
	}
}

// A CPU light-path sampler. Each tracer owns its random source and must only
// be driven by a single goroutine; the BVH it traces against is shared
// read-only.
type LightTracer struct {
	logger log.Logger

	id       string
	bvh      *scene.BVH
	emitters []scene.Triangle
	rng      Source
	opts     Options

	// Statistics for last batch.
	stats *Stats
}

// Create a new light tracer. Emitters with a zero area carry no flux and are
// ignored; if no emitters remain ErrInvalidEmitterSet is returned.
func NewLightTracer(id string, bvh *scene.BVH, emitters []scene.Triangle, rng Source, opts Options) (*LightTracer, error) {
	usable := make([]scene.Triangle, 0, len(emitters))
	for _, emitter := range emitters {
		if area := emitter.EdgeArea(); area > 0 && !math32.IsInf(area, 0) {
			usable = append(usable, emitter)
		}
	}
	if len(usable) == 0 {
		return nil, ErrInvalidEmitterSet
	}

	if opts.MaxDepth < 2 {
		opts.MaxDepth = 2
	}
	if !(opts.RouletteBase > 0 && opts.RouletteBase <= 1) {
		opts.RouletteBase = DefaultRouletteBase
	}
	if opts.SpeedEstimate <= 0 {
		opts.SpeedEstimate = 1.0
	}

	return &LightTracer{
		logger:   log.New(id),
		id:       id,
		bvh:      bvh,
		emitters: usable,
		rng:      rng,
		opts:     opts,
		stats:    &Stats{},
	}, nil
}

// Produce count light vertices drawn from the given emitters using the
// default options. It is a shortcut for a single-use LightTracer.
func Sample(emitters []scene.Triangle, count int, bvh *scene.BVH, rng Source) ([]scene.LightVertex, error) {
	lt, err := NewLightTracer("light tracer", bvh, emitters, rng, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return lt.Trace(context.Background(), count)
}

// Get tracer id.
func (lt *LightTracer) Id() string {
	return lt.id
}

// Get the computation speed estimate.
func (lt *LightTracer) SpeedEstimate() float32 {
	return lt.opts.SpeedEstimate
}

// Retrieve last batch statistics.
func (lt *LightTracer) Stats() *Stats {
	return lt.stats
}

// Produce a batch of count light vertices. Walks that escape the scene or
// yield a degenerate vertex are discarded and retried. If the attempt budget
// runs out the partial batch is returned together with ErrSamplingStalled;
// if ctx is cancelled the partial batch is returned with ctx.Err().
func (lt *LightTracer) Trace(ctx context.Context, count int) ([]scene.LightVertex, error) {
	if count <= 0 {
		*lt.stats = Stats{}
		return []scene.LightVertex{}, nil
	}

	maxAttempts := lt.opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultAttemptsPerSample * count
	}

	start := time.Now()
	vertices := make([]scene.LightVertex, 0, count)
	var attempts, discarded int
	var err error
	for len(vertices) < count {
		if attempts == maxAttempts {
			err = ErrSamplingStalled
			break
		}
		if attempts%ctxCheckInterval == 0 {
			if err = ctx.Err(); err != nil {
				break
			}
		}
		attempts++

		vertex, ok := lt.walk()
		if !ok || !isValidVertex(&vertex) {
			discarded++
			continue
		}
		vertices = append(vertices, vertex)
	}

	*lt.stats = Stats{
		BatchSize: len(vertices),
		Discarded: discarded,
		BatchTime: time.Since(start),
	}

	if err == ErrSamplingStalled {
		lt.logger.Warningf("sampling stalled after %d attempts; produced %d/%d light vertices", attempts, len(vertices), count)
	} else if err == nil {
		lt.logger.Debugf("produced %d light vertices in %d ms (discarded %d walks)", len(vertices), lt.stats.BatchTime.Nanoseconds()/1e6, discarded)
	}

	return vertices, err
}

// Run a single random walk starting at a random emitter. Returns false if
// the path escaped the scene.
func (lt *LightTracer) walk() (scene.LightVertex, bool) {
	emitter := &lt.emitters[lt.pickEmitter()]
	e0, e1 := emitter.Edges()
	normal := e0.Cross(e1).Normalize()

	origin := sampleTriangle(emitter.Vertices[0], e0, e1, randFloat32(lt.rng), randFloat32(lt.rng))
	dir, cosOut := sampleCosineHemisphere(normal, randFloat32(lt.rng), randFloat32(lt.rng))

	ray := scene.NewRay(origin, dir)
	ray.Color = emitter.Color
	if emitter.Material == scene.DirectionalLight {
		ray.Color = ray.Color.Mul(cosOut)
	}
	ray.PDF = math32.Pi * e0.Cross(e1).Len()

	var vertex scene.LightVertex
	for ray.Depth = 1; ray.Depth < lt.opts.MaxDepth; ray.Depth++ {
		hit := Intersect(&ray, lt.bvh)
		if !hit.Hit() {
			return vertex, false
		}

		// Lambertian absorption
		cosIn := -ray.Dir.Dot(hit.Normal)
		ray.Color = ray.Color.MulVec(hit.Color).Mul(cosIn)

		// Keep the vertex for the current hit before the ray is redirected
		vertex = lt.lightVertex(&ray, &hit)

		dir, cosOut = sampleCosineHemisphere(hit.Normal, randFloat32(lt.rng), randFloat32(lt.rng))
		ray.Origin = hit.Point
		ray.Dir = dir
		ray.Color = ray.Color.Mul(cosOut)
		ray.PDF *= math32.Pi

		vertex.Color = ray.Color
		vertex.PDF = ray.PDF * float32(len(lt.emitters))

		survival := math32.Pow(lt.opts.RouletteBase, float32(ray.Depth))
		if randFloat32(lt.rng) > survival {
			return vertex, true
		}
		ray.PDF /= survival
	}

	// Max depth reached; report the last hit with the density accumulated
	// by the survived bounce.
	vertex.PDF = ray.PDF * float32(len(lt.emitters))
	return vertex, true
}

// Build a light vertex for a hit. The face orientation is taken from the
// hit triangle's winding as the intersection normal always faces the ray.
func (lt *LightTracer) lightVertex(ray *scene.Ray, hit *scene.Intersection) scene.LightVertex {
	tri := &lt.bvh.Triangles[hit.TriangleIndex]
	e0, e1 := tri.Edges()
	return scene.LightVertex{
		Position:      hit.Point,
		TriangleIndex: hit.TriangleIndex,
		BackFace:      e0.Cross(e1).Dot(ray.Dir) > 0,
	}
}

// Choose an emitter index with uniform probability.
func (lt *LightTracer) pickEmitter() int {
	index := int(lt.rng.Float64() * float64(len(lt.emitters)))
	if index >= len(lt.emitters) {
		index = len(lt.emitters) - 1
	}
	return index
}

func isValidVertex(v *scene.LightVertex) bool {
	if !(v.PDF > 0) || math32.IsInf(v.PDF, 1) {
		return false
	}
	return v.Position.IsFinite() && v.Color.IsFinite()
}
