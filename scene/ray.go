package scene

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/types"
)

// A ray carrying the state of a light path.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3

	// Accumulated path color/weight.
	Color types.Vec3

	// Bounce counter.
	Depth int

	// Accumulated path density.
	PDF float32
}

// Create a ray with a unit density.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		PDF:    1,
	}
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// A ray/triangle intersection. A missed ray is reported with T = +Inf.
type Intersection struct {
	Point types.Vec3

	// Surface normal, oriented to face the incoming ray.
	Normal types.Vec3

	T float32

	Color    types.Vec3
	Material MaterialType

	// Index of the hit triangle in the (permuted) BVH triangle list.
	TriangleIndex int
}

// Create an intersection in the no-hit state.
func NoHit() Intersection {
	return Intersection{
		Point:         types.Splat(math32.Inf(1)),
		T:             math32.Inf(1),
		TriangleIndex: -1,
	}
}

// Returns true if the intersection records a hit.
func (i *Intersection) Hit() bool {
	return !math32.IsInf(i.T, 1)
}
