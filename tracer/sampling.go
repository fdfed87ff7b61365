package tracer

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/types"
)

// A source of uniformly distributed random numbers in [0, 1). *rand.Rand
// satisfies this interface.
type Source interface {
	Float64() float64
}

// Create a deterministic random source from a seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

func randFloat32(rng Source) float32 {
	return float32(rng.Float64())
}

// Generate a cosine-weighted direction in the hemisphere around normal from
// two uniform samples. Returns the direction and the cosine of the angle
// between the direction and the normal.
func sampleCosineHemisphere(normal types.Vec3, r1, r2 float32) (types.Vec3, float32) {
	sinPhi, cosPhi := math32.Sincos(2 * math32.Pi * r1)
	cosTheta := math32.Sqrt(r2)
	sinTheta := math32.Sqrt(1 - r2)

	// Build an orthonormal basis around the normal
	var uAxis types.Vec3
	if math32.Abs(normal[0]) > 0.1 {
		uAxis = normal.Cross(types.XYZ(0, 1, 0)).Normalize()
	} else {
		uAxis = normal.Cross(types.XYZ(1, 0, 0)).Normalize()
	}
	vAxis := normal.Cross(uAxis).Normalize()

	dir := uAxis.Mul(cosPhi * sinTheta).
		Add(vAxis.Mul(sinPhi * sinTheta)).
		Add(normal.Mul(cosTheta))

	return dir, cosTheta
}

// Pick a uniformly distributed point inside a triangle given its first
// vertex and edge vectors.
func sampleTriangle(v0, e0, e1 types.Vec3, u, v float32) types.Vec3 {
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	return v0.Add(e0.Mul(u)).Add(e1.Mul(v))
}
