package scene

import "github.com/achilleasa/lighttracer/types"

// A light vertex is the point where a light path started on an emitter
// terminated. Light vertices are produced in batches and carry no identity
// beyond the batch that contains them.
type LightVertex struct {
	Position types.Vec3

	// Index of the triangle (in BVH order) where the path terminated.
	TriangleIndex int

	// True if the path struck the side of the triangle opposite to its
	// geometric normal.
	BackFace bool

	// Accumulated path color/weight.
	Color types.Vec3

	// Accumulated path density, stored as an inverse probability so that
	// Color * PDF is the flux carried by the vertex.
	PDF float32
}

// Get the flux carried by the vertex.
func (v *LightVertex) Flux() types.Vec3 {
	return v.Color.Mul(v.PDF)
}

// Encode the triangle index and face orientation as a single signed id:
// front-face hits use the index as-is while back-face hits are encoded as
// -(index+1) so that index 0 remains unambiguous.
func (v *LightVertex) SignedID() int {
	if v.BackFace {
		return -(v.TriangleIndex + 1)
	}
	return v.TriangleIndex
}

// Decode a signed id generated by SignedID.
func DecodeSignedID(id int) (index int, backFace bool) {
	if id < 0 {
		return -id - 1, true
	}
	return id, false
}
