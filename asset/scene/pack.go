package scene

import (
	"errors"
	"fmt"

	core "github.com/achilleasa/lighttracer/scene"
)

// Consumers upload packed buffers into square textures with this side length.
const DefaultTextureSide = 512

// Number of buffer elements used per packed item.
const (
	TriangleStride    = 16
	BvhBoundsStride   = 6
	BvhInfoStride     = 3
	LightVertexStride = 8
)

var (
	ErrSceneTooLarge = errors.New("scene: packed scene exceeds texture capacity")
)

// Check that the packed scene fits in square textures of the given side. A
// texture of side S holds S*S RGBA texels; a triangle occupies 4 texels and a
// BVH node 2.
func (sc *Scene) CheckCapacity(side int) error {
	texels := side * side
	if maxTriangles := texels / 4; len(sc.Triangles) > maxTriangles {
		return fmt.Errorf("%w: %d triangles; max %d for texture side %d", ErrSceneTooLarge, len(sc.Triangles), maxTriangles, side)
	}
	if maxNodes := texels / 2; len(sc.BvhNodes) > maxNodes {
		return fmt.Errorf("%w: %d BVH nodes; max %d for texture side %d", ErrSceneTooLarge, len(sc.BvhNodes), maxNodes, side)
	}
	return nil
}

// Pack triangles into a flat float buffer. Each triangle uses 16 floats:
//
//	v0.xyz 0 | v1.xyz 0 | v2.xyz 0 | color.rgb material
//
// Emitter colors are divided by the scene emission scale.
func (sc *Scene) PackTriangles() []float32 {
	out := make([]float32, TriangleStride*len(sc.Triangles))
	for index, tri := range sc.Triangles {
		offset := index * TriangleStride
		for v := 0; v < 3; v++ {
			copy(out[offset+4*v:offset+4*v+3], tri.Vertices[v][:])
		}

		color := tri.Color
		if tri.Material.IsEmissive() && sc.EmissionScale > 0 {
			color = color.Mul(1 / sc.EmissionScale)
		}
		copy(out[offset+12:offset+15], color[:])
		out[offset+15] = float32(tri.Material)
	}
	return out
}

// Pack BVH nodes into a bounds buffer (min.xyz max.xyz per node) and an info
// buffer (start end brother per node). Internal nodes report a -1 start/end.
func (sc *Scene) PackBvh() ([]float32, []int32) {
	bounds := make([]float32, BvhBoundsStride*len(sc.BvhNodes))
	info := make([]int32, BvhInfoStride*len(sc.BvhNodes))
	for index, node := range sc.BvhNodes {
		copy(bounds[index*BvhBoundsStride:], node.Min[:])
		copy(bounds[index*BvhBoundsStride+3:], node.Max[:])

		start, end := int32(-1), int32(-1)
		if node.Leaf {
			start, end = int32(node.Start), int32(node.End)
		}
		info[index*BvhInfoStride+0] = start
		info[index*BvhInfoStride+1] = end
		info[index*BvhInfoStride+2] = int32(node.Brother)
	}
	return bounds, info
}

// Pack light vertices into a flat float buffer. Each vertex uses 8 floats:
//
//	pos.xyz id | color.rgb pdf
//
// where id is the signed triangle id that also encodes the face orientation.
// The id is negative for every back face hit, regardless of the bounce at
// which the path terminated.
func PackLightVertices(vertices []core.LightVertex) []float32 {
	out := make([]float32, LightVertexStride*len(vertices))
	for index, v := range vertices {
		offset := index * LightVertexStride
		copy(out[offset:offset+3], v.Position[:])
		out[offset+3] = float32(v.SignedID())
		copy(out[offset+4:offset+7], v.Color[:])
		out[offset+7] = v.PDF
	}
	return out
}

// Unpack a buffer generated by PackLightVertices.
func UnpackLightVertices(buf []float32) ([]core.LightVertex, error) {
	if len(buf)%LightVertexStride != 0 {
		return nil, fmt.Errorf("scene: light vertex buffer length %d is not a multiple of %d", len(buf), LightVertexStride)
	}

	vertices := make([]core.LightVertex, len(buf)/LightVertexStride)
	for index := range vertices {
		offset := index * LightVertexStride
		v := &vertices[index]
		copy(v.Position[:], buf[offset:offset+3])
		v.TriangleIndex, v.BackFace = core.DecodeSignedID(int(buf[offset+3]))
		copy(v.Color[:], buf[offset+4:offset+7])
		v.PDF = buf[offset+7]
	}
	return vertices, nil
}
