package scene

import (
	"fmt"

	"github.com/achilleasa/lighttracer/types"
)

// The material tag of a triangle.
type MaterialType uint8

const (
	Surface MaterialType = iota
	AreaLight
	DirectionalLight
)

// Returns true for light emitting materials.
func (m MaterialType) IsEmissive() bool {
	return m == AreaLight || m == DirectionalLight
}

func (m MaterialType) String() string {
	switch m {
	case Surface:
		return "surface"
	case AreaLight:
		return "area-light"
	case DirectionalLight:
		return "directional-light"
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// Parse a material type from its string representation.
func ParseMaterialType(name string) (MaterialType, error) {
	for _, m := range []MaterialType{Surface, AreaLight, DirectionalLight} {
		if m.String() == name {
			return m, nil
		}
	}
	return Surface, fmt.Errorf("unknown material type %q", name)
}

// A triangle primitive. Triangles are plain values; a triangle's identity is
// its position inside the triangle list that owns it.
type Triangle struct {
	Vertices [3]types.Vec3

	// Linear RGB color. For emitters this is the emitted radiance.
	Color types.Vec3

	Material MaterialType
}

// Create a new triangle.
func NewTriangle(v0, v1, v2, color types.Vec3, material MaterialType) Triangle {
	return Triangle{
		Vertices: [3]types.Vec3{v0, v1, v2},
		Color:    color,
		Material: material,
	}
}

// Get the two edge vectors (v1 - v0, v2 - v0).
func (t *Triangle) Edges() (types.Vec3, types.Vec3) {
	return t.Vertices[1].Sub(t.Vertices[0]), t.Vertices[2].Sub(t.Vertices[0])
}

// Get the unit geometric normal. Its orientation follows the vertex winding.
func (t *Triangle) Normal() types.Vec3 {
	e0, e1 := t.Edges()
	return e0.Cross(e1).Normalize()
}

// Get the length of the edge cross product (twice the geometric area). This is
// the area measure used when sampling points on emitters.
func (t *Triangle) EdgeArea() float32 {
	e0, e1 := t.Edges()
	return e0.Cross(e1).Len()
}

// Get the triangle AABB.
func (t *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(t.Vertices[0], types.MinVec3(t.Vertices[1], t.Vertices[2])),
		types.MaxVec3(t.Vertices[0], types.MaxVec3(t.Vertices[1], t.Vertices[2])),
	}
}

// Get the triangle centroid.
func (t *Triangle) Center() types.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Mul(1.0 / 3.0)
}

// Get the largest vertex coordinate along the given axis.
func (t *Triangle) MaxCoord(axis int) float32 {
	max := t.Vertices[0][axis]
	if t.Vertices[1][axis] > max {
		max = t.Vertices[1][axis]
	}
	if t.Vertices[2][axis] > max {
		max = t.Vertices[2][axis]
	}
	return max
}

// Return the subset of triangles that emit light.
func Emitters(triangles []Triangle) []Triangle {
	emitters := make([]Triangle, 0)
	for _, tri := range triangles {
		if tri.Material.IsEmissive() {
			emitters = append(emitters, tri)
		}
	}
	return emitters
}
