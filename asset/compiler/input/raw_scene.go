package input

import (
	"math"

	"github.com/achilleasa/lighttracer/asset"
	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

type Material struct {
	Name string

	// Surface reflectance or, for emissive materials, the emitted radiance.
	Color types.Vec3

	// Material tag assigned to all primitives using this material.
	Type scene.MaterialType

	// The material library this material was defined in.
	AssetRelPath *asset.Resource

	// True if material is referenced by scene geometry.
	Used bool
}

// A triangle primitive
type Primitive struct {
	Vertices      [3]types.Vec3
	MaterialIndex int
}

// Get the primitive AABB.
func (prim *Primitive) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(prim.Vertices[0], types.MinVec3(prim.Vertices[1], prim.Vertices[2])),
		types.MaxVec3(prim.Vertices[0], types.MaxVec3(prim.Vertices[1], prim.Vertices[2])),
	}
}

// A mesh is constructed by a list of primitive.
type Mesh struct {
	Name       string
	Primitives []*Primitive

	bbox            [2]types.Vec3
	bboxNeedsUpdate bool
}

// Create a new mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:            name,
		Primitives:      make([]*Primitive, 0),
		bboxNeedsUpdate: true,
	}
}

// Mark the bbox of this mesh as dirty.
func (m *Mesh) MarkBBoxDirty() {
	m.bboxNeedsUpdate = true
}

// Get mesh bounding box.
func (m *Mesh) BBox() [2]types.Vec3 {
	if m.bboxNeedsUpdate {
		m.bbox = [2]types.Vec3{
			types.Splat(math.MaxFloat32),
			types.Splat(-math.MaxFloat32),
		}

		for _, prim := range m.Primitives {
			primBBox := prim.BBox()
			m.bbox[0] = types.MinVec3(m.bbox[0], primBBox[0])
			m.bbox[1] = types.MaxVec3(m.bbox[1], primBBox[1])
		}

		m.bboxNeedsUpdate = false
	}

	return m.bbox
}

// A mesh instance places a copy of a Mesh inside the scene by applying a
// scale, a rotation and a translation (in that order) to its vertices.
type MeshInstance struct {
	MeshIndex uint32

	Translation types.Vec3
	Rotation    types.Quat
	Scale       types.Vec3
}

// Create a mesh instance with an identity transformation.
func NewMeshInstance(meshIndex uint32) *MeshInstance {
	return &MeshInstance{
		MeshIndex: meshIndex,
		Rotation:  types.QuatIdent(),
		Scale:     types.Splat(1),
	}
}

// Transform a point from mesh space to world space.
func (mi *MeshInstance) Transform(v types.Vec3) types.Vec3 {
	return mi.Rotation.Rotate(v.MulVec(mi.Scale)).Add(mi.Translation)
}

// The scene contains all elements that are processed and optimized by the scene compiler.
type Scene struct {
	Meshes        []*Mesh
	MeshInstances []*MeshInstance
	Materials     []*Material
}

// Create a new scene.
func NewScene() *Scene {
	return &Scene{
		Meshes:        make([]*Mesh, 0),
		MeshInstances: make([]*MeshInstance, 0),
		Materials:     make([]*Material, 0),
	}
}
