package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	core "github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

func testScene() *Scene {
	return &Scene{
		Triangles: []core.Triangle{
			core.NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0.5, 0.25, 1), core.Surface),
			core.NewTriangle(types.XYZ(0, 0, 1), types.XYZ(1, 0, 1), types.XYZ(0, 1, 1), types.XYZ(8, 4, 2), core.AreaLight),
		},
		Order: []int{1, 0},
		BvhNodes: []core.BvhNode{
			{Min: types.XYZ(0, 0, 0), Max: types.XYZ(1, 1, 1), Parent: -1, Brother: -1},
			{Min: types.XYZ(0, 0, 0), Max: types.XYZ(1, 1, 0), Leaf: true, Start: 0, End: 1, Parent: 0, Brother: 2},
			{Min: types.XYZ(0, 0, 1), Max: types.XYZ(1, 1, 1), Leaf: true, Start: 1, End: 2, Parent: 0, Brother: -1},
		},
		EmitterIndices: []int{1},
		EmissionScale:  8,
	}
}

func TestPackTriangles(t *testing.T) {
	buf := testScene().PackTriangles()
	require.Len(t, buf, 2*TriangleStride)

	expSurface := []float32{
		0, 0, 0, 0,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0.5, 0.25, 1, float32(core.Surface),
	}
	expEmitter := []float32{
		0, 0, 1, 0,
		1, 0, 1, 0,
		0, 1, 1, 0,
		1, 0.5, 0.25, float32(core.AreaLight),
	}
	require.Equal(t, expSurface, buf[:TriangleStride])
	require.Equal(t, expEmitter, buf[TriangleStride:])
}

func TestPackBvh(t *testing.T) {
	bounds, info := testScene().PackBvh()

	require.Equal(t, []float32{
		0, 0, 0, 1, 1, 1,
		0, 0, 0, 1, 1, 0,
		0, 0, 1, 1, 1, 1,
	}, bounds)
	require.Equal(t, []int32{
		-1, -1, -1,
		0, 1, 2,
		1, 2, -1,
	}, info)
}

func TestPackLightVertices(t *testing.T) {
	vertices := []core.LightVertex{
		{Position: types.XYZ(1, 2, 3), TriangleIndex: 0, Color: types.XYZ(0.1, 0.2, 0.3), PDF: 4},
		{Position: types.XYZ(4, 5, 6), TriangleIndex: 0, BackFace: true, Color: types.XYZ(1, 1, 1), PDF: 2},
		{Position: types.XYZ(7, 8, 9), TriangleIndex: 12, BackFace: true, Color: types.XYZ(2, 2, 2), PDF: 1},
	}

	buf := PackLightVertices(vertices)
	require.Len(t, buf, 3*LightVertexStride)
	require.Equal(t, []float32{1, 2, 3, 0, 0.1, 0.2, 0.3, 4}, buf[:LightVertexStride])

	// Back face hits use a negative id; index 0 stays distinguishable
	require.Equal(t, float32(-1), buf[LightVertexStride+3])
	require.Equal(t, float32(-13), buf[2*LightVertexStride+3])

	unpacked, err := UnpackLightVertices(buf)
	require.NoError(t, err)
	require.Equal(t, vertices, unpacked)

	_, err = UnpackLightVertices(buf[:LightVertexStride+1])
	require.Error(t, err)
}

func TestCheckCapacity(t *testing.T) {
	sc := testScene()
	require.NoError(t, sc.CheckCapacity(DefaultTextureSide))

	// A 2x2 texture holds a single triangle
	err := sc.CheckCapacity(2)
	require.True(t, errors.Is(err, ErrSceneTooLarge))
	require.EqualError(t, err, "scene: packed scene exceeds texture capacity: 2 triangles; max 1 for texture side 2")

	// A 3x3 texture holds 2 triangles and 4 nodes
	sc.BvhNodes = append(sc.BvhNodes, sc.BvhNodes...)
	err = sc.CheckCapacity(3)
	require.ErrorIs(t, err, ErrSceneTooLarge)
	require.EqualError(t, err, "scene: packed scene exceeds texture capacity: 6 BVH nodes; max 4 for texture side 3")
}

func TestSceneAccessors(t *testing.T) {
	sc := testScene()

	tree := sc.BVH()
	require.Equal(t, sc.BvhNodes, tree.Nodes)
	require.Equal(t, sc.Triangles, tree.Triangles)
	require.Equal(t, sc.Order, tree.Order)

	emitters := sc.Emitters()
	require.Len(t, emitters, 1)
	require.Equal(t, core.AreaLight, emitters[0].Material)
}

func TestSceneStats(t *testing.T) {
	stats := testScene().Stats()
	for _, exp := range []string{"Asset Type", "Triangles", "Nodes", "Leafs", "Emitters", "Emission scale", "8.000", "Total"} {
		require.Contains(t, stats, exp)
	}
}

func TestFmtSize(t *testing.T) {
	specs := []struct {
		items []interface{}
		exp   string
	}{
		{[]interface{}{[]int32{}}, "  0 bytes"},
		{[]interface{}{make([]int32, 10)}, " 40 bytes"},
		{[]interface{}{make([]int32, 500), make([]byte, 500)}, "2.5 kb"},
		{[]interface{}{make([]float32, 1e6)}, "  4.0 mb"},
	}

	for specIndex, spec := range specs {
		require.Equal(t, spec.exp, fmtSize(spec.items...), "spec %d", specIndex)
	}
}
