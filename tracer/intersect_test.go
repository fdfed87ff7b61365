package tracer

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/asset/compiler/bvh"
	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

const tTolerance float32 = 1e-4

func TestIntersectSingleTriangle(t *testing.T) {
	tree := buildBvh(t, []scene.Triangle{
		scene.NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.XYZ(0.2, 0.4, 0.6), scene.Surface),
	})

	centroid := types.XYZ(1.0/3.0, 1.0/3.0, 0)

	// Aim at the centroid along the normal
	ray := scene.NewRay(centroid.Add(types.XYZ(0, 0, 2)), types.XYZ(0, 0, -1))
	hit := Intersect(&ray, tree)
	if !hit.Hit() {
		t.Fatal("expected ray to hit the triangle")
	}
	if math32.Abs(hit.T-2) > tTolerance {
		t.Fatalf("expected hit distance 2; got %f", hit.T)
	}
	if hit.TriangleIndex != 0 {
		t.Fatalf("expected hit triangle index 0; got %d", hit.TriangleIndex)
	}
	if hit.Normal != types.XYZ(0, 0, 1) {
		t.Fatalf("expected normal to face the ray; got %v", hit.Normal)
	}
	if hit.Color != types.XYZ(0.2, 0.4, 0.6) || hit.Material != scene.Surface {
		t.Fatalf("unexpected hit surface properties: %v, %v", hit.Color, hit.Material)
	}
	if hit.Point.Sub(centroid).Len() > tTolerance {
		t.Fatalf("expected hit point %v; got %v", centroid, hit.Point)
	}

	// Approach from the back side; the normal must flip
	ray = scene.NewRay(centroid.Add(types.XYZ(0, 0, -3)), types.XYZ(0, 0, 1))
	hit = Intersect(&ray, tree)
	if math32.Abs(hit.T-3) > tTolerance {
		t.Fatalf("expected hit distance 3; got %f", hit.T)
	}
	if hit.Normal != types.XYZ(0, 0, -1) {
		t.Fatalf("expected normal to face the ray; got %v", hit.Normal)
	}

	// Aim away from the triangle
	ray = scene.NewRay(centroid.Add(types.XYZ(0, 0, 2)), types.XYZ(0, 0, 1))
	hit = Intersect(&ray, tree)
	if hit.Hit() {
		t.Fatalf("expected ray to miss; got hit at t=%f", hit.T)
	}
	if !math32.IsInf(hit.T, 1) || hit.TriangleIndex != -1 {
		t.Fatalf("expected no-hit state; got %+v", hit)
	}
}

func TestIntersectInPlaneRay(t *testing.T) {
	tree := buildBvh(t, []scene.Triangle{
		scene.NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.Splat(1), scene.Surface),
	})

	ray := scene.NewRay(types.XYZ(-1, 0.2, 0), types.XYZ(1, 0, 0))
	if hit := Intersect(&ray, tree); hit.Hit() {
		t.Fatalf("expected in-plane ray to miss; got hit at t=%f", hit.T)
	}
}

func TestIntersectZeroDirectionComponents(t *testing.T) {
	tree := buildBvh(t, []scene.Triangle{
		scene.NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.Splat(1), scene.Surface),
	})

	type spec struct {
		origin types.Vec3
		expHit bool
		expT   float32
	}
	specs := []spec{
		{types.XYZ(0.25, 0.25, 5), true, 5},
		{types.XYZ(5, 0.25, 5), false, 0},
		{types.XYZ(0.25, -5, 5), false, 0},
	}

	for index, s := range specs {
		ray := scene.NewRay(s.origin, types.XYZ(0, 0, -1))
		hit := Intersect(&ray, tree)
		if hit.Hit() != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit.Hit())
		}
		if s.expHit && math32.Abs(hit.T-s.expT) > tTolerance {
			t.Fatalf("[spec %d] expected hit distance %f; got %f", index, s.expT, hit.T)
		}
		if math32.IsNaN(hit.T) {
			t.Fatalf("[spec %d] got NaN hit distance", index)
		}
	}
}

func TestIntersectIntoRespectsCutoff(t *testing.T) {
	tree := buildBvh(t, []scene.Triangle{
		scene.NewTriangle(types.XYZ(-1, -1, 0), types.XYZ(1, -1, 0), types.XYZ(0, 1, 0), types.Splat(1), scene.Surface),
	})
	ray := scene.NewRay(types.XYZ(0, 0, 2), types.XYZ(0, 0, -1))

	best := scene.NoHit()
	best.T = 1
	if IntersectInto(&ray, tree, &best) {
		t.Fatal("expected hit beyond the cutoff to be rejected")
	}
	if best.T != 1 || best.TriangleIndex != -1 {
		t.Fatalf("expected best intersection to remain untouched; got %+v", best)
	}

	best.T = 10
	if !IntersectInto(&ray, tree, &best) {
		t.Fatal("expected hit closer than the cutoff to be accepted")
	}
	if math32.Abs(best.T-2) > tTolerance {
		t.Fatalf("expected hit distance 2; got %f", best.T)
	}
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	triangles := randomScene(rng, 500)
	tree := buildBvh(t, triangles)

	for rayIndex := 0; rayIndex < 2000; rayIndex++ {
		ray := randomRay(rng, tree)

		hit := Intersect(&ray, tree)

		// Determinism
		again := Intersect(&ray, tree)
		if again.T != hit.T || again.TriangleIndex != hit.TriangleIndex {
			t.Fatalf("[ray %d] expected repeated intersection to return (%f, %d); got (%f, %d)", rayIndex, hit.T, hit.TriangleIndex, again.T, again.TriangleIndex)
		}

		// Compare against an exhaustive search over the permuted triangles
		exp := scene.NoHit()
		for triIndex := range tree.Triangles {
			intersectTriangle(&ray, &tree.Triangles[triIndex], triIndex, &exp)
		}
		if exp.T != hit.T || exp.TriangleIndex != hit.TriangleIndex {
			t.Fatalf("[ray %d] expected nearest hit (%f, %d); got (%f, %d)", rayIndex, exp.T, exp.TriangleIndex, hit.T, hit.TriangleIndex)
		}
	}
}

func TestTraversalStepsBoundedByNodeCount(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tree := buildBvh(t, randomScene(rng, 1000))

	for rayIndex := 0; rayIndex < 500; rayIndex++ {
		ray := randomRay(rng, tree)
		hit := scene.NoHit()
		_, steps := traverse(&ray, tree, &hit)
		if steps > len(tree.Nodes) {
			t.Fatalf("[ray %d] expected at most %d traversal steps; got %d", rayIndex, len(tree.Nodes), steps)
		}
	}

	// A ray that misses the root visits a single node
	ray := scene.NewRay(types.XYZ(1000, 1000, 1000), types.XYZ(1, 0, 0))
	hit := scene.NoHit()
	if _, steps := traverse(&ray, tree, &hit); steps != 1 {
		t.Fatalf("expected a single traversal step; got %d", steps)
	}
}

func TestIntersectBox(t *testing.T) {
	min, max := types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)
	inf := math32.Inf(1)

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		maxT   float32
		exp    bool
	}
	specs := []spec{
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), inf, true},
		// Box behind origin
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, 1), inf, false},
		// Origin inside box
		{types.XYZ(0, 0, 0), types.XYZ(0, 1, 0), inf, true},
		// Parallel to a slab and outside it
		{types.XYZ(2, 0, -5), types.XYZ(0, 0, 1), inf, false},
		// Passes beside the box
		{types.XYZ(-5, 3, 0), types.XYZ(1, 0.1, 0), inf, false},
		// Box entry beyond the best hit so far
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 2, false},
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), 4, true},
	}

	for index, s := range specs {
		ray := scene.NewRay(s.origin, s.dir)
		if got := intersectBox(&ray, min, max, s.maxT); got != s.exp {
			t.Fatalf("[spec %d] expected box test to return %t; got %t", index, s.exp, got)
		}
	}
}

func buildBvh(t *testing.T, triangles []scene.Triangle) *scene.BVH {
	t.Helper()
	tree, err := bvh.Build(triangles, bvh.DefaultMaxLeafItems)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func randomScene(rng *rand.Rand, count int) []scene.Triangle {
	randVec := func(scale float32) types.Vec3 {
		return types.XYZ(
			(rng.Float32()*2-1)*scale,
			(rng.Float32()*2-1)*scale,
			(rng.Float32()*2-1)*scale,
		)
	}

	triangles := make([]scene.Triangle, count)
	for index := range triangles {
		center := randVec(20)
		triangles[index] = scene.NewTriangle(
			center.Add(randVec(2)),
			center.Add(randVec(2)),
			center.Add(randVec(2)),
			types.Splat(0.5),
			scene.Surface,
		)
	}
	return triangles
}

// Generate a ray from a random point aimed at a random triangle's centroid.
func randomRay(rng *rand.Rand, tree *scene.BVH) scene.Ray {
	origin := types.XYZ(
		(rng.Float32()*2-1)*40,
		(rng.Float32()*2-1)*40,
		(rng.Float32()*2-1)*40,
	)
	target := tree.Triangles[rng.Intn(len(tree.Triangles))].Center()
	return scene.NewRay(origin, target.Sub(origin).Normalize())
}
