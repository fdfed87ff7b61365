package tracer

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

// Determinants and hit distances below this value are rejected.
const intersectEpsilon float32 = 1e-4

// Find the nearest triangle hit by the ray. If nothing is hit the returned
// intersection has T set to +Inf.
func Intersect(ray *scene.Ray, bvh *scene.BVH) scene.Intersection {
	hit := scene.NoHit()
	IntersectInto(ray, bvh, &hit)
	return hit
}

// Intersect the ray with the BVH using hit as the best intersection found so
// far. Only hits closer than hit.T are accepted; on success hit is updated in
// place and the function returns true.
func IntersectInto(ray *scene.Ray, bvh *scene.BVH, hit *scene.Intersection) bool {
	found, _ := traverse(ray, bvh, hit)
	return found
}

// Walk the flattened BVH. A box hit continues with the next node in the
// array; a box miss skips the node's subtree by jumping to its brother. As
// brothers always point forward every node is visited at most once.
//
// Returns whether a closer hit was recorded and the number of visited nodes.
func traverse(ray *scene.Ray, bvh *scene.BVH, hit *scene.Intersection) (bool, int) {
	var found bool
	var steps int

	for nodeIndex := 0; nodeIndex != scene.NoBrother && nodeIndex < len(bvh.Nodes); {
		node := &bvh.Nodes[nodeIndex]
		steps++

		if !intersectBox(ray, node.Min, node.Max, hit.T) {
			nodeIndex = node.Brother
			continue
		}

		if node.Leaf {
			for triIndex := node.Start; triIndex < node.End; triIndex++ {
				if intersectTriangle(ray, &bvh.Triangles[triIndex], triIndex, hit) {
					found = true
				}
			}
		}
		nodeIndex++
	}

	return found, steps
}

// Slab test. Boxes whose entry distance lies beyond maxT can not contain a
// closer hit and are reported as a miss.
func intersectBox(ray *scene.Ray, min, max types.Vec3, maxT float32) bool {
	tNear := math32.Inf(-1)
	tFar := math32.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin, dir := ray.Origin[axis], ray.Dir[axis]

		// A ray parallel to the slab either stays inside it for its
		// whole length or never enters it.
		if dir == 0 {
			if origin < min[axis] || origin > max[axis] {
				return false
			}
			continue
		}

		invDir := 1 / dir
		t0 := (min[axis] - origin) * invDir
		t1 := (max[axis] - origin) * invDir
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
	}

	if tFar <= 0 || tFar < tNear {
		return false
	}

	return tNear <= maxT
}

// Moller-Trumbore ray/triangle test. Updates hit if the triangle is hit
// closer than hit.T.
func intersectTriangle(ray *scene.Ray, tri *scene.Triangle, triIndex int, hit *scene.Intersection) bool {
	e0, e1 := tri.Edges()

	pVec := ray.Dir.Cross(e1)
	det := e0.Dot(pVec)
	if math32.Abs(det) < intersectEpsilon {
		return false
	}
	invDet := 1 / det

	tVec := ray.Origin.Sub(tri.Vertices[0])
	u := tVec.Dot(pVec) * invDet
	if u < 0 || u > 1 {
		return false
	}

	qVec := tVec.Cross(e0)
	v := ray.Dir.Dot(qVec) * invDet
	if v < 0 || u+v > 1 {
		return false
	}

	t := e1.Dot(qVec) * invDet
	if t <= intersectEpsilon || t >= hit.T {
		return false
	}

	normal := e0.Cross(e1).Normalize()
	if normal.Dot(ray.Dir) > 0 {
		normal = normal.Neg()
	}

	*hit = scene.Intersection{
		Point:         ray.At(t),
		Normal:        normal,
		T:             t,
		Color:         tri.Color,
		Material:      tri.Material,
		TriangleIndex: triIndex,
	}
	return true
}
