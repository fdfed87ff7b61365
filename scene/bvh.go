package scene

import "github.com/achilleasa/lighttracer/types"

// Sentinel brother index that terminates a BVH traversal.
const NoBrother = -1

// Bvh nodes are stored as a flat array in depth-first order. Traversal walks
// the array linearly: when a node's bbox is hit the walk continues with the
// next array entry; when it is missed the walk jumps to Brother, the next
// subtree to try after this one.
type BvhNode struct {
	Min types.Vec3
	Max types.Vec3

	Leaf bool

	// Half-open triangle index range [Start, End). Only meaningful for leafs.
	Start int
	End   int

	Parent  int
	Brother int
}

// Set bounding box.
func (n *BvhNode) SetBBox(bbox [2]types.Vec3) {
	n.Min = bbox[0]
	n.Max = bbox[1]
}

// Get bounding box.
func (n *BvhNode) BBox() [2]types.Vec3 {
	return [2]types.Vec3{n.Min, n.Max}
}

// Get the number of triangles in a leaf node.
func (n *BvhNode) Count() int {
	if !n.Leaf {
		return 0
	}
	return n.End - n.Start
}

// A built BVH. A BVH and its triangle list are read-only once built and can
// be shared by concurrent traversals.
type BVH struct {
	Nodes []BvhNode

	// Triangles in the permuted order referenced by the leaf ranges.
	Triangles []Triangle

	// Order[i] is the index of Triangles[i] in the list passed to the builder.
	Order []int
}

// Get the root bounding box.
func (b *BVH) Bounds() [2]types.Vec3 {
	if len(b.Nodes) == 0 {
		return [2]types.Vec3{}
	}
	return b.Nodes[0].BBox()
}
