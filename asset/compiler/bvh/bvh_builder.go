package bvh

import (
	"errors"
	"sort"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/lighttracer/log"
	"github.com/achilleasa/lighttracer/scene"
	"github.com/achilleasa/lighttracer/types"
)

// Ranges with this many triangles or fewer become leafs.
const DefaultMaxLeafItems = 7

var (
	ErrEmptyScene = errors.New("bvh: empty scene")
)

type stats struct {
	nodes    int
	leafs    int
	maxDepth int
}

// A pending triangle range together with its bbox and the index of the node
// that will become its parent.
type workItem struct {
	start, end int
	bbox       [2]types.Vec3
	parent     int
	depth      int
}

type builder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous list in the order they are finalized.
	nodes []scene.BvhNode

	// Triangles being partitioned and their original indices. Both slices
	// are permuted together.
	triangles []scene.Triangle
	order     []int

	// Ranges with this many items or fewer become leafs.
	maxLeafItems int

	// Stats
	stats stats
}

// Construct a BVH from a list of triangles.
//
// The builder partitions triangle ranges using an explicit work stack. A range
// becomes a leaf when it contains maxLeafItems triangles or fewer; otherwise it
// is split into two child ranges. The input slice is not modified; the returned
// BVH holds a permuted copy of the triangles together with the permutation.
func Build(triangles []scene.Triangle, maxLeafItems int) (*scene.BVH, error) {
	if len(triangles) == 0 {
		return nil, ErrEmptyScene
	}
	if maxLeafItems < 1 {
		maxLeafItems = DefaultMaxLeafItems
	}

	b := &builder{
		logger:       log.New("bvh builder"),
		nodes:        make([]scene.BvhNode, 0, 2*len(triangles)/maxLeafItems+1),
		triangles:    make([]scene.Triangle, len(triangles)),
		order:        make([]int, len(triangles)),
		maxLeafItems: maxLeafItems,
	}
	copy(b.triangles, triangles)
	for index := range b.order {
		b.order[index] = index
	}

	start := time.Now()
	b.partition()
	b.linkBrothers()
	b.logger.Debugf(
		"BVH tree build time: %d ms, triangles: %d, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		len(b.triangles), b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	return &scene.BVH{
		Nodes:     b.nodes,
		Triangles: b.triangles,
		Order:     b.order,
	}, nil
}

// Process the work stack until all triangle ranges have been assigned to leafs.
// Nodes are appended when popped; the second child is pushed before the first
// one so that the first child's subtree is flattened right after its parent.
func (b *builder) partition() {
	stack := []workItem{b.newWorkItem(0, len(b.triangles), -1, 0)}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > b.stats.maxDepth {
			b.stats.maxDepth = item.depth
		}

		// A node whose parent is not the previously appended node is a second
		// child; the first child (placed right after the parent) skips to it.
		if item.parent != -1 && item.parent != len(b.nodes)-1 {
			b.nodes[item.parent+1].Brother = len(b.nodes)
		}

		node := scene.BvhNode{
			Start:   item.start,
			End:     item.end,
			Parent:  item.parent,
			Brother: scene.NoBrother,
		}
		node.SetBBox(item.bbox)

		if item.end-item.start <= b.maxLeafItems {
			node.Leaf = true
			b.nodes = append(b.nodes, node)
			b.stats.leafs++
			continue
		}

		split := b.decidePartition(item)
		nodeIndex := len(b.nodes)
		stack = append(stack,
			b.newWorkItem(split, item.end, nodeIndex, item.depth+1),
			b.newWorkItem(item.start, split, nodeIndex, item.depth+1),
		)

		b.nodes = append(b.nodes, node)
		b.stats.nodes++
	}
}

// Nodes that are the last child built under their parent inherit the
// parent's brother. Parents always precede their children so a single
// forward pass resolves whole chains.
func (b *builder) linkBrothers() {
	for index := 1; index < len(b.nodes); index++ {
		node := &b.nodes[index]
		if node.Brother == scene.NoBrother {
			node.Brother = b.nodes[node.Parent].Brother
		}
	}
}

// Sort the item range and select a split index.
//
// For each axis the range is sorted by the triangles' max vertex coordinate
// (descending) and the first triangle whose max coordinate falls below the
// bbox center becomes the split candidate for that axis. Candidates are scored
// by the summed surface area of the two resulting bboxes; the cheapest one
// wins. If no axis yields a candidate the range is split at its midpoint.
func (b *builder) decidePartition(item workItem) int {
	center := item.bbox[0].Add(item.bbox[1]).Mul(0.5)

	bestScore := math32.Inf(1)
	bestIndex := (item.start + item.end) / 2
	bestAxis := 0

	for axis := 0; axis < 3; axis++ {
		b.sortRange(item.start, item.end, axis)
		for index := item.start + 1; index < item.end; index++ {
			if b.triangles[index].MaxCoord(axis) >= center[axis] {
				continue
			}

			score := surfaceArea(b.rangeBBox(item.start, index)) + surfaceArea(b.rangeBBox(index, item.end))
			if score < bestScore {
				bestScore = score
				bestIndex = index
				bestAxis = axis
			}
			break
		}
	}

	b.sortRange(item.start, item.end, bestAxis)
	return bestIndex
}

func (b *builder) newWorkItem(start, end, parent, depth int) workItem {
	return workItem{
		start:  start,
		end:    end,
		bbox:   b.rangeBBox(start, end),
		parent: parent,
		depth:  depth,
	}
}

// Calculate the bbox enclosing all triangles in [start, end).
func (b *builder) rangeBBox(start, end int) [2]types.Vec3 {
	bbox := [2]types.Vec3{
		types.Splat(math32.MaxFloat32),
		types.Splat(-math32.MaxFloat32),
	}
	for index := start; index < end; index++ {
		triBBox := b.triangles[index].BBox()
		bbox[0] = types.MinVec3(bbox[0], triBBox[0])
		bbox[1] = types.MaxVec3(bbox[1], triBBox[1])
	}
	return bbox
}

// Stable-sort a triangle range by max vertex coordinate along axis (descending).
func (b *builder) sortRange(start, end, axis int) {
	sort.Stable(byMaxCoord{
		triangles: b.triangles[start:end],
		order:     b.order[start:end],
		axis:      axis,
	})
}

// Calculate the bbox surface area. Degenerate boxes report a zero area.
func surfaceArea(bbox [2]types.Vec3) float32 {
	side := bbox[1].Sub(bbox[0])
	area := 2 * (side[0]*side[1] + side[1]*side[2] + side[2]*side[0])
	if !(area > 0) || math32.IsInf(area, 1) {
		return 0
	}
	return area
}

// Sorts a triangle range together with its original indices.
type byMaxCoord struct {
	triangles []scene.Triangle
	order     []int
	axis      int
}

func (s byMaxCoord) Len() int {
	return len(s.triangles)
}

func (s byMaxCoord) Less(i, j int) bool {
	return s.triangles[i].MaxCoord(s.axis) > s.triangles[j].MaxCoord(s.axis)
}

func (s byMaxCoord) Swap(i, j int) {
	s.triangles[i], s.triangles[j] = s.triangles[j], s.triangles[i]
	s.order[i], s.order[j] = s.order[j], s.order[i]
}
