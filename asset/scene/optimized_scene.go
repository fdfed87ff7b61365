package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"

	core "github.com/achilleasa/lighttracer/scene"
)

// A compiled scene. Triangles are stored in the order produced by the BVH
// builder so that BVH leaf ranges index them directly.
type Scene struct {
	// Triangles in BVH order.
	Triangles []core.Triangle

	// Order[i] is the index of Triangles[i] in the triangle list emitted by
	// the scene compiler. It allows callers to map BVH-order indices back
	// to stable ids.
	Order []int

	BvhNodes []core.BvhNode

	// Indices (in BVH order) of the triangles that emit light.
	EmitterIndices []int

	// The largest emitter color component. Packed emitter colors are
	// divided by this value.
	EmissionScale float32
}

// Get a BVH view over the scene geometry.
func (sc *Scene) BVH() *core.BVH {
	return &core.BVH{
		Nodes:     sc.BvhNodes,
		Triangles: sc.Triangles,
		Order:     sc.Order,
	}
}

// Get the list of emitting triangles.
func (sc *Scene) Emitters() []core.Triangle {
	emitters := make([]core.Triangle, len(sc.EmitterIndices))
	for index, triIndex := range sc.EmitterIndices {
		emitters[index] = sc.Triangles[triIndex]
	}
	return emitters
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var leafs int
	for _, node := range sc.BvhNodes {
		if node.Leaf {
			leafs++
		}
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", "", fmtSize(sc.Triangles, sc.Order)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(sc.Triangles)), fmtSize(sc.Triangles)})
	table.Append([]string{"", "Stable ids", fmt.Sprint(len(sc.Order)), fmtSize(sc.Order)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "---", "", fmtSize(sc.BvhNodes)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(sc.BvhNodes)), fmtSize(sc.BvhNodes)})
	table.Append([]string{"", "Leafs", fmt.Sprint(leafs), ""})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Emitters", "---", "", fmtSize(sc.EmitterIndices)})
	table.Append([]string{"", "Emitters", fmt.Sprint(len(sc.EmitterIndices)), fmtSize(sc.EmitterIndices)})
	table.Append([]string{"", "Emission scale", fmt.Sprintf("%.3f", sc.EmissionScale), ""})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(sc.Triangles, sc.Order, sc.BvhNodes, sc.EmitterIndices), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
