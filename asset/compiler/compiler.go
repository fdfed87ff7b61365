package compiler

import (
	"fmt"
	"time"

	"github.com/achilleasa/lighttracer/asset/compiler/bvh"
	"github.com/achilleasa/lighttracer/asset/compiler/input"
	"github.com/achilleasa/lighttracer/asset/scene"
	"github.com/achilleasa/lighttracer/log"
	core "github.com/achilleasa/lighttracer/scene"
)

type Options struct {
	// Ranges with this many triangles or fewer become BVH leafs.
	MaxLeafItems int `toml:"max_leaf_items"`
}

// Get the default compiler options.
func DefaultOptions() Options {
	return Options{
		MaxLeafItems: bvh.DefaultMaxLeafItems,
	}
}

type sceneCompiler struct {
	parsedScene    *input.Scene
	optimizedScene *scene.Scene
	logger         log.Logger
	opts           Options
}

// Compile a scene representation parsed by a scene reader into an optimized
// scene: mesh instances are flattened into a single triangle list which is
// then partitioned into a BVH.
func Compile(parsedScene *input.Scene, opts Options) (*scene.Scene, error) {
	compiler := &sceneCompiler{
		parsedScene:    parsedScene,
		optimizedScene: &scene.Scene{},
		logger:         log.New("scene compiler"),
		opts:           opts,
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene")

	triangles, err := compiler.flattenGeometry()
	if err != nil {
		return nil, err
	}

	err = compiler.partitionGeometry(triangles)
	if err != nil {
		return nil, err
	}

	compiler.collectEmitters()

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.optimizedScene, nil
}

// Apply each mesh instance transformation to its mesh primitives and emit a
// world-space triangle for each one.
func (sc *sceneCompiler) flattenGeometry() ([]core.Triangle, error) {
	sc.logger.Infof("processing %d mesh instances (%d meshes, %d materials)", len(sc.parsedScene.MeshInstances), len(sc.parsedScene.Meshes), len(sc.parsedScene.Materials))

	totalTriangles := 0
	for _, mi := range sc.parsedScene.MeshInstances {
		if int(mi.MeshIndex) >= len(sc.parsedScene.Meshes) {
			return nil, fmt.Errorf("compiler: mesh instance references unknown mesh %d", mi.MeshIndex)
		}
		totalTriangles += len(sc.parsedScene.Meshes[mi.MeshIndex].Primitives)
	}

	triangles := make([]core.Triangle, 0, totalTriangles)
	for _, mi := range sc.parsedScene.MeshInstances {
		mesh := sc.parsedScene.Meshes[mi.MeshIndex]
		for _, prim := range mesh.Primitives {
			if prim.MaterialIndex < 0 || prim.MaterialIndex >= len(sc.parsedScene.Materials) {
				return nil, fmt.Errorf("compiler: primitive in mesh %q references unknown material %d", mesh.Name, prim.MaterialIndex)
			}
			mat := sc.parsedScene.Materials[prim.MaterialIndex]

			triangles = append(triangles, core.NewTriangle(
				mi.Transform(prim.Vertices[0]),
				mi.Transform(prim.Vertices[1]),
				mi.Transform(prim.Vertices[2]),
				mat.Color,
				mat.Type,
			))
		}
	}

	return triangles, nil
}

// Build the scene BVH. The optimized scene stores triangles in BVH order.
func (sc *sceneCompiler) partitionGeometry(triangles []core.Triangle) error {
	start := time.Now()
	sc.logger.Noticef("partitioning geometry (%d triangles)", len(triangles))

	tree, err := bvh.Build(triangles, sc.opts.MaxLeafItems)
	if err != nil {
		return err
	}

	sc.optimizedScene.Triangles = tree.Triangles
	sc.optimizedScene.Order = tree.Order
	sc.optimizedScene.BvhNodes = tree.Nodes

	sc.logger.Noticef("partitioned geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Locate emissive triangles and calculate the emission scale.
func (sc *sceneCompiler) collectEmitters() {
	sc.optimizedScene.EmitterIndices = make([]int, 0)
	for index, tri := range sc.optimizedScene.Triangles {
		if !tri.Material.IsEmissive() {
			continue
		}

		sc.optimizedScene.EmitterIndices = append(sc.optimizedScene.EmitterIndices, index)
		if scale := tri.Color.MaxAbsComponent(); scale > sc.optimizedScene.EmissionScale {
			sc.optimizedScene.EmissionScale = scale
		}
	}

	if len(sc.optimizedScene.EmitterIndices) > 0 {
		sc.logger.Infof("found %d emissive triangles; emission scale %.3f", len(sc.optimizedScene.EmitterIndices), sc.optimizedScene.EmissionScale)
	} else {
		sc.logger.Warning("the scene contains no emissive triangles; light sampling will fail!")
	}
}
