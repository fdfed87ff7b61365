package scene

import (
	"testing"

	"github.com/achilleasa/lighttracer/types"
)

func TestTriangleGeometry(t *testing.T) {
	tri := NewTriangle(
		types.XYZ(0, 0, 0), types.XYZ(2, 0, 0), types.XYZ(0, 2, 1),
		types.Splat(1), Surface,
	)

	bbox := tri.BBox()
	if bbox[0] != (types.Vec3{0, 0, 0}) || bbox[1] != (types.Vec3{2, 2, 1}) {
		t.Fatalf("unexpected bbox %v", bbox)
	}

	if max := tri.MaxCoord(2); max != 1 {
		t.Fatalf("expected max Z coord to be 1; got %f", max)
	}

	flat := NewTriangle(types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0), types.Vec3{}, Surface)
	if n := flat.Normal(); n != (types.Vec3{0, 0, 1}) {
		t.Fatalf("expected normal (0, 0, 1); got %v", n)
	}
	if a := flat.EdgeArea(); a != 1 {
		t.Fatalf("expected edge area 1; got %f", a)
	}
}

func TestEmitters(t *testing.T) {
	tris := []Triangle{
		{Material: Surface},
		{Material: AreaLight},
		{Material: Surface},
		{Material: DirectionalLight},
	}

	emitters := Emitters(tris)
	if len(emitters) != 2 {
		t.Fatalf("expected 2 emitters; got %d", len(emitters))
	}
	if emitters[0].Material != AreaLight || emitters[1].Material != DirectionalLight {
		t.Fatalf("unexpected emitter materials: %v, %v", emitters[0].Material, emitters[1].Material)
	}
}

func TestParseMaterialType(t *testing.T) {
	for _, m := range []MaterialType{Surface, AreaLight, DirectionalLight} {
		parsed, err := ParseMaterialType(m.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != m {
			t.Fatalf("expected %v; got %v", m, parsed)
		}
	}

	if _, err := ParseMaterialType("plasma"); err == nil {
		t.Fatal("expected an error for an unknown material type")
	}
}

func TestSignedID(t *testing.T) {
	type spec struct {
		index    int
		backFace bool
		expID    int
	}
	specs := []spec{
		{0, false, 0},
		{0, true, -1},
		{41, false, 41},
		{41, true, -42},
	}

	for index, s := range specs {
		v := LightVertex{TriangleIndex: s.index, BackFace: s.backFace}
		if id := v.SignedID(); id != s.expID {
			t.Fatalf("[spec %d] expected signed id %d; got %d", index, s.expID, id)
		}
		decIndex, decBack := DecodeSignedID(v.SignedID())
		if decIndex != s.index || decBack != s.backFace {
			t.Fatalf("[spec %d] expected decoded (%d, %t); got (%d, %t)", index, s.index, s.backFace, decIndex, decBack)
		}
	}
}
