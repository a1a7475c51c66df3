package convert

import (
	"image/color"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
)

func quadVertexChunk() *ninja.VertexChunk {
	vc := ninja.NewVertexChunk(ninja.ChunkVertexNormal)
	vc.Vertices = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	vc.Normals = []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	return vc
}

func quadStripChunk() *ninja.StripChunk {
	sc := ninja.NewStripChunk(ninja.ChunkStripUVN)
	sc.Strips = []*ninja.Strip{{
		Indexes: []uint16{0, 1, 2, 3},
		UVs:     []ninja.UV{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}},
	}}
	return sc
}

func TestCacheDrawIdempotent(t *testing.T) {
	ctx := newContext(nil, nil)
	if err := ctx.loadVertexChunks([]*ninja.VertexChunk{quadVertexChunk()}, 0, mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}
	red := color.NRGBA{R: 255, A: 255}
	stored := []ninja.PolyChunk{
		&ninja.CachePolygonListChunk{List: 3},
		&ninja.MaterialChunk{Diffuse: &red},
		quadStripChunk(),
	}
	meshes, err := ctx.processPolyList(stored, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 0 {
		t.Fatalf("cached list drew %d meshes", len(meshes))
	}

	meshes, err = ctx.processPolyList([]ninja.PolyChunk{
		&ninja.DrawPolygonListChunk{List: 3},
		&ninja.DrawPolygonListChunk{List: 3},
	}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("%d meshes; expected 2", len(meshes))
	}
	if !reflect.DeepEqual(meshes[0], meshes[1]) {
		t.Errorf("draws differ:\n%+v\n%+v", meshes[0].Info, meshes[1].Info)
	}
	mi := meshes[0].Info
	if mi.Material.DiffuseColor != red || len(mi.Vertices) != 4 || len(mi.Triangles()) != 6 || !mi.HasUV {
		t.Errorf("unexpected mesh %+v", mi)
	}
}

func TestCacheDrawUnknownList(t *testing.T) {
	ctx := newContext(nil, nil)
	_, err := ctx.processPolyList([]ninja.PolyChunk{&ninja.DrawPolygonListChunk{List: 9}}, 0, 0)
	if errors.Cause(err) != ErrUnknownPolyCache {
		t.Errorf("error %v; expected %v", err, ErrUnknownPolyCache)
	}
}

func TestCacheDrawSelfReference(t *testing.T) {
	ctx := newContext(nil, nil)
	chunks := []ninja.PolyChunk{
		&ninja.CachePolygonListChunk{List: 1},
		&ninja.DrawPolygonListChunk{List: 1},
	}
	if _, err := ctx.processPolyList(chunks, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.processPolyList(chunks[1:], 0, 0); err == nil {
		t.Error("list drawing itself did not fail")
	}
}

func TestStripUndefinedVertex(t *testing.T) {
	ctx := newContext(nil, nil)
	if _, err := ctx.processPolyList([]ninja.PolyChunk{quadStripChunk()}, 0, 0); err == nil {
		t.Error("strip over empty vertex cache accepted")
	}
}

func TestMaterialCarriesAcrossStrips(t *testing.T) {
	ctx := newContext(nil, nil)
	if err := ctx.loadVertexChunks([]*ninja.VertexChunk{quadVertexChunk()}, 0, mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}
	meshes, err := ctx.processPolyList([]ninja.PolyChunk{
		&ninja.TextureIDChunk{TextureID: 4, ClampU: true},
		quadStripChunk(),
		&ninja.SpecularExponentChunk{SpecularExponent: 30},
		quadStripChunk(),
	}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("%d meshes; expected 2", len(meshes))
	}
	a, b := meshes[0].Info.Material, meshes[1].Info.Material
	if a.TextureID != 4 || !a.ClampU || a.Exponent != 11 {
		t.Errorf("first material %+v", a)
	}
	if b.TextureID != 4 || !b.ClampU || b.Exponent != 30 {
		t.Errorf("second material %+v", b)
	}
}
