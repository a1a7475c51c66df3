package ninja

import (
	"image/color"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/utils"
)

func TestStripToTriangles(t *testing.T) {
	tests := []struct {
		indexes  []uint16
		reversed bool
		out      []uint16
	}{
		{[]uint16{0, 1, 2}, false, []uint16{0, 1, 2}},
		{[]uint16{0, 1, 2, 3}, false, []uint16{0, 1, 2, 2, 1, 3}},
		{[]uint16{0, 1, 2, 3}, true, []uint16{1, 0, 2, 1, 2, 3}},
		{[]uint16{5, 6, 7, 8, 9}, false, []uint16{5, 6, 7, 7, 6, 8, 7, 8, 9}},
		{[]uint16{0, 1}, false, []uint16{}},
	}
	for _, test := range tests {
		result := StripToTriangles(test.indexes, test.reversed)
		if len(result) != len(test.out) || (len(result) != 0 && !reflect.DeepEqual(result, test.out)) {
			t.Errorf("StripToTriangles(%v,%v)=%v; expected %v", test.indexes, test.reversed, result, test.out)
		}
	}
}

func TestPolyTriangles(t *testing.T) {
	quad := Poly{Kind: PolyQuad, Indexes: []uint16{0, 1, 2, 3}}
	if result := quad.Triangles(); !reflect.DeepEqual(result, []uint16{0, 1, 2, 2, 1, 3}) {
		t.Errorf("quad triangles %v", result)
	}
	tri := Poly{Kind: PolyTriangle, Indexes: []uint16{4, 5, 6}}
	if result := tri.Triangles(); !reflect.DeepEqual(result, []uint16{4, 5, 6}) {
		t.Errorf("triangle triangles %v", result)
	}
}

func TestPackWeight(t *testing.T) {
	tests := []struct {
		weight float32
		local  int
		flags  uint32
	}{
		{1, 0, 0xff0000},
		{0.5, 3, 0x800003},
		{0, 7, 0x000007},
		{0.25, 0x1234, 0x401234},
		{1.5, 1, 0xff0001},
	}
	for _, test := range tests {
		if flags := PackWeight(test.weight, test.local); flags != test.flags {
			t.Errorf("PackWeight(%v,%d)=0x%x; expected 0x%x", test.weight, test.local, flags, test.flags)
		}
	}
	w, id := UnpackWeight(0x800003)
	if id != 3 || !utils.FloatApproxEqual(w, 128.0/255.0, 1e-6) {
		t.Errorf("UnpackWeight(0x800003)=%v,%d", w, id)
	}
}

func TestMergeVertexChunks(t *testing.T) {
	a := &VertexChunk{Type: ChunkVertexNormal, IndexOffset: 0,
		Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}}}
	b := &VertexChunk{Type: ChunkVertexNormal, IndexOffset: 2,
		Vertices: []mgl32.Vec3{{2, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}}}
	gap := &VertexChunk{Type: ChunkVertexNormal, IndexOffset: 10,
		Vertices: []mgl32.Vec3{{3, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}}}

	merged := MergeVertexChunks([]*VertexChunk{a, b, gap})
	if len(merged) != 2 {
		t.Fatalf("merged into %d chunks; expected 2", len(merged))
	}
	if merged[0].IndexOffset != 0 || merged[0].VertexCount() != 3 {
		t.Errorf("first chunk offset %d count %d", merged[0].IndexOffset, merged[0].VertexCount())
	}
	if len(a.Vertices) != 2 {
		t.Errorf("merge modified input chunk")
	}

	w1 := &VertexChunk{Type: ChunkVertexNormalNinjaFlags, WeightStatus: WeightStart, IndexOffset: 4,
		Vertices: []mgl32.Vec3{{0, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}}, NinjaFlags: []uint32{PackWeight(1, 0)}}
	w2 := &VertexChunk{Type: ChunkVertexNormalNinjaFlags, WeightStatus: WeightStart, IndexOffset: 1,
		Vertices: []mgl32.Vec3{{1, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}}, NinjaFlags: []uint32{PackWeight(0.5, 1)}}
	w3 := &VertexChunk{Type: ChunkVertexNormalNinjaFlags, WeightStatus: WeightEnd, IndexOffset: 1,
		Vertices: []mgl32.Vec3{{1, 0, 0}}, Normals: []mgl32.Vec3{{0, 1, 0}}, NinjaFlags: []uint32{PackWeight(0.5, 1)}}

	merged = MergeVertexChunks([]*VertexChunk{w1, w2, w3})
	if len(merged) != 2 {
		t.Fatalf("merged weighted into %d chunks; expected 2", len(merged))
	}
	m := merged[0]
	if m.IndexOffset != 1 {
		t.Errorf("weighted merge offset %d; expected 1", m.IndexOffset)
	}
	if got := []int{m.CacheIndex(0), m.CacheIndex(1)}; !reflect.DeepEqual(got, []int{4, 2}) {
		t.Errorf("weighted merge cache indices %v; expected [4 2]", got)
	}
	if w, _ := UnpackWeight(m.NinjaFlags[1]); !utils.FloatApproxEqual(w, 128.0/255.0, 1e-6) {
		t.Errorf("weighted merge lost weight: %v", w)
	}
}

func TestVertexChunkValidate(t *testing.T) {
	vc := &VertexChunk{Type: ChunkVertex, IndexOffset: MaxCacheIndex, Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}}}
	if err := vc.Validate(); err == nil {
		t.Errorf("expected overflow error")
	}
	vc.IndexOffset = MaxCacheIndex - 1
	if err := vc.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestMaterialApply(t *testing.T) {
	base := DefaultMaterial()
	red := color.NRGBA{R: 255, A: 255}

	tex := &TextureIDChunk{TextureID: 7, ClampU: true, FlipV: true}
	mat := &MaterialChunk{Diffuse: &red, SourceAlpha: AlphaOne, DestinationAlpha: AlphaZero}
	strip := &StripChunk{ChunkType: ChunkStripUVN, Flags: StripDoubleSide | StripUseAlpha}

	m := base
	for _, pc := range []PolyChunk{tex, mat, strip} {
		m = m.Apply(pc.Patch())
	}
	if base != DefaultMaterial() {
		t.Errorf("apply mutated base material")
	}
	if m.TextureID != 7 || !m.ClampU || m.ClampV || !m.FlipV || m.FlipU || !m.UseTexture {
		t.Errorf("texture fields not applied: %+v", m)
	}
	if m.DiffuseColor != red || m.SourceAlpha != AlphaOne || m.DestinationAlpha != AlphaZero {
		t.Errorf("material fields not applied: %+v", m)
	}
	if !m.DoubleSided || !m.UseAlpha || m.EnvironmentMap || m.IgnoreLighting {
		t.Errorf("strip flags not applied: %+v", m)
	}
	if m.Exponent != base.Exponent || m.SpecularColor != base.SpecularColor {
		t.Errorf("unpatched fields changed: %+v", m)
	}
	if !(MaterialPatch{}).Empty() || (&CachePolygonListChunk{}).Patch() != (MaterialPatch{}) {
		t.Errorf("cache chunk must not patch material")
	}
}

func TestMaterialChunkType(t *testing.T) {
	c := color.NRGBA{A: 255}
	tests := []struct {
		chunk *MaterialChunk
		t     ChunkType
	}{
		{&MaterialChunk{Diffuse: &c}, ChunkMaterialDiffuse},
		{&MaterialChunk{Diffuse: &c, Ambient: &c, Specular: &c}, ChunkMaterialDiffuseAmbientSpecular},
		{&MaterialChunk{Specular: &c}, ChunkMaterialSpecular},
		{&MaterialChunk{Second: true, Diffuse: &c}, ChunkMaterialDiffuse2},
		{&MaterialChunk{Second: true, Diffuse: &c, Ambient: &c, Specular: &c}, ChunkMaterialDiffuseAmbientSpecular2},
	}
	for _, test := range tests {
		if result := test.chunk.Type(); result != test.t {
			t.Errorf("material chunk type %d; expected %d", result, test.t)
		}
	}
}
