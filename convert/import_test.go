package convert

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/config"
	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

var red = scene.Color4{1, 0, 0, 1}

// boxScene has one node holding two quads drawn with the same material.
func boxScene() *scene.Scene {
	sc := scene.New()
	mat := sc.AddMaterial(&scene.Material{Name: "b", ColorDiffuse: &red})
	a := quadMesh()
	b := quadMesh()
	b.Colors = []scene.Color4{red, red, red, red}
	b.MaterialIndex = mat
	a.MaterialIndex = mat
	n := scene.NewNode("n000_box", sc.RootNode)
	n.Transform = mgl32.Translate3D(0, 0, 3)
	n.MeshIndices = []int{sc.AddMesh(a), sc.AddMesh(b)}
	return sc
}

func TestImportBasic(t *testing.T) {
	obj, err := Import(boxScene(), nil, ImportOptions{Format: config.ModelFormatBasic})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Name != "box" || !utils.Vec3ApproxEqual(obj.Position, mgl32.Vec3{0, 0, 3}, 1e-5) {
		t.Errorf("object %q at %v", obj.Name, obj.Position)
	}
	if !obj.Animate || !obj.Morph {
		t.Error("animate and morph flags not set")
	}
	ba, ok := obj.Attach.(*ninja.BasicAttach)
	if !ok {
		t.Fatalf("attach %T; expected basic", obj.Attach)
	}
	if len(ba.Vertex) != 8 || len(ba.Normal) != 8 || len(ba.Material) != 1 || len(ba.Mesh) != 2 {
		t.Fatalf("%d vertices, %d normals, %d materials, %d meshes", len(ba.Vertex), len(ba.Normal), len(ba.Material), len(ba.Mesh))
	}
	second := ba.Mesh[1]
	if got := second.Polys[0].Indexes; got[0] != 6 || got[1] != 5 || got[2] != 4 {
		t.Errorf("second mesh first triangle %v; expected [6 5 4]", got)
	}
	if len(second.UV) != 6 || len(second.VColor) != 6 || len(ba.Mesh[0].VColor) != 0 {
		t.Errorf("%d uvs, %d colors", len(second.UV), len(second.VColor))
	}
	if second.UV[0] != (ninja.UV{U: 0, V: 1}) {
		t.Errorf("first corner uv %v; expected vertex 2 uv", second.UV[0])
	}
	if ba.Material[0].DiffuseColor != sceneColor(red) || ba.Material[0].UseTexture {
		t.Errorf("material %+v", ba.Material[0])
	}
	if ba.Bounds.Radius == 0 {
		t.Error("bounds not computed")
	}
}

func TestImportChunk(t *testing.T) {
	obj, err := Import(boxScene(), nil, ImportOptions{Format: config.ModelFormatChunk})
	if err != nil {
		t.Fatal(err)
	}
	ca := chunkAttach(t, obj)
	if len(ca.Vertex) != 1 {
		t.Fatalf("%d vertex chunks; expected 1", len(ca.Vertex))
	}
	vc := ca.Vertex[0]
	if vc.Type != ninja.ChunkVertexDiffuse8 || vc.VertexCount() != 8 {
		t.Errorf("chunk %v with %d vertices", vc.Type, vc.VertexCount())
	}
	if vc.Diffuse[0] != white || vc.Diffuse[4] != sceneColor(red) {
		t.Errorf("colors %v, %v", vc.Diffuse[0], vc.Diffuse[4])
	}

	var strips []*ninja.StripChunk
	materials := 0
	for _, pc := range ca.Poly {
		switch c := pc.(type) {
		case *ninja.StripChunk:
			strips = append(strips, c)
		case *ninja.MaterialChunk:
			materials++
		case *ninja.TextureIDChunk:
			t.Error("texture chunk without texture list")
		}
	}
	if len(strips) != 2 || materials != 2 {
		t.Fatalf("%d strip chunks, %d material chunks; expected 2 and 2", len(strips), materials)
	}
	if strips[0].ChunkType != ninja.ChunkStripUVN {
		t.Errorf("strip chunk %v; expected uvn", strips[0].ChunkType)
	}
	for _, s := range strips[1].Strips {
		for _, idx := range s.Indexes {
			if idx < 4 || idx > 7 {
				t.Errorf("second mesh strip index %d outside 4..7", idx)
			}
		}
	}
}

func TestImportGC(t *testing.T) {
	sc := scene.New()
	sc.AddMaterial(&scene.Material{
		Name:           "skin",
		TextureDiffuse: &scene.TextureSlot{FilePath: "textures/B.png", WrapU: scene.WrapModeMirror, WrapV: scene.WrapModeClamp},
	})
	mesh := quadMesh()
	scene.NewNode("quad", sc.RootNode).MeshIndices = []int{sc.AddMesh(mesh)}

	obj, err := Import(sc, nil, ImportOptions{Format: config.ModelFormatGC, Textures: []string{"a.png", "b.png"}})
	if err != nil {
		t.Fatal(err)
	}
	ga, ok := obj.Attach.(*ninja.GCAttach)
	if !ok {
		t.Fatalf("attach %T; expected gc", obj.Attach)
	}
	vd := ga.VertexData
	for _, a := range []ninja.GXVertexAttribute{ninja.GXPosition, ninja.GXNormal, ninja.GXTex0} {
		if !vd.HasAttribute(a) {
			t.Errorf("attribute %d missing", a)
		}
	}
	if vd.HasAttribute(ninja.GXColor0) || len(vd.Positions) != 4 || len(vd.TexCoords) != 4 {
		t.Errorf("vertex data %+v", vd)
	}
	if len(ga.OpaqueMeshes) != 1 || len(ga.TranslucentMeshes) != 0 {
		t.Fatalf("%d opaque, %d translucent meshes", len(ga.OpaqueMeshes), len(ga.TranslucentMeshes))
	}

	m := ga.OpaqueMeshes[0]
	var tex *ninja.GCTextureParameter
	for _, p := range m.Parameters {
		if tp, ok := p.(*ninja.GCTextureParameter); ok {
			tex = tp
		}
	}
	if tex == nil || tex.TextureID != 1 || tex.Tile != ninja.GCTileMirrorU {
		t.Errorf("texture parameter %+v; expected id 1 mirrored on u", tex)
	}
	prim := m.Primitives[0]
	if prim.Type != ninja.GXTriangles || len(prim.Vertices) != 6 || prim.Vertices[0].Position != 2 || prim.Vertices[2].Position != 0 {
		t.Errorf("primitive %+v", prim)
	}
}

func TestImportRootWithSeveralChildren(t *testing.T) {
	sc := boxScene()
	scene.NewNode("other", sc.RootNode)
	obj, err := Import(sc, nil, ImportOptions{Format: config.ModelFormatBasic})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Name != "RootNode" || len(obj.Children) != 2 {
		t.Errorf("object %q with %d children", obj.Name, len(obj.Children))
	}

	box := sc.FindNode("n000_box")
	obj, err = Import(sc, box, ImportOptions{Format: config.ModelFormatBasic})
	if err != nil || obj.Name != "box" {
		t.Errorf("import of node: %v, %v", obj, err)
	}

	if _, err := Import(scene.New(), nil, ImportOptions{}); errors.Cause(err) != ErrEmptyScene {
		t.Errorf("empty scene error %v; expected %v", err, ErrEmptyScene)
	}
}

func TestImportCollapsesUnnamedNodes(t *testing.T) {
	sc := scene.New()
	group := scene.NewNode("", sc.RootNode)
	group.Transform = mgl32.Translate3D(1, 2, 3)
	scene.NewNode("leaf", group).MeshIndices = []int{sc.AddMesh(quadMesh())}

	obj, err := Import(sc, nil, ImportOptions{Format: config.ModelFormatBasic})
	if err != nil {
		t.Fatal(err)
	}
	if obj.Name != "leaf" || !utils.Vec3ApproxEqual(obj.Position, mgl32.Vec3{1, 2, 3}, 1e-5) || obj.Attach == nil {
		t.Errorf("object %q at %v attach %v", obj.Name, obj.Position, obj.Attach)
	}
}

func TestImportBadMesh(t *testing.T) {
	sc := boxScene()
	sc.Meshes[0].Faces = append(sc.Meshes[0].Faces, scene.Face{0, 1, 4})
	for _, f := range []config.ModelFormat{config.ModelFormatBasic, config.ModelFormatChunk, config.ModelFormatGC} {
		if _, err := Import(sc, nil, ImportOptions{Format: f}); err == nil {
			t.Errorf("%v: face with out of range vertex accepted", f)
		}
	}
}
