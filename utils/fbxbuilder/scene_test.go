package fbxbuilder

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

func quadScene() *scene.Scene {
	sc := scene.New()
	mat := sc.AddMaterial(&scene.Material{
		Name:           "wall",
		TextureDiffuse: &scene.TextureSlot{FilePath: "tex/wall.png"},
	})
	mesh := &scene.Mesh{
		Name:          "wall_mesh",
		Vertices:      []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Normals:       []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Faces:         []scene.Face{{0, 1, 2}, {2, 1, 3}},
		MaterialIndex: mat,
	}
	n := scene.NewNode("n000_wall", sc.RootNode)
	n.Transform = mgl32.Translate3D(0, 5, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	n.MeshIndices = []int{sc.AddMesh(mesh), sc.AddMesh(mesh)}
	return sc
}

func TestAddScene(t *testing.T) {
	sc := quadScene()
	f := NewFBXBuilder("wall.fbx", nil)
	root, err := f.AddScene(sc)
	if err != nil {
		t.Fatal(err)
	}
	if root == nil || f.GetCached(sc.RootNode) != root {
		t.Fatal("root node not cached")
	}
	wall := f.GetCached(sc.FindNode("n000_wall")).(*FbxExportNode)
	if len(wall.MeshModels) != 2 {
		t.Errorf("%d mesh models; expected 2", len(wall.MeshModels))
	}

	counts := make(map[string]int)
	for _, o := range f.objects.Nodes {
		counts[o.Name]++
	}
	// two null models plus two mesh models, material shared
	if counts["Model"] != 4 || counts["Geometry"] != 2 || counts["Material"] != 1 || counts["NodeAttribute"] != 2 {
		t.Errorf("object counts %v", counts)
	}
	if paths := f.TexturePaths(); len(paths) != 1 || paths[0] != "tex/wall.png" {
		t.Errorf("texture paths %v", paths)
	}

	geometry := f.objects.GetNode("Geometry")
	indexes := geometry.GetNode("PolygonVertexIndex").Properties[0].([]int32)
	expected := []int32{0, 1, -3, 2, 1, -4}
	if len(indexes) != len(expected) {
		t.Fatalf("indexes %v; expected %v", indexes, expected)
	}
	for i := range expected {
		if indexes[i] != expected[i] {
			t.Errorf("indexes %v; expected %v", indexes, expected)
			break
		}
	}
}

func TestLclTransform(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(2, 2, 2))
	pos, rot, scale := lclTransform(m)
	if !utils.Vec3ApproxEqual(pos, mgl32.Vec3{1, 2, 3}, 1e-5) || !utils.Vec3ApproxEqual(scale, mgl32.Vec3{2, 2, 2}, 1e-5) ||
		!utils.Vec3ApproxEqual(rot, mgl32.Vec3{0, 0, 90}, 1e-3) {
		t.Errorf("pos %v rot %v scale %v", pos, rot, scale)
	}
}

func TestAddSceneBadMesh(t *testing.T) {
	sc := quadScene()
	sc.Meshes[0].Faces = append(sc.Meshes[0].Faces, scene.Face{0, 1, 9})
	if _, err := NewFBXBuilder("bad.fbx", nil).AddScene(sc); err == nil {
		t.Error("face with out of range vertex exported")
	}
}

func TestWriteZip(t *testing.T) {
	f, err := ExportSceneDefault(quadScene(), "wall.fbx", nil)
	if err != nil {
		t.Fatal(err)
	}
	f.AddExportFile("wall.png", []byte{1, 2, 3})

	var buf bytes.Buffer
	if err := f.WriteZip(&buf, "wall.fbx"); err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]uint64)
	for _, zf := range zr.File {
		names[zf.Name] = zf.UncompressedSize64
	}
	if names["wall.fbx"] == 0 || names["wall.png"] != 3 {
		t.Errorf("zip entries %v", names)
	}
}
