package gltfutils

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

func skinnedTriangle() *scene.Scene {
	sc := scene.New()
	red := scene.Color4{1, 0, 0, 1}
	mat := sc.AddMaterial(&scene.Material{
		Name:         "skin",
		ColorDiffuse: &red,
		Shininess:    11,
		TextureDiffuse: &scene.TextureSlot{
			FilePath: "textures/body.png",
			WrapU:    scene.WrapModeMirror,
			WrapV:    scene.WrapModeClamp,
		},
	})

	body := scene.NewNode("n000_body", sc.RootNode)
	body.Transform = mgl32.Translate3D(1, 2, 3)
	scene.NewNode("n001_arm", body).Transform = mgl32.Translate3D(1, 0, 0)

	mesh := &scene.Mesh{
		Name:          "body_mesh_0",
		Vertices:      []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:       []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		TextureCoords: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Colors:        []scene.Color4{red, red, {0, 0, 1, 1}},
		Faces:         []scene.Face{{0, 1, 2}},
		MaterialIndex: mat,
		Bones: []*scene.Bone{
			{
				Name:          "n000_body",
				OffsetMatrix:  mgl32.Translate3D(-1, -2, -3),
				VertexWeights: []scene.VertexWeight{{VertexID: 0, Weight: 1}, {VertexID: 1, Weight: 0.5}},
			},
			{
				Name:          "n001_arm",
				OffsetMatrix:  mgl32.Translate3D(-2, -2, -3),
				VertexWeights: []scene.VertexWeight{{VertexID: 1, Weight: 0.5}, {VertexID: 2, Weight: 1}},
			},
		},
	}
	body.MeshIndices = []int{sc.AddMesh(mesh)}
	return sc
}

func TestSceneRoundTrip(t *testing.T) {
	src := skinnedTriangle()
	doc, err := ExportScene(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Nodes) != 3 || len(doc.Meshes) != 1 || len(doc.Skins) != 1 {
		t.Fatalf("%d nodes, %d meshes, %d skins", len(doc.Nodes), len(doc.Meshes), len(doc.Skins))
	}

	var buf bytes.Buffer
	if err := ExportBinary(&buf, doc); err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := ImportScene(decoded)
	if err != nil {
		t.Fatal(err)
	}

	if sc.RootNode.Name != "RootNode" || len(sc.RootNode.Children) != 1 {
		t.Fatalf("root %q with %d children", sc.RootNode.Name, len(sc.RootNode.Children))
	}
	body := sc.FindNode("n000_body")
	if body == nil || !utils.Mat4ApproxEqual(body.Transform, mgl32.Translate3D(1, 2, 3), 1e-6) {
		t.Fatalf("body node %+v", body)
	}
	if arm := sc.FindNode("n001_arm"); arm == nil || arm.Parent != body {
		t.Errorf("arm node %+v", arm)
	}

	if len(body.MeshIndices) != 1 {
		t.Fatalf("body has %d meshes", len(body.MeshIndices))
	}
	mesh := sc.Meshes[body.MeshIndices[0]]
	want := src.Meshes[0]
	if mesh.Name != want.Name || len(mesh.Faces) != 1 || mesh.Faces[0] != want.Faces[0] {
		t.Errorf("mesh %q faces %v", mesh.Name, mesh.Faces)
	}
	for i := range want.Vertices {
		if mesh.Vertices[i] != want.Vertices[i] || mesh.Normals[i] != want.Normals[i] ||
			mesh.TextureCoords[i] != want.TextureCoords[i] || mesh.Colors[i] != want.Colors[i] {
			t.Errorf("vertex %d: %v %v %v %v", i, mesh.Vertices[i], mesh.Normals[i], mesh.TextureCoords[i], mesh.Colors[i])
		}
	}

	if len(mesh.Bones) != 2 {
		t.Fatalf("%d bones", len(mesh.Bones))
	}
	for i, b := range mesh.Bones {
		wb := want.Bones[i]
		if b.Name != wb.Name || !utils.Mat4ApproxEqual(b.OffsetMatrix, wb.OffsetMatrix, 1e-6) {
			t.Errorf("bone %d: %q %v", i, b.Name, b.OffsetMatrix)
		}
		if len(b.VertexWeights) != len(wb.VertexWeights) {
			t.Errorf("bone %q: %v weights", b.Name, b.VertexWeights)
			continue
		}
		for k, vw := range b.VertexWeights {
			if vw != wb.VertexWeights[k] {
				t.Errorf("bone %q weight %d: %v; expected %v", b.Name, k, vw, wb.VertexWeights[k])
			}
		}
	}

	if mesh.MaterialIndex != 0 || len(sc.Materials) != 1 {
		t.Fatalf("material index %d of %d", mesh.MaterialIndex, len(sc.Materials))
	}
	mat := sc.Materials[0]
	if mat.Name != "skin" || mat.ColorDiffuse == nil || *mat.ColorDiffuse != (scene.Color4{1, 0, 0, 1}) || mat.Shininess != 11 {
		t.Errorf("material %+v", mat)
	}
	if tex := mat.TextureDiffuse; tex == nil || tex.FilePath != "textures/body.png" ||
		tex.WrapU != scene.WrapModeMirror || tex.WrapV != scene.WrapModeClamp {
		t.Errorf("texture %+v", mat.TextureDiffuse)
	}
	if mat.TextureOpacity != nil {
		t.Error("opaque material imported with opacity")
	}
}

func TestInverseBindMatricesAccessor(t *testing.T) {
	src := skinnedTriangle()
	doc, err := ExportScene(src)
	if err != nil {
		t.Fatal(err)
	}
	skin := doc.Skins[0]
	if skin.InverseBindMatrices == nil {
		t.Fatal("skin without inverse bind matrices")
	}
	acr := doc.Accessors[*skin.InverseBindMatrices]
	if acr.Type != gltf.AccessorMat4 || acr.ComponentType != gltf.ComponentFloat || acr.Count != 2 {
		t.Errorf("accessor %v %v count %d", acr.Type, acr.ComponentType, acr.Count)
	}
	if bv := doc.BufferViews[*acr.BufferView]; bv.Target != gltf.TargetNone || bv.ByteStride != 0 {
		t.Errorf("buffer view target %v stride %d", bv.Target, bv.ByteStride)
	}

	data, err := modeler.ReadAccessor(doc, acr, nil)
	if err != nil {
		t.Fatal(err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok || len(mats) != 2 {
		t.Fatalf("accessor data %T", data)
	}
	for i, b := range src.Meshes[0].Bones {
		for c := 0; c < 4; c++ {
			if mats[i][c] != [4]float32(b.OffsetMatrix.Col(c)) {
				t.Errorf("bone %q column %d = %v; expected %v", b.Name, c, mats[i][c], b.OffsetMatrix.Col(c))
			}
		}
	}
}

func TestExportSceneUnknownBone(t *testing.T) {
	sc := skinnedTriangle()
	sc.Meshes[0].Bones[1].Name = "missing"
	if _, err := ExportScene(sc); err == nil {
		t.Error("bone without node exported")
	}
}

func TestExportSceneKeepsStrongestInfluences(t *testing.T) {
	sc := skinnedTriangle()
	body := sc.FindNode("n000_body")
	mesh := sc.Meshes[0]
	mesh.Bones = nil
	for i, w := range []float32{0.1, 0.4, 0.2, 0.05, 0.25} {
		name := string(rune('a' + i))
		scene.NewNode(name, body)
		mesh.Bones = append(mesh.Bones, &scene.Bone{
			Name:          name,
			OffsetMatrix:  mgl32.Ident4(),
			VertexWeights: []scene.VertexWeight{{VertexID: 0, Weight: w}},
		})
	}
	doc, err := ExportScene(sc)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := ImportScene(doc)
	if err != nil {
		t.Fatal(err)
	}
	m := imported.Meshes[0]
	if len(m.Bones) != 4 {
		t.Fatalf("%d bones imported; expected 4", len(m.Bones))
	}
	for _, b := range m.Bones {
		if b.Name == "d" {
			t.Error("weakest influence kept")
		}
	}
}
