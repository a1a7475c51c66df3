package fbxbuilder

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

// FbxExportNode is the exported form of one scene node.
type FbxExportNode struct {
	FbxModelId int64
	FbxModel   *fbx.Node
	MeshModels []int64
}

type FbxExportMaterial struct {
	MaterialId int64
}

func lclTransform(m mgl32.Mat4) (pos, rotation, scale mgl32.Vec3) {
	pos = m.Col(3).Vec3()
	scale = mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	rot := mgl32.Ident4()
	for c := 0; c < 3; c++ {
		if scale[c] != 0 {
			rot.SetCol(c, m.Col(c).Mul(1/scale[c]))
		}
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	rotation = utils.QuatToEuler(mgl32.Mat4ToQuat(rot)).Mul(180.0 / math.Pi)
	return
}

func (f *FBXBuilder) exportMaterial(m *scene.Material) *FbxExportMaterial {
	return f.GetCachedOr(m, func() interface{} {
		fe := &FbxExportMaterial{MaterialId: f.GenerateId()}

		color := utils.ColorFloat{1, 1, 1, 1}
		if m.ColorDiffuse != nil {
			color = utils.ColorFloat(*m.ColorDiffuse)
		}
		props := bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(color[0]), float64(color[1]), float64(color[2])),
			bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Ambient", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(color[0]), float64(color[1]), float64(color[2])),
			bfbx73.P("Opacity", "double", "Number", "", float64(color[3])),
		)
		shading := "lambert"
		if m.ColorSpecular != nil {
			shading = "phong"
			s := *m.ColorSpecular
			props.AddNodes(
				bfbx73.P("SpecularColor", "Color", "", "A", float64(s[0]), float64(s[1]), float64(s[2])),
				bfbx73.P("Shininess", "double", "Number", "", float64(m.Shininess)),
			)
		}

		f.AddObjects(bfbx73.Material(fe.MaterialId, m.Name+"\x00\x01Material", "").AddNodes(
			bfbx73.Version(102),
			bfbx73.ShadingModel(shading),
			bfbx73.MultiLayer(0),
			props,
		))
		if m.TextureDiffuse != nil && m.TextureDiffuse.FilePath != "" {
			// texture objects are not emitted, files travel next to the fbx
			f.textures = append(f.textures, m.TextureDiffuse.FilePath)
		}
		return fe
	}).(*FbxExportMaterial)
}

func (f *FBXBuilder) exportGeometry(mesh *scene.Mesh) (int64, error) {
	count := mesh.VertexCount()
	vertices := make([]float64, 0, count*3)
	for _, v := range mesh.Vertices {
		vertices = append(vertices, float64(v[0]), float64(v[1]), float64(v[2]))
	}

	indexes := make([]int32, 0, len(mesh.Faces)*3)
	uvindexes := make([]int32, 0, len(mesh.Faces)*3)
	for fi, face := range mesh.Faces {
		for k, idx := range face {
			if idx < 0 || idx >= count {
				return 0, errors.Errorf("mesh %q face %d: vertex %d out of range", mesh.Name, fi, idx)
			}
			uvindexes = append(uvindexes, int32(idx))
			if k == 2 {
				// negative index closes the polygon
				indexes = append(indexes, -int32(idx)-1)
			} else {
				indexes = append(indexes, int32(idx))
			}
		}
	}

	geometryId := f.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(geometryId, mesh.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if len(mesh.Normals) == count {
		normals := make([]float64, 0, count*3)
		for _, n := range mesh.Normals {
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(mesh.Colors) == count {
		rgba := make([]float64, 0, count*4)
		for _, c := range mesh.Colors {
			rgba = append(rgba, float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3]))
		}
		geometry.AddNode(
			bfbx73.LayerElementColor(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Colors(rgba),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementColor"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(mesh.TextureCoords) == count {
		uv := make([]float64, 0, count*2)
		for _, t := range mesh.TextureCoords {
			uv = append(uv, float64(t[0]), float64(t[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	f.AddObjects(geometry)
	return geometryId, nil
}

func model(id int64, name string, class string, m mgl32.Mat4) *fbx.Node {
	pos, rotation, scale := lclTransform(m)
	return bfbx73.Model(id, name+"\x00\x01Model", class).AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
				float64(pos[0]), float64(pos[1]), float64(pos[2])),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
				float64(rotation[0]), float64(rotation[1]), float64(rotation[2])),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
				float64(scale[0]), float64(scale[1]), float64(scale[2])),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
}

func (f *FBXBuilder) exportNode(sc *scene.Scene, n *scene.Node, parentId int64) (*FbxExportNode, error) {
	fe := &FbxExportNode{FbxModelId: f.GenerateId()}
	defer f.AddCache(n, fe)

	fe.FbxModel = model(fe.FbxModelId, n.Name, "Null", n.Transform)
	nodeAttribute := bfbx73.NodeAttribute(f.GenerateId(), n.Name+"\x00\x01NodeAttribute", "Null").AddNodes(
		bfbx73.TypeFlags("Null"),
	)
	f.AddObjects(fe.FbxModel, nodeAttribute)
	f.AddConnections(
		bfbx73.C("OO", nodeAttribute.Properties[0].(int64), fe.FbxModelId),
		bfbx73.C("OO", fe.FbxModelId, parentId),
	)

	for _, mi := range n.MeshIndices {
		if mi < 0 || mi >= len(sc.Meshes) {
			return nil, errors.Errorf("node %q: mesh index %d out of range", n.Name, mi)
		}
		mesh := sc.Meshes[mi]
		if mesh.HasBones() {
			f.log.Debug("fbx export drops skin", zap.String("mesh", mesh.Name), zap.Int("bones", len(mesh.Bones)))
		}
		geometryId, err := f.exportGeometry(mesh)
		if err != nil {
			return nil, errors.Wrapf(err, "node %q", n.Name)
		}

		meshModelId := f.GenerateId()
		f.AddObjects(model(meshModelId, mesh.Name, "Mesh", mgl32.Ident4()))
		f.AddConnections(
			bfbx73.C("OO", geometryId, meshModelId),
			bfbx73.C("OO", meshModelId, fe.FbxModelId),
		)
		if mesh.MaterialIndex >= 0 && mesh.MaterialIndex < len(sc.Materials) {
			mat := f.exportMaterial(sc.Materials[mesh.MaterialIndex])
			f.AddConnections(bfbx73.C("OO", mat.MaterialId, meshModelId))
		}
		fe.MeshModels = append(fe.MeshModels, meshModelId)
	}

	for _, c := range n.Children {
		if _, err := f.exportNode(sc, c, fe.FbxModelId); err != nil {
			return nil, err
		}
	}
	return fe, nil
}

// AddScene appends the node tree of sc under the fbx root. Skin deformers are
// not written; bones stay plain null models.
func (f *FBXBuilder) AddScene(sc *scene.Scene) (*FbxExportNode, error) {
	if sc == nil || sc.RootNode == nil {
		return nil, errors.New("scene without root node")
	}
	return f.exportNode(sc, sc.RootNode, 0)
}

// TexturePaths lists diffuse textures of exported materials in export order.
func (f *FBXBuilder) TexturePaths() []string {
	return f.textures
}

// ExportSceneDefault builds a standalone fbx holding sc.
func ExportSceneDefault(sc *scene.Scene, filename string, log *zap.Logger) (*FBXBuilder, error) {
	f := NewFBXBuilder(filename, log)
	if _, err := f.AddScene(sc); err != nil {
		return nil, err
	}
	return f, nil
}
