package convert

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

type materialPatcher interface {
	Patch() ninja.MaterialPatch
}

func gcCorners(ga *ninja.GCAttach, m *ninja.GCMesh) ([]ninja.VertexData, error) {
	vd := &ga.VertexData
	var corners []ninja.VertexData
	for pi, p := range m.Primitives {
		tris, err := p.Triangles()
		if err != nil {
			return nil, errors.Wrapf(err, "primitive %d", pi)
		}
		for _, v := range tris {
			c := ninja.VertexData{Position: vd.Positions[v.Position], Normal: up}
			if len(vd.Normals) != 0 {
				c.Normal = vd.Normals[v.Normal]
			}
			if len(vd.Colors) != 0 {
				c.Color, c.HasColor = vd.Colors[v.Color0], true
			}
			if len(vd.TexCoords) != 0 {
				tc := vd.TexCoords[v.UV]
				c.UV, c.HasUV = ninja.UV{U: tc[0], V: tc[1]}, true
			}
			corners = append(corners, c)
		}
	}
	return corners, nil
}

// exportGC converts opaque meshes first, each overlaying its parameters on
// the material, then translucent meshes drawn with the last opaque material.
func (ctx *context) exportGC(ga *ninja.GCAttach, sc *scene.Scene, node *scene.Node) error {
	if err := ga.Validate(); err != nil {
		return err
	}
	vd := &ga.VertexData
	hasUV := len(vd.TexCoords) != 0
	hasColor := len(vd.Colors) != 0

	material := ninja.DefaultMaterial()
	emit := func(m *ninja.GCMesh, meshName, matName string, translucent bool) error {
		corners, err := gcCorners(ga, m)
		if err != nil {
			return errors.Wrapf(err, "mesh %q", meshName)
		}
		mesh := cornerMesh(meshName, corners, hasUV, hasColor)
		mesh.MaterialIndex = sc.AddMaterial(materialToScene(material, matName, ctx.textures, translucent))
		node.MeshIndices = append(node.MeshIndices, sc.AddMesh(mesh))
		return nil
	}

	for i, m := range ga.OpaqueMeshes {
		for _, p := range m.Parameters {
			if patcher, ok := p.(materialPatcher); ok {
				material = material.Apply(patcher.Patch())
			}
		}
		if err := emit(m, fmt.Sprintf("%s_mesh_%d", ga.Name, i), fmt.Sprintf("%s_material_%d", ga.Name, i), false); err != nil {
			return err
		}
	}
	for i, m := range ga.TranslucentMeshes {
		if err := emit(m,
			fmt.Sprintf("%s_transparentmesh_%d", ga.Name, i),
			fmt.Sprintf("%s_transparentmaterial_%d", ga.Name, i), true); err != nil {
			return err
		}
	}
	return nil
}
