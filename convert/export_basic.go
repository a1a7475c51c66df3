package convert

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

// cornerMesh expands triangle corners into separate vertices. Faces are
// emitted with reversed winding.
func cornerMesh(name string, corners []ninja.VertexData, hasUV, hasColor bool) *scene.Mesh {
	mesh := &scene.Mesh{
		Name:     name,
		Vertices: make([]mgl32.Vec3, 0, len(corners)),
		Normals:  make([]mgl32.Vec3, 0, len(corners)),
	}
	for i := 0; i+2 < len(corners); i += 3 {
		mesh.Faces = append(mesh.Faces, scene.Face{i + 2, i + 1, i})
		for _, v := range corners[i : i+3] {
			mesh.Vertices = append(mesh.Vertices, v.Position)
			mesh.Normals = append(mesh.Normals, v.Normal)
			if hasColor {
				mesh.Colors = append(mesh.Colors, scene.Color4(utils.ColorFloatFromNRGBA(v.Color)))
			}
			if hasUV {
				mesh.TextureCoords = append(mesh.TextureCoords, mgl32.Vec3{v.UV.U, v.UV.V, 0})
			}
		}
	}
	return mesh
}

func (ctx *context) exportBasic(ba *ninja.BasicAttach, sc *scene.Scene, node *scene.Node) error {
	if err := ba.Validate(); err != nil {
		return err
	}
	for i, mi := range ba.MeshInfo() {
		tris := mi.Triangles()
		corners := make([]ninja.VertexData, len(tris))
		for j, idx := range tris {
			corners[j] = mi.Vertices[idx]
		}
		mesh := cornerMesh(fmt.Sprintf("%s_mesh_%d", ba.Name, i), corners, mi.HasUV, mi.HasVColor)
		mat := materialToScene(mi.Material, fmt.Sprintf("%s_material_%d", ba.Name, i), ctx.textures, false)
		mesh.MaterialIndex = sc.AddMaterial(mat)
		node.MeshIndices = append(node.MeshIndices, sc.AddMesh(mesh))
	}
	return nil
}
