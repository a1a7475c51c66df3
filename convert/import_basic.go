package convert

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

// importBasic concatenates node meshes into one basic attach. Meshes sharing a
// scene material share the native material too.
func (ctx *context) importBasic(sc *scene.Scene, meshes []*scene.Mesh) (*ninja.BasicAttach, error) {
	attach := ninja.NewBasicAttach(ctx.names.Identifier("attach"))
	materials := make(map[int]uint16)

	for _, m := range meshes {
		base := len(attach.Vertex)
		if base+m.VertexCount() > math.MaxUint16+1 {
			return nil, errors.Errorf("mesh %q: more than %d vertices in one attach", m.Name, math.MaxUint16+1)
		}
		attach.Vertex = append(attach.Vertex, m.Vertices...)
		attach.Normal = append(attach.Normal, meshNormals(m)...)

		matID, ok := materials[m.MaterialIndex]
		if !ok {
			matID = uint16(len(attach.Material))
			attach.Material = append(attach.Material, materialFromScene(sceneMaterial(sc, m.MaterialIndex), ctx.textures))
			materials[m.MaterialIndex] = matID
		}

		bm := &ninja.BasicMesh{MaterialID: matID, PolyType: ninja.BasicTriangles}
		for _, f := range m.Faces {
			corners := [3]int{f[2], f[1], f[0]}
			poly := ninja.Poly{Kind: ninja.PolyTriangle, Indexes: make([]uint16, 3)}
			for i, idx := range corners {
				poly.Indexes[i] = uint16(base + idx)
				if m.HasTextureCoords() {
					tc := m.TextureCoords[idx]
					bm.UV = append(bm.UV, ninja.UV{U: tc[0], V: tc[1]})
				}
				if m.HasVertexColors() {
					bm.VColor = append(bm.VColor, sceneColor(m.Colors[idx]))
				}
			}
			bm.Polys = append(bm.Polys, poly)
		}
		attach.Mesh = append(attach.Mesh, bm)
	}

	attach.Bounds = ninja.BoundingSphereFromPoints(attach.Vertex)
	if err := attach.Validate(); err != nil {
		return nil, err
	}
	return attach, nil
}
