package convert

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

// importChunk packs all meshes of a node into one vertex chunk and strips
// drawing each mesh with its material.
func (ctx *context) importChunk(sc *scene.Scene, meshes []*scene.Mesh) (*ninja.ChunkAttach, error) {
	t := ninja.ChunkVertex
	total := 0
	for _, m := range meshes {
		total += m.VertexCount()
		switch {
		case m.HasVertexColors():
			t = ninja.ChunkVertexDiffuse8
		case m.HasNormals() && t == ninja.ChunkVertex:
			t = ninja.ChunkVertexNormal
		}
	}
	if total > vertexBufferSize {
		return nil, errors.Wrapf(ErrCacheExhausted, "%d vertices in one attach", total)
	}

	attach := ninja.NewChunkAttach(ctx.names.Identifier("attach"))
	vc := ninja.NewVertexChunk(t)
	offset := 0
	for _, m := range meshes {
		normals := meshNormals(m)
		for i, v := range m.Vertices {
			vc.Vertices = append(vc.Vertices, v)
			if vc.HasNormals() {
				vc.Normals = append(vc.Normals, normals[i])
			}
			if vc.HasDiffuse() {
				c := white
				if m.HasVertexColors() {
					c = sceneColor(m.Colors[i])
				}
				vc.Diffuse = append(vc.Diffuse, c)
			}
		}
		strips, err := buildStrips(m, offset)
		if err != nil {
			return nil, err
		}
		attach.Poly = append(attach.Poly, ctx.meshPolyChunks(sc, m, strips)...)
		offset += m.VertexCount()
	}
	attach.Vertex = []*ninja.VertexChunk{vc}
	attach.Bounds = ninja.BoundingSphereFromPoints(vc.Vertices)
	if err := attach.Validate(); err != nil {
		return nil, err
	}
	return attach, nil
}
