package convert

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/tristrip"
)

var stripOptions = tristrip.Options{CacheSize: 16}

// buildStrips stripifies mesh faces. Emitted indexes are shifted by offset,
// UVs follow the strip index order when the mesh has them.
func buildStrips(mesh *scene.Mesh, offset int) ([]*ninja.Strip, error) {
	if mesh.VertexCount()+offset > vertexBufferSize {
		return nil, errors.Wrapf(ErrCacheExhausted, "mesh %q: %d vertices at offset %d", mesh.Name, mesh.VertexCount(), offset)
	}
	indices := make([]uint16, 0, len(mesh.Faces)*3)
	for fi, f := range mesh.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= mesh.VertexCount() {
				return nil, errors.Errorf("mesh %q face %d: vertex %d out of range", mesh.Name, fi, idx)
			}
			indices = append(indices, uint16(idx))
		}
	}

	groups, err := tristrip.Generate(indices, stripOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "mesh %q", mesh.Name)
	}

	var strips []*ninja.Strip
	for _, g := range groups {
		if g.Type == tristrip.TriangleList {
			for i := 0; i+2 < len(g.Indices); i += 3 {
				strips = append(strips, newStrip(g.Indices[i:i+3], mesh, offset))
			}
			continue
		}
		strips = append(strips, newStrip(g.Indices, mesh, offset))
	}
	return strips, nil
}

func newStrip(indices []uint16, mesh *scene.Mesh, offset int) *ninja.Strip {
	s := &ninja.Strip{}
	// generator doubles the first index of strips starting on odd winding
	if len(indices) > 1 && indices[0] == indices[1] {
		s.Reversed = true
		indices = indices[1:]
	}
	s.Indexes = make([]uint16, len(indices))
	for i, idx := range indices {
		s.Indexes[i] = uint16(int(idx) + offset)
	}
	if mesh.HasTextureCoords() {
		s.UVs = make([]ninja.UV, len(indices))
		for i, idx := range indices {
			tc := mesh.TextureCoords[idx]
			s.UVs[i] = ninja.UV{U: tc[0], V: tc[1]}
		}
	}
	return s
}
