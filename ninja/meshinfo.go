package ninja

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

type PolyKind uint8

const (
	PolyTriangle PolyKind = iota
	PolyQuad
	PolyStrip
)

type Poly struct {
	Kind     PolyKind
	Indexes  []uint16
	Reversed bool `json:",omitempty"`
}

// Triangles returns triangle list indices. Quads are split along the 1-2 edge.
func (p Poly) Triangles() []uint16 {
	switch p.Kind {
	case PolyTriangle:
		return append([]uint16(nil), p.Indexes[:3]...)
	case PolyQuad:
		return []uint16{p.Indexes[0], p.Indexes[1], p.Indexes[2], p.Indexes[2], p.Indexes[1], p.Indexes[3]}
	default:
		return StripToTriangles(p.Indexes, p.Reversed)
	}
}

// VertexData is one fully resolved render vertex.
type VertexData struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    color.NRGBA
	HasColor bool
	UV       UV
	HasUV    bool
}

// MeshInfo is a render ready mesh: vertices, polys indexing them and the
// material they are drawn with.
type MeshInfo struct {
	Material  Material
	Polys     []Poly
	Vertices  []VertexData
	HasUV     bool
	HasVColor bool
}

func (mi *MeshInfo) Triangles() []uint16 {
	var result []uint16
	for _, p := range mi.Polys {
		result = append(result, p.Triangles()...)
	}
	return result
}

// VertexSet dedups equal vertices keeping first occurrence order.
type VertexSet struct {
	index    map[VertexData]uint16
	vertices []VertexData
}

func NewVertexSet() *VertexSet {
	return &VertexSet{index: make(map[VertexData]uint16)}
}

// Add returns index of v and whether v was not in the set before.
func (vs *VertexSet) Add(v VertexData) (uint16, bool) {
	if i, ok := vs.index[v]; ok {
		return i, false
	}
	i := uint16(len(vs.vertices))
	vs.index[v] = i
	vs.vertices = append(vs.vertices, v)
	return i, true
}

func (vs *VertexSet) Len() int { return len(vs.vertices) }

func (vs *VertexSet) Vertices() []VertexData { return vs.vertices }
