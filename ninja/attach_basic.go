package ninja

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type BasicPolyType uint8

const (
	BasicTriangles BasicPolyType = iota
	BasicQuads
	BasicNPoly
	BasicStrips
)

func (t BasicPolyType) PolyKind() PolyKind {
	switch t {
	case BasicTriangles:
		return PolyTriangle
	case BasicQuads:
		return PolyQuad
	}
	return PolyStrip
}

// BasicMesh is a poly set drawn with one material. UV and VColor are per
// poly corner, in the order corners appear in Polys.
type BasicMesh struct {
	MaterialID uint16
	PolyType   BasicPolyType
	Polys      []Poly
	UV         []UV          `json:",omitempty"`
	VColor     []color.NRGBA `json:",omitempty"`
}

func (m *BasicMesh) CornerCount() int {
	n := 0
	for _, p := range m.Polys {
		n += len(p.Indexes)
	}
	return n
}

type BasicAttach struct {
	Name     string
	Vertex   []mgl32.Vec3
	Normal   []mgl32.Vec3
	Material []Material
	Mesh     []*BasicMesh
	Bounds   BoundingSphere
}

func NewBasicAttach(name string) *BasicAttach {
	return &BasicAttach{Name: name}
}

func (ba *BasicAttach) Kind() AttachKind { return AttachBasic }
func (ba *BasicAttach) Label() string { return ba.Name }
func (ba *BasicAttach) BoundingSphere() BoundingSphere { return ba.Bounds }

func (ba *BasicAttach) Validate() error {
	if len(ba.Normal) != 0 && len(ba.Normal) != len(ba.Vertex) {
		return errors.Errorf("attach %q: %d normals for %d vertices", ba.Name, len(ba.Normal), len(ba.Vertex))
	}
	for i, m := range ba.Mesh {
		corners := m.CornerCount()
		if len(m.UV) != 0 && len(m.UV) != corners {
			return errors.Errorf("attach %q mesh %d: %d uvs for %d corners", ba.Name, i, len(m.UV), corners)
		}
		if len(m.VColor) != 0 && len(m.VColor) != corners {
			return errors.Errorf("attach %q mesh %d: %d colors for %d corners", ba.Name, i, len(m.VColor), corners)
		}
		for _, p := range m.Polys {
			for _, idx := range p.Indexes {
				if int(idx) >= len(ba.Vertex) {
					return errors.Errorf("attach %q mesh %d: vertex index %d out of range", ba.Name, i, idx)
				}
			}
		}
	}
	return nil
}

// MeshInfo resolves every mesh into deduplicated render vertices.
func (ba *BasicAttach) MeshInfo() []*MeshInfo {
	result := make([]*MeshInfo, 0, len(ba.Mesh))
	for _, m := range ba.Mesh {
		mi := &MeshInfo{
			Material:  DefaultMaterial(),
			HasUV:     len(m.UV) != 0,
			HasVColor: len(m.VColor) != 0,
		}
		if int(m.MaterialID) < len(ba.Material) {
			mi.Material = ba.Material[m.MaterialID]
		}

		set := NewVertexSet()
		corner := 0
		for _, p := range m.Polys {
			np := Poly{Kind: p.Kind, Reversed: p.Reversed, Indexes: make([]uint16, len(p.Indexes))}
			for i, idx := range p.Indexes {
				vd := VertexData{Position: ba.Vertex[idx]}
				if len(ba.Normal) != 0 {
					vd.Normal = ba.Normal[idx]
				} else {
					vd.Normal = mgl32.Vec3{0, 1, 0}
				}
				if mi.HasUV {
					vd.UV, vd.HasUV = m.UV[corner], true
				}
				if mi.HasVColor {
					vd.Color, vd.HasColor = m.VColor[corner], true
				}
				np.Indexes[i], _ = set.Add(vd)
				corner++
			}
			mi.Polys = append(mi.Polys, np)
		}
		mi.Vertices = set.Vertices()
		result = append(result, mi)
	}
	return result
}
