// Package scene is the generic, format independent scene graph the converter
// reads from and writes to. It follows the usual interchange layout: a node
// tree referencing meshes by index, meshes carrying bones with per-vertex
// weights, and a flat material list.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Color4 [4]float32 // r g b a, 0..1

type WrapMode int

const (
	WrapModeWrap WrapMode = iota
	WrapModeClamp
	WrapModeMirror
)

func (w WrapMode) String() string {
	switch w {
	case WrapModeClamp:
		return "clamp"
	case WrapModeMirror:
		return "mirror"
	default:
		return "wrap"
	}
}

type TextureSlot struct {
	FilePath string
	WrapU    WrapMode
	WrapV    WrapMode
}

type Material struct {
	Name string

	ColorDiffuse  *Color4
	ColorSpecular *Color4
	Shininess     float32

	TextureDiffuse *TextureSlot
	TextureOpacity *TextureSlot
}

func (m *Material) HasTextureDiffuse() bool { return m.TextureDiffuse != nil }

type Face [3]int

type VertexWeight struct {
	VertexID int
	Weight   float32
}

type Bone struct {
	Name string
	// mesh space to bone space (inverse bind pose)
	OffsetMatrix  mgl32.Mat4
	VertexWeights []VertexWeight
}

func (b *Bone) HasVertexWeights() bool { return len(b.VertexWeights) != 0 }

type Mesh struct {
	Name string

	Vertices      []mgl32.Vec3
	Normals       []mgl32.Vec3
	TextureCoords []mgl32.Vec3 // uv channel 0, third component unused
	Colors        []Color4     // color channel 0

	Faces         []Face
	Bones         []*Bone
	MaterialIndex int
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) }
func (m *Mesh) HasBones() bool { return len(m.Bones) != 0 }
func (m *Mesh) HasNormals() bool { return len(m.Normals) != 0 }
func (m *Mesh) HasTextureCoords() bool { return len(m.TextureCoords) != 0 }
func (m *Mesh) HasVertexColors() bool { return len(m.Colors) != 0 }

type Node struct {
	Name      string
	Transform mgl32.Mat4

	Parent      *Node
	Children    []*Node
	MeshIndices []int
}

func NewNode(name string, parent *Node) *Node {
	n := &Node{
		Name:      name,
		Transform: mgl32.Ident4(),
		Parent:    parent,
	}
	if parent != nil {
		parent.Children = append(parent.Children, n)
	}
	return n
}

func (n *Node) HasMeshes() bool   { return len(n.MeshIndices) != 0 }
func (n *Node) HasChildren() bool { return len(n.Children) != 0 }

// Walk visits n and its subtree depth-first, parents before children.
func (n *Node) Walk(f func(*Node)) {
	f(n)
	for _, c := range n.Children {
		c.Walk(f)
	}
}

// WorldTransform multiplies transforms from the root down to n.
func (n *Node) WorldTransform() mgl32.Mat4 {
	m := n.Transform
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.Transform.Mul4(m)
	}
	return m
}

type Scene struct {
	RootNode  *Node
	Meshes    []*Mesh
	Materials []*Material
}

func New() *Scene {
	return &Scene{
		RootNode: NewNode("RootNode", nil),
	}
}

func (s *Scene) AddMesh(m *Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return len(s.Meshes) - 1
}

func (s *Scene) AddMaterial(m *Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// FindNode returns first node with matching name in depth-first order.
func (s *Scene) FindNode(name string) *Node {
	var found *Node
	s.RootNode.Walk(func(n *Node) {
		if found == nil && n.Name == name {
			found = n
		}
	})
	return found
}
