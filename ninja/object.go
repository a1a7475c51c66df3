// Package ninja holds the native model representation: an object tree with
// attaches in one of the chunk, basic or gamecube encodings.
package ninja

import (
	"github.com/go-gl/mathgl/mgl32"
)

type AttachKind int

const (
	AttachChunk AttachKind = iota
	AttachBasic
	AttachGC
)

func (k AttachKind) String() string {
	switch k {
	case AttachChunk:
		return "chunk"
	case AttachBasic:
		return "basic"
	case AttachGC:
		return "gc"
	}
	return "unknown"
}

type Attach interface {
	Kind() AttachKind
	Label() string
	BoundingSphere() BoundingSphere
}

type Object struct {
	Name     string
	Position mgl32.Vec3
	Rotation Rotation
	Scale    mgl32.Vec3

	Attach   Attach
	Children []*Object

	Animate bool
	Morph   bool
}

func NewObject(name string) *Object {
	return &Object{
		Name:  name,
		Scale: mgl32.Vec3{1, 1, 1},
	}
}

func (o *Object) AddChild(c *Object) {
	o.Children = append(o.Children, c)
}

func (o *Object) LocalMatrix() mgl32.Mat4 {
	return LocalMatrix(o.Position, o.Rotation, o.Scale)
}

func (o *Object) SetLocalMatrix(m mgl32.Mat4) {
	o.Position, o.Rotation, o.Scale = DecomposeToObject(m)
}

// Walk visits objects in preorder. Returning false from f skips the subtree.
func (o *Object) Walk(f func(obj *Object, parent *Object) bool) {
	var walk func(obj, parent *Object)
	walk = func(obj, parent *Object) {
		if !f(obj, parent) {
			return
		}
		for _, c := range obj.Children {
			walk(c, obj)
		}
	}
	walk(o, nil)
}

func (o *Object) Count() int {
	n := 0
	o.Walk(func(*Object, *Object) bool {
		n++
		return true
	})
	return n
}

// HasWeight reports whether any chunk attach in the tree carries weighted vertices.
func (o *Object) HasWeight() bool {
	found := false
	o.Walk(func(obj *Object, _ *Object) bool {
		if ca, ok := obj.Attach.(*ChunkAttach); ok && ca.HasWeight() {
			found = true
		}
		return !found
	})
	return found
}
