package ninja

import (
	"github.com/pkg/errors"
)

type ChunkAttach struct {
	Name   string
	Vertex []*VertexChunk
	Poly   []PolyChunk
	Bounds BoundingSphere
}

func NewChunkAttach(name string) *ChunkAttach {
	return &ChunkAttach{Name: name}
}

func (ca *ChunkAttach) Kind() AttachKind { return AttachChunk }
func (ca *ChunkAttach) Label() string { return ca.Name }
func (ca *ChunkAttach) BoundingSphere() BoundingSphere { return ca.Bounds }

func (ca *ChunkAttach) HasWeight() bool {
	for _, vc := range ca.Vertex {
		if vc.HasWeight() {
			return true
		}
	}
	return false
}

func (ca *ChunkAttach) Validate() error {
	for i, vc := range ca.Vertex {
		if err := vc.Validate(); err != nil {
			return errors.Wrapf(err, "attach %q vertex chunk %d", ca.Name, i)
		}
	}
	for i, pc := range ca.Poly {
		if sc, ok := pc.(*StripChunk); ok {
			if err := sc.Validate(); err != nil {
				return errors.Wrapf(err, "attach %q poly chunk %d", ca.Name, i)
			}
		}
	}
	return nil
}
