package ninja

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Highest vertex cache slot a chunk may address.
const MaxCacheIndex = math.MaxInt16

type VertexChunk struct {
	Type         ChunkType
	WeightStatus WeightStatus
	// first vertex cache slot this chunk writes to
	IndexOffset uint16

	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	Diffuse  []color.NRGBA
	// weight byte << 16 | chunk local vertex id
	NinjaFlags []uint32
}

func NewVertexChunk(t ChunkType) *VertexChunk {
	return &VertexChunk{Type: t}
}

func (vc *VertexChunk) VertexCount() int { return len(vc.Vertices) }

func (vc *VertexChunk) HasNormals() bool {
	switch vc.Type {
	case ChunkVertexNormalSH, ChunkVertexNormal, ChunkVertexNormalDiffuse8,
		ChunkVertexNormalUserFlags, ChunkVertexNormalNinjaFlags:
		return true
	}
	return false
}

func (vc *VertexChunk) HasDiffuse() bool {
	return vc.Type == ChunkVertexDiffuse8 || vc.Type == ChunkVertexNormalDiffuse8
}

// HasWeight reports chunks that carry ninja flags and take part in skinning.
func (vc *VertexChunk) HasWeight() bool {
	return vc.Type == ChunkVertexNinjaFlags || vc.Type == ChunkVertexNormalNinjaFlags
}

func (vc *VertexChunk) Clone() *VertexChunk {
	c := *vc
	c.Vertices = append([]mgl32.Vec3(nil), vc.Vertices...)
	c.Normals = append([]mgl32.Vec3(nil), vc.Normals...)
	c.Diffuse = append([]color.NRGBA(nil), vc.Diffuse...)
	c.NinjaFlags = append([]uint32(nil), vc.NinjaFlags...)
	return &c
}

// CacheIndex returns the vertex cache slot of i-th chunk vertex.
func (vc *VertexChunk) CacheIndex(i int) int {
	if vc.HasWeight() {
		return int(vc.IndexOffset) + int(vc.NinjaFlags[i]&0xffff)
	}
	return int(vc.IndexOffset) + i
}

func (vc *VertexChunk) Validate() error {
	n := len(vc.Vertices)
	if vc.HasNormals() && len(vc.Normals) != n {
		return errors.Errorf("vertex chunk %v: %d normals for %d vertices", vc.Type, len(vc.Normals), n)
	}
	if vc.HasDiffuse() && len(vc.Diffuse) != n {
		return errors.Errorf("vertex chunk %v: %d colors for %d vertices", vc.Type, len(vc.Diffuse), n)
	}
	if vc.HasWeight() {
		if len(vc.NinjaFlags) != n {
			return errors.Errorf("vertex chunk %v: %d ninja flags for %d vertices", vc.Type, len(vc.NinjaFlags), n)
		}
		for i := range vc.NinjaFlags {
			if idx := vc.CacheIndex(i); idx > MaxCacheIndex {
				return errors.Errorf("vertex chunk %v: cache index %d out of range", vc.Type, idx)
			}
		}
	} else if int(vc.IndexOffset)+n > MaxCacheIndex+1 {
		return errors.Errorf("vertex chunk %v: %d vertices at offset %d overflow vertex cache", vc.Type, n, vc.IndexOffset)
	}
	return nil
}

// PackWeight encodes weight in 0..1 with chunk local vertex id into ninja flags.
func PackWeight(weight float32, localID int) uint32 {
	w := math.Round(float64(weight) * 255)
	if w < 0 {
		w = 0
	} else if w > 255 {
		w = 255
	}
	return uint32(w)<<16 | uint32(localID)&0xffff
}

func UnpackWeight(flags uint32) (weight float32, localID int) {
	return float32((flags>>16)&0xff) / 255, int(flags & 0xffff)
}

// MergeVertexChunks joins neighbouring chunks of the same type and weight status.
// Weighted chunks rebase their ninja flags on the lower offset, unweighted
// chunks merge only when their slot ranges are contiguous.
func MergeVertexChunks(chunks []*VertexChunk) []*VertexChunk {
	if len(chunks) < 2 {
		return chunks
	}
	result := make([]*VertexChunk, 0, len(chunks))
	var cur *VertexChunk
	for _, vc := range chunks {
		if cur != nil && canMerge(cur, vc) {
			mergeInto(cur, vc)
			continue
		}
		cur = vc.Clone()
		result = append(result, cur)
	}
	return result
}

func canMerge(a, b *VertexChunk) bool {
	if a.Type != b.Type || a.WeightStatus != b.WeightStatus {
		return false
	}
	if !a.HasWeight() {
		return int(a.IndexOffset)+len(a.Vertices) == int(b.IndexOffset)
	}
	lo := a.IndexOffset
	if b.IndexOffset < lo {
		lo = b.IndexOffset
	}
	for _, vc := range []*VertexChunk{a, b} {
		for i := range vc.NinjaFlags {
			if vc.CacheIndex(i)-int(lo) > 0xffff {
				return false
			}
		}
	}
	return true
}

func mergeInto(dst, src *VertexChunk) {
	if dst.HasWeight() {
		lo := dst.IndexOffset
		if src.IndexOffset < lo {
			lo = src.IndexOffset
		}
		rebase := func(vc *VertexChunk, flags []uint32) []uint32 {
			out := make([]uint32, len(flags))
			for i, f := range flags {
				local := int(vc.IndexOffset) + int(f&0xffff) - int(lo)
				out[i] = f&0xffff0000 | uint32(local)
			}
			return out
		}
		dstFlags := rebase(dst, dst.NinjaFlags)
		srcFlags := rebase(src, src.NinjaFlags)
		dst.NinjaFlags = append(dstFlags, srcFlags...)
		dst.IndexOffset = lo
	}
	dst.Vertices = append(dst.Vertices, src.Vertices...)
	dst.Normals = append(dst.Normals, src.Normals...)
	dst.Diffuse = append(dst.Diffuse, src.Diffuse...)
}
