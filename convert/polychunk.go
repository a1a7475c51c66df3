package convert

import (
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
)

var ErrUnknownPolyCache = errors.New("draw of unknown polygon list")

// cached lists may draw other lists, this bounds the nesting
const maxPolyListDepth = polyCacheSize

type exportMesh struct {
	Info *ninja.MeshInfo
	// bone weights of every Info vertex
	Weights [][]boneWeight
}

// processPolyList walks a poly chunk stream from start, overlaying every chunk
// on the running material and turning strip chunks into meshes.
func (ctx *context) processPolyList(chunks []ninja.PolyChunk, start int, depth int) ([]*exportMesh, error) {
	if depth > maxPolyListDepth {
		return nil, errors.Errorf("polygon lists nested deeper than %d", maxPolyListDepth)
	}
	var result []*exportMesh
	for i := start; i < len(chunks); i++ {
		pc := chunks[i]
		ctx.material = ctx.material.Apply(pc.Patch())

		switch c := pc.(type) {
		case *ninja.CachePolygonListChunk:
			ctx.polyCache[c.List] = &cachedPoly{chunks: chunks, start: i + 1}
			return result, nil
		case *ninja.DrawPolygonListChunk:
			cached := ctx.polyCache[c.List]
			if cached == nil {
				return nil, errors.Wrapf(ErrUnknownPolyCache, "list %d", c.List)
			}
			meshes, err := ctx.processPolyList(cached.chunks, cached.start, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "drawing list %d", c.List)
			}
			result = append(result, meshes...)
		case *ninja.StripChunk:
			mesh, err := ctx.stripMesh(c)
			if err != nil {
				return nil, errors.Wrapf(err, "poly chunk %d", i)
			}
			result = append(result, mesh)
		}
	}
	return result, nil
}

// stripMesh resolves strip indexes against the vertex cache.
func (ctx *context) stripMesh(c *ninja.StripChunk) (*exportMesh, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	buf := ctx.vertexBuffer()
	hasUV := c.HasUV()
	hasColor := c.HasColor()

	mi := &ninja.MeshInfo{Material: ctx.material, HasUV: hasUV}
	em := &exportMesh{Info: mi}
	set := ninja.NewVertexSet()
	for si, s := range c.Strips {
		poly := ninja.Poly{Kind: ninja.PolyStrip, Reversed: s.Reversed, Indexes: make([]uint16, len(s.Indexes))}
		for k, idx := range s.Indexes {
			if int(idx) >= len(buf) || !buf[idx].Defined {
				return nil, errors.Errorf("strip %d references undefined vertex %d", si, idx)
			}
			cv := &buf[idx]
			vd := ninja.VertexData{
				Position: cv.Position,
				Normal:   cv.Normal,
				Color:    cv.Color,
				HasColor: cv.HasColor,
			}
			if hasColor {
				vd.Color, vd.HasColor = s.VColors[k], true
			}
			if hasUV {
				vd.UV, vd.HasUV = s.UVs[k], true
			}
			if vd.HasColor {
				mi.HasVColor = true
			}

			var isNew bool
			poly.Indexes[k], isNew = set.Add(vd)
			if isNew {
				em.Weights = append(em.Weights, append([]boneWeight(nil), cv.Weights...))
			}
		}
		mi.Polys = append(mi.Polys, poly)
	}
	mi.Vertices = set.Vertices()
	return em, nil
}
