package ninja

import (
	"image/color"

	"github.com/pkg/errors"
)

type PolyChunk interface {
	Type() ChunkType
	// Patch returns material fields this chunk sets when walked.
	Patch() MaterialPatch
}

type BlendAlphaChunk struct {
	SourceAlpha      AlphaInstruction
	DestinationAlpha AlphaInstruction
}

func (c *BlendAlphaChunk) Type() ChunkType { return ChunkBitsBlendAlpha }
func (c *BlendAlphaChunk) Patch() MaterialPatch {
	return MaterialPatch{SourceAlpha: ref(c.SourceAlpha), DestinationAlpha: ref(c.DestinationAlpha)}
}

type MipmapDAdjustChunk struct {
	MipmapDAdjust uint8
}

func (c *MipmapDAdjustChunk) Type() ChunkType { return ChunkBitsMipmapDAdjust }
func (c *MipmapDAdjustChunk) Patch() MaterialPatch {
	return MaterialPatch{MipmapDAdjust: ref(c.MipmapDAdjust)}
}

type SpecularExponentChunk struct {
	SpecularExponent uint8
}

func (c *SpecularExponentChunk) Type() ChunkType { return ChunkBitsSpecularExponent }
func (c *SpecularExponentChunk) Patch() MaterialPatch {
	return MaterialPatch{Exponent: ref(float32(c.SpecularExponent))}
}

// CachePolygonListChunk stores the remainder of the poly stream under List
// instead of drawing it.
type CachePolygonListChunk struct {
	List uint8
}

func (c *CachePolygonListChunk) Type() ChunkType { return ChunkBitsCachePolygonList }
func (c *CachePolygonListChunk) Patch() MaterialPatch { return MaterialPatch{} }

// DrawPolygonListChunk replays a previously cached poly stream.
type DrawPolygonListChunk struct {
	List uint8
}

func (c *DrawPolygonListChunk) Type() ChunkType { return ChunkBitsDrawPolygonList }
func (c *DrawPolygonListChunk) Patch() MaterialPatch { return MaterialPatch{} }

type TextureIDChunk struct {
	Second        bool
	MipmapDAdjust uint8
	ClampU        bool
	ClampV        bool
	FlipU         bool
	FlipV         bool
	TextureID     uint16
	SuperSample   bool
	FilterMode    FilterMode
}

func (c *TextureIDChunk) Type() ChunkType {
	if c.Second {
		return ChunkTinyTextureID2
	}
	return ChunkTinyTextureID
}

func (c *TextureIDChunk) Patch() MaterialPatch {
	return MaterialPatch{
		TextureID:     ref(int(c.TextureID)),
		UseTexture:    ref(true),
		MipmapDAdjust: ref(c.MipmapDAdjust),
		ClampU:        ref(c.ClampU),
		ClampV:        ref(c.ClampV),
		FlipU:         ref(c.FlipU),
		FlipV:         ref(c.FlipV),
		SuperSample:   ref(c.SuperSample),
		FilterMode:    ref(c.FilterMode),
	}
}

type MaterialChunk struct {
	Second           bool
	SourceAlpha      AlphaInstruction
	DestinationAlpha AlphaInstruction
	Diffuse          *color.NRGBA
	Ambient          *color.NRGBA
	Specular         *color.NRGBA
	SpecularExponent uint8
}

func (c *MaterialChunk) Type() ChunkType {
	t := ChunkMaterial
	if c.Diffuse != nil {
		t |= 1
	}
	if c.Ambient != nil {
		t |= 2
	}
	if c.Specular != nil {
		t |= 4
	}
	if c.Second {
		t += 8
	}
	return t
}

func (c *MaterialChunk) Patch() MaterialPatch {
	p := MaterialPatch{
		SourceAlpha:      ref(c.SourceAlpha),
		DestinationAlpha: ref(c.DestinationAlpha),
	}
	if c.Diffuse != nil {
		p.DiffuseColor = ref(*c.Diffuse)
	}
	if c.Ambient != nil {
		p.AmbientColor = ref(*c.Ambient)
	}
	if c.Specular != nil {
		p.SpecularColor = ref(*c.Specular)
		p.Exponent = ref(float32(c.SpecularExponent))
	}
	return p
}

type StripFlags uint8

const (
	StripIgnoreLight    StripFlags = 0x01
	StripIgnoreSpecular StripFlags = 0x02
	StripIgnoreAmbient  StripFlags = 0x04
	StripUseAlpha       StripFlags = 0x08
	StripDoubleSide     StripFlags = 0x10
	StripFlatShading    StripFlags = 0x20
	StripEnvMapping     StripFlags = 0x40
)

type UV struct {
	U, V float32
}

type Strip struct {
	Reversed bool
	Indexes  []uint16
	UVs      []UV          `json:",omitempty"`
	VColors  []color.NRGBA `json:",omitempty"`
}

// Triangles expands the strip into triangle list indices keeping the winding
// the strip encodes.
func (s *Strip) Triangles() []uint16 {
	return StripToTriangles(s.Indexes, s.Reversed)
}

// StripCorners returns, per emitted triangle corner, the position of the
// corner inside the strip. Used to pick per-corner UVs and colors.
func StripCorners(count int, reversed bool) []int {
	if count < 3 {
		return nil
	}
	result := make([]int, 0, (count-2)*3)
	flip := !reversed
	for k := 0; k < count-2; k++ {
		flip = !flip
		if !flip {
			result = append(result, k, k+1, k+2)
		} else {
			result = append(result, k+1, k, k+2)
		}
	}
	return result
}

func StripToTriangles(indexes []uint16, reversed bool) []uint16 {
	corners := StripCorners(len(indexes), reversed)
	result := make([]uint16, len(corners))
	for i, c := range corners {
		result[i] = indexes[c]
	}
	return result
}

type StripChunk struct {
	ChunkType ChunkType
	Flags     StripFlags
	Strips    []*Strip
}

func NewStripChunk(t ChunkType) *StripChunk {
	return &StripChunk{ChunkType: t}
}

func (c *StripChunk) Type() ChunkType { return c.ChunkType }

func (c *StripChunk) Patch() MaterialPatch {
	return MaterialPatch{
		IgnoreLighting: ref(c.Flags&StripIgnoreLight != 0),
		IgnoreSpecular: ref(c.Flags&StripIgnoreSpecular != 0),
		IgnoreAmbient:  ref(c.Flags&StripIgnoreAmbient != 0),
		UseAlpha:       ref(c.Flags&StripUseAlpha != 0),
		DoubleSided:    ref(c.Flags&StripDoubleSide != 0),
		FlatShading:    ref(c.Flags&StripFlatShading != 0),
		EnvironmentMap: ref(c.Flags&StripEnvMapping != 0),
	}
}

func (c *StripChunk) HasUV() bool {
	switch c.ChunkType {
	case ChunkStripUVN, ChunkStripUVH, ChunkStripUVNNormal, ChunkStripUVHNormal,
		ChunkStripUVNColor, ChunkStripUVHColor, ChunkStripUVN2, ChunkStripUVH2:
		return true
	}
	return false
}

// UVScale is the fixed point divisor of stored texture coordinates.
func (c *StripChunk) UVScale() float32 {
	switch c.ChunkType {
	case ChunkStripUVH, ChunkStripUVHNormal, ChunkStripUVHColor, ChunkStripUVH2:
		return 1023
	}
	return 255
}

func (c *StripChunk) HasColor() bool {
	switch c.ChunkType {
	case ChunkStripColor, ChunkStripUVNColor, ChunkStripUVHColor:
		return true
	}
	return false
}

// Shift moves every strip index by delta. Used when vertex cache placement
// is known only after the strips were built.
func (c *StripChunk) Shift(delta int) {
	for _, s := range c.Strips {
		for i := range s.Indexes {
			s.Indexes[i] = uint16(int(s.Indexes[i]) + delta)
		}
	}
}

func (c *StripChunk) Clone() *StripChunk {
	r := &StripChunk{ChunkType: c.ChunkType, Flags: c.Flags, Strips: make([]*Strip, len(c.Strips))}
	for i, s := range c.Strips {
		r.Strips[i] = &Strip{
			Reversed: s.Reversed,
			Indexes:  append([]uint16(nil), s.Indexes...),
			UVs:      append([]UV(nil), s.UVs...),
			VColors:  append([]color.NRGBA(nil), s.VColors...),
		}
	}
	return r
}

func (c *StripChunk) Validate() error {
	if !c.ChunkType.IsStrip() {
		return errors.Errorf("strip chunk has non strip type %v", c.ChunkType)
	}
	for i, s := range c.Strips {
		if c.HasUV() && len(s.UVs) != len(s.Indexes) {
			return errors.Errorf("strip %d: %d uvs for %d indexes", i, len(s.UVs), len(s.Indexes))
		}
		if c.HasColor() && len(s.VColors) != len(s.Indexes) {
			return errors.Errorf("strip %d: %d colors for %d indexes", i, len(s.VColors), len(s.Indexes))
		}
	}
	return nil
}

// ClonePolyChunks copies the mutable chunks of a poly stream.
func ClonePolyChunks(chunks []PolyChunk) []PolyChunk {
	result := make([]PolyChunk, len(chunks))
	for i, pc := range chunks {
		switch v := pc.(type) {
		case *StripChunk:
			result[i] = v.Clone()
		default:
			result[i] = pc
		}
	}
	return result
}
