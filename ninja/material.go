package ninja

import (
	"image/color"
)

type AlphaInstruction uint8

const (
	AlphaZero AlphaInstruction = iota
	AlphaOne
	AlphaOtherColor
	AlphaInverseOtherColor
	AlphaSourceAlpha
	AlphaInverseSourceAlpha
	AlphaDestinationAlpha
	AlphaInverseDestinationAlpha
)

type FilterMode uint8

const (
	FilterPoint FilterMode = iota
	FilterBilinear
	FilterTrilinear
	FilterReserved
)

// Material is the accumulated render state a poly chunk stream mutates while it is walked.
type Material struct {
	DiffuseColor  color.NRGBA
	AmbientColor  color.NRGBA
	SpecularColor color.NRGBA
	Exponent      float32

	TextureID     int
	UseTexture    bool
	UseAlpha      bool
	ClampU        bool
	ClampV        bool
	FlipU         bool
	FlipV         bool
	SuperSample   bool
	FilterMode    FilterMode
	MipmapDAdjust uint8

	EnvironmentMap bool
	DoubleSided    bool
	FlatShading    bool
	IgnoreLighting bool
	IgnoreSpecular bool
	IgnoreAmbient  bool

	SourceAlpha      AlphaInstruction
	DestinationAlpha AlphaInstruction
}

func DefaultMaterial() Material {
	return Material{
		DiffuseColor:     color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		SpecularColor:    color.NRGBA{R: 255, G: 255, B: 255, A: 0},
		Exponent:         11,
		UseTexture:       true,
		UseAlpha:         true,
		FilterMode:       FilterBilinear,
		SourceAlpha:      AlphaSourceAlpha,
		DestinationAlpha: AlphaInverseSourceAlpha,
	}
}

// MaterialPatch holds the subset of material fields one poly chunk sets.
// nil fields leave the material untouched.
type MaterialPatch struct {
	DiffuseColor  *color.NRGBA
	AmbientColor  *color.NRGBA
	SpecularColor *color.NRGBA
	Exponent      *float32

	TextureID     *int
	UseTexture    *bool
	UseAlpha      *bool
	ClampU        *bool
	ClampV        *bool
	FlipU         *bool
	FlipV         *bool
	SuperSample   *bool
	FilterMode    *FilterMode
	MipmapDAdjust *uint8

	EnvironmentMap *bool
	DoubleSided    *bool
	FlatShading    *bool
	IgnoreLighting *bool
	IgnoreSpecular *bool
	IgnoreAmbient  *bool

	SourceAlpha      *AlphaInstruction
	DestinationAlpha *AlphaInstruction
}

func (p MaterialPatch) Empty() bool {
	return p == MaterialPatch{}
}

// Apply returns a copy of m with the patch fields overlaid.
func (m Material) Apply(p MaterialPatch) Material {
	applyValue(&m.DiffuseColor, p.DiffuseColor)
	applyValue(&m.AmbientColor, p.AmbientColor)
	applyValue(&m.SpecularColor, p.SpecularColor)
	applyValue(&m.Exponent, p.Exponent)

	applyValue(&m.TextureID, p.TextureID)
	applyValue(&m.UseTexture, p.UseTexture)
	applyValue(&m.UseAlpha, p.UseAlpha)
	applyValue(&m.ClampU, p.ClampU)
	applyValue(&m.ClampV, p.ClampV)
	applyValue(&m.FlipU, p.FlipU)
	applyValue(&m.FlipV, p.FlipV)
	applyValue(&m.SuperSample, p.SuperSample)
	applyValue(&m.FilterMode, p.FilterMode)
	applyValue(&m.MipmapDAdjust, p.MipmapDAdjust)

	applyValue(&m.EnvironmentMap, p.EnvironmentMap)
	applyValue(&m.DoubleSided, p.DoubleSided)
	applyValue(&m.FlatShading, p.FlatShading)
	applyValue(&m.IgnoreLighting, p.IgnoreLighting)
	applyValue(&m.IgnoreSpecular, p.IgnoreSpecular)
	applyValue(&m.IgnoreAmbient, p.IgnoreAmbient)

	applyValue(&m.SourceAlpha, p.SourceAlpha)
	applyValue(&m.DestinationAlpha, p.DestinationAlpha)
	return m
}

func applyValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func ref[T any](v T) *T { return &v }
