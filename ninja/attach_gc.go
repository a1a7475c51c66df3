package ninja

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type GXVertexAttribute uint8

const (
	GXPositionMatrixID GXVertexAttribute = 0
	GXPosition         GXVertexAttribute = 9
	GXNormal           GXVertexAttribute = 10
	GXColor0           GXVertexAttribute = 11
	GXColor1           GXVertexAttribute = 12
	GXTex0             GXVertexAttribute = 13
)

type GXPrimitiveType uint8

const (
	GXTriangles     GXPrimitiveType = 0x90
	GXTriangleStrip GXPrimitiveType = 0x98
	GXTriangleFan   GXPrimitiveType = 0xA0
	GXLines         GXPrimitiveType = 0xA8
	GXLineStrip     GXPrimitiveType = 0xB0
	GXPoints        GXPrimitiveType = 0xB8
)

type GXTexGenSrc uint8

const (
	GXTexGenPosition GXTexGenSrc = 0
	GXTexGenNormal   GXTexGenSrc = 1
	GXTexGenTex0     GXTexGenSrc = 4
)

type GCIndexAttributeFlags uint16

const (
	GCIndexPosition16  GCIndexAttributeFlags = 0x0004
	GCIndexHasPosition GCIndexAttributeFlags = 0x0008
	GCIndexNormal16    GCIndexAttributeFlags = 0x0010
	GCIndexHasNormal   GCIndexAttributeFlags = 0x0020
	GCIndexColor16     GCIndexAttributeFlags = 0x0040
	GCIndexHasColor    GCIndexAttributeFlags = 0x0080
	GCIndexUV16        GCIndexAttributeFlags = 0x0400
	GCIndexHasUV       GCIndexAttributeFlags = 0x0800
)

type GCTileMode uint8

const (
	GCTileWrapV   GCTileMode = 0x01
	GCTileWrapU   GCTileMode = 0x02
	GCTileMirrorV GCTileMode = 0x04
	GCTileMirrorU GCTileMode = 0x08
	GCTileUnk1    GCTileMode = 0x10
)

type GCParameterType uint8

const (
	GCParamVtxAttrFmt     GCParameterType = 0
	GCParamIndexAttribute GCParameterType = 1
	GCParamLighting       GCParameterType = 2
	GCParamBlendAlpha     GCParameterType = 4
	GCParamAmbientColor   GCParameterType = 5
	GCParamTexture        GCParameterType = 8
	GCParamTexCoordGen    GCParameterType = 10
)

type GCParameter interface {
	ParameterType() GCParameterType
}

type GCVtxAttrFmtParameter struct {
	Attribute GXVertexAttribute
	Unknown   uint16
}

type GCIndexAttributeParameter struct {
	Flags GCIndexAttributeFlags
}

type GCLightingParameter struct {
	LightingFlags uint16
	ShadowStencil uint16
}

type GCBlendAlphaParameter struct {
	SourceAlpha      AlphaInstruction
	DestinationAlpha AlphaInstruction
}

type GCAmbientColorParameter struct {
	Color color.NRGBA
}

type GCTextureParameter struct {
	TextureID uint16
	Tile      GCTileMode
}

type GCTexCoordGenParameter struct {
	TexCoordID uint8
	TexGenType uint8
	TexGenSrc  GXTexGenSrc
	MatrixID   uint8
}

func (*GCVtxAttrFmtParameter) ParameterType() GCParameterType { return GCParamVtxAttrFmt }
func (*GCIndexAttributeParameter) ParameterType() GCParameterType { return GCParamIndexAttribute }
func (*GCLightingParameter) ParameterType() GCParameterType { return GCParamLighting }
func (*GCBlendAlphaParameter) ParameterType() GCParameterType { return GCParamBlendAlpha }
func (*GCAmbientColorParameter) ParameterType() GCParameterType { return GCParamAmbientColor }
func (*GCTextureParameter) ParameterType() GCParameterType { return GCParamTexture }
func (*GCTexCoordGenParameter) ParameterType() GCParameterType { return GCParamTexCoordGen }

// Patch converts render state parameters into a material change.
func (p *GCTextureParameter) Patch() MaterialPatch {
	mirrorU := p.Tile&GCTileMirrorU != 0
	mirrorV := p.Tile&GCTileMirrorV != 0
	return MaterialPatch{
		UseTexture: ref(true),
		TextureID:  ref(int(p.TextureID)),
		FlipU:      ref(mirrorU),
		FlipV:      ref(mirrorV),
		ClampU:     ref(!mirrorU && p.Tile&GCTileWrapU == 0),
		ClampV:     ref(!mirrorV && p.Tile&GCTileWrapV == 0),
	}
}

func (p *GCTexCoordGenParameter) Patch() MaterialPatch {
	return MaterialPatch{EnvironmentMap: ref(p.TexGenSrc == GXTexGenNormal)}
}

func (p *GCBlendAlphaParameter) Patch() MaterialPatch {
	return MaterialPatch{SourceAlpha: ref(p.SourceAlpha), DestinationAlpha: ref(p.DestinationAlpha)}
}

type GCVertex struct {
	Position uint32
	Normal   uint32
	Color0   uint32
	UV       uint32
}

type GCPrimitive struct {
	Type     GXPrimitiveType
	Vertices []GCVertex
}

// Triangles expands the primitive into triangle list corners.
func (p *GCPrimitive) Triangles() ([]GCVertex, error) {
	v := p.Vertices
	switch p.Type {
	case GXTriangles:
		if len(v)%3 != 0 {
			return nil, errors.Errorf("triangle primitive with %d vertices", len(v))
		}
		return append([]GCVertex(nil), v...), nil
	case GXTriangleStrip:
		var result []GCVertex
		for k := 0; k+2 < len(v); k++ {
			if k%2 == 0 {
				result = append(result, v[k], v[k+1], v[k+2])
			} else {
				result = append(result, v[k+1], v[k], v[k+2])
			}
		}
		return result, nil
	case GXTriangleFan:
		var result []GCVertex
		for k := 1; k+1 < len(v); k++ {
			result = append(result, v[0], v[k], v[k+1])
		}
		return result, nil
	}
	return nil, errors.Errorf("primitive type 0x%x does not produce triangles", uint8(p.Type))
}

type GCMesh struct {
	Parameters []GCParameter
	Primitives []*GCPrimitive
}

// component data types of GCVertexAttributeFormat
const (
	GXDataUint8   uint8 = 0
	GXDataInt8    uint8 = 1
	GXDataUint16  uint8 = 2
	GXDataInt16   uint8 = 3
	GXDataFloat32 uint8 = 4

	GXColorRGB565 uint8 = 0
	GXColorRGB8   uint8 = 1
	GXColorRGBX8  uint8 = 2
	GXColorRGBA4  uint8 = 3
	GXColorRGBA6  uint8 = 4
	GXColorRGBA8  uint8 = 5
)

// component counts of GCVertexAttributeFormat
const (
	GXPositionXY  uint8 = 0
	GXPositionXYZ uint8 = 1
	GXNormalXYZ   uint8 = 0
	GXColorRGB    uint8 = 0
	GXColorRGBA   uint8 = 1
	GXTexS        uint8 = 0
	GXTexST       uint8 = 1
)

type GCVertexAttributeFormat struct {
	Attribute      GXVertexAttribute
	ComponentCount uint8
	DataType       uint8
	FractionalBits uint8
}

type GCVertexData struct {
	Attributes []GCVertexAttributeFormat
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3  `json:",omitempty"`
	Colors     []color.NRGBA `json:",omitempty"`
	TexCoords  []mgl32.Vec2  `json:",omitempty"`
}

func (vd *GCVertexData) HasAttribute(a GXVertexAttribute) bool {
	for _, f := range vd.Attributes {
		if f.Attribute == a {
			return true
		}
	}
	return false
}

func (vd *GCVertexData) AddAttribute(f GCVertexAttributeFormat) {
	if !vd.HasAttribute(f.Attribute) {
		vd.Attributes = append(vd.Attributes, f)
	}
}

type GCAttach struct {
	Name              string
	VertexData        GCVertexData
	OpaqueMeshes      []*GCMesh
	TranslucentMeshes []*GCMesh
	Bounds            BoundingSphere
}

func NewGCAttach(name string) *GCAttach {
	return &GCAttach{Name: name}
}

func (ga *GCAttach) Kind() AttachKind { return AttachGC }
func (ga *GCAttach) Label() string { return ga.Name }
func (ga *GCAttach) BoundingSphere() BoundingSphere { return ga.Bounds }

func (ga *GCAttach) Validate() error {
	vd := &ga.VertexData
	for _, meshes := range [][]*GCMesh{ga.OpaqueMeshes, ga.TranslucentMeshes} {
		for mi, m := range meshes {
			for _, p := range m.Primitives {
				for _, v := range p.Vertices {
					if int(v.Position) >= len(vd.Positions) {
						return errors.Errorf("attach %q mesh %d: position index %d out of range", ga.Name, mi, v.Position)
					}
					if len(vd.Normals) != 0 && int(v.Normal) >= len(vd.Normals) {
						return errors.Errorf("attach %q mesh %d: normal index %d out of range", ga.Name, mi, v.Normal)
					}
					if len(vd.Colors) != 0 && int(v.Color0) >= len(vd.Colors) {
						return errors.Errorf("attach %q mesh %d: color index %d out of range", ga.Name, mi, v.Color0)
					}
					if len(vd.TexCoords) != 0 && int(v.UV) >= len(vd.TexCoords) {
						return errors.Errorf("attach %q mesh %d: uv index %d out of range", ga.Name, mi, v.UV)
					}
				}
			}
		}
	}
	return nil
}
