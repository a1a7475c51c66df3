package convert

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

// vertex attribute format words written by the stock exporters
const (
	gcVtxFmtPosition = 5120
	gcVtxFmtNormal   = 9216
	gcVtxFmtColor    = 27136
	gcVtxFmtTex      = 33544

	gcLightingNormal = 0x211
	gcLightingColor  = 0xB11
)

var (
	gcPositionFormat = ninja.GCVertexAttributeFormat{
		Attribute: ninja.GXPosition, ComponentCount: ninja.GXPositionXYZ, DataType: ninja.GXDataFloat32, FractionalBits: 12}
	gcNormalFormat = ninja.GCVertexAttributeFormat{
		Attribute: ninja.GXNormal, ComponentCount: ninja.GXNormalXYZ, DataType: ninja.GXDataFloat32, FractionalBits: 12}
	gcColorFormat = ninja.GCVertexAttributeFormat{
		Attribute: ninja.GXColor0, ComponentCount: ninja.GXColorRGBA, DataType: ninja.GXColorRGBA8, FractionalBits: 4}
	gcTexFormat = ninja.GCVertexAttributeFormat{
		Attribute: ninja.GXTex0, ComponentCount: ninja.GXTexST, DataType: ninja.GXDataInt16, FractionalBits: 4}
)

// importGC stores node meshes in shared vertex lists, one triangle primitive
// per mesh. Meshes with an opacity texture are drawn translucent.
func (ctx *context) importGC(sc *scene.Scene, meshes []*scene.Mesh) (*ninja.GCAttach, error) {
	attach := ninja.NewGCAttach(ctx.names.Identifier("attach"))
	vd := &attach.VertexData
	vd.AddAttribute(gcPositionFormat)

	for _, m := range meshes {
		posStart := len(vd.Positions)
		if posStart+m.VertexCount() > math.MaxUint16+1 {
			return nil, errors.Errorf("mesh %q: more than %d positions in one attach", m.Name, math.MaxUint16+1)
		}
		vd.Positions = append(vd.Positions, m.Vertices...)

		flags := ninja.GCIndexHasPosition | ninja.GCIndexPosition16
		params := []ninja.GCParameter{}
		vtxFmt := []ninja.GCParameter{&ninja.GCVtxAttrFmtParameter{Attribute: ninja.GXPosition, Unknown: gcVtxFmtPosition}}
		lighting := &ninja.GCLightingParameter{LightingFlags: gcLightingNormal, ShadowStencil: 1}

		colorStart, normalStart, uvStart := len(vd.Colors), len(vd.Normals), len(vd.TexCoords)
		useColor := m.HasVertexColors()
		useNormal := !useColor && m.HasNormals()
		if useColor {
			for _, c := range m.Colors {
				vd.Colors = append(vd.Colors, sceneColor(c))
			}
			vd.AddAttribute(gcColorFormat)
			flags |= ninja.GCIndexHasColor | ninja.GCIndexColor16
			vtxFmt = append(vtxFmt, &ninja.GCVtxAttrFmtParameter{Attribute: ninja.GXColor0, Unknown: gcVtxFmtColor})
			lighting.LightingFlags = gcLightingColor
		} else if useNormal {
			vd.Normals = append(vd.Normals, m.Normals...)
			vd.AddAttribute(gcNormalFormat)
			flags |= ninja.GCIndexHasNormal | ninja.GCIndexNormal16
			vtxFmt = append(vtxFmt, &ninja.GCVtxAttrFmtParameter{Attribute: ninja.GXNormal, Unknown: gcVtxFmtNormal})
		}
		if m.HasTextureCoords() {
			for _, tc := range m.TextureCoords {
				vd.TexCoords = append(vd.TexCoords, mgl32.Vec2{tc[0], tc[1]})
			}
			vd.AddAttribute(gcTexFormat)
			flags |= ninja.GCIndexHasUV | ninja.GCIndexUV16
			vtxFmt = append(vtxFmt, &ninja.GCVtxAttrFmtParameter{Attribute: ninja.GXTex0, Unknown: gcVtxFmtTex})
		}

		params = append(params, &ninja.GCIndexAttributeParameter{Flags: flags})
		params = append(params, vtxFmt...)
		params = append(params, lighting)
		sm := sceneMaterial(sc, m.MaterialIndex)
		if id, ok := textureID(sm, ctx.textures); ok {
			mat := materialFromScene(sm, ctx.textures)
			params = append(params, &ninja.GCTextureParameter{TextureID: uint16(id), Tile: gcTileMode(mat)})
		}

		prim := &ninja.GCPrimitive{Type: ninja.GXTriangles}
		for _, f := range m.Faces {
			for _, idx := range [3]int{f[2], f[1], f[0]} {
				v := ninja.GCVertex{Position: uint32(posStart + idx)}
				if useColor {
					v.Color0 = uint32(colorStart + idx)
				}
				if useNormal {
					v.Normal = uint32(normalStart + idx)
				}
				if m.HasTextureCoords() {
					v.UV = uint32(uvStart + idx)
				}
				prim.Vertices = append(prim.Vertices, v)
			}
		}

		gm := &ninja.GCMesh{Parameters: params, Primitives: []*ninja.GCPrimitive{prim}}
		if sm != nil && sm.TextureOpacity != nil {
			attach.TranslucentMeshes = append(attach.TranslucentMeshes, gm)
		} else {
			attach.OpaqueMeshes = append(attach.OpaqueMeshes, gm)
		}
	}

	attach.Bounds = ninja.BoundingSphereFromPoints(vd.Positions)
	if err := attach.Validate(); err != nil {
		return nil, err
	}
	return attach, nil
}
