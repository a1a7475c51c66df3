package convert

import (
	"image/color"
	"path"
	"strings"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
	"github.com/mogaika/ninja_converter/utils"
)

func WrapMode(clamp, flip bool) scene.WrapMode {
	switch {
	case clamp:
		return scene.WrapModeClamp
	case flip:
		return scene.WrapModeMirror
	default:
		return scene.WrapModeWrap
	}
}

func WrapFlags(w scene.WrapMode) (clamp, flip bool) {
	return w == scene.WrapModeClamp, w == scene.WrapModeMirror
}

func texturePathBase(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}

func textureBaseName(p string) string {
	base := texturePathBase(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ResolveTexture returns index of the first texture whose base name matches
// name ignoring case, directory and extension. Unknown names resolve to 0.
func ResolveTexture(textures []string, name string) int {
	want := textureBaseName(name)
	for i, t := range textures {
		if strings.EqualFold(textureBaseName(t), want) {
			return i
		}
	}
	return 0
}

func textureSlotPath(textures []string, id int) (string, bool) {
	if id < 0 || id >= len(textures) {
		return "", false
	}
	return texturePathBase(textures[id]), true
}

// materialToScene describes a native material for the scene. opacity adds a
// second slot with the diffuse texture used as alpha.
func materialToScene(m ninja.Material, name string, textures []string, opacity bool) *scene.Material {
	diffuse := scene.Color4(utils.ColorFloatFromNRGBA(m.DiffuseColor))
	specular := scene.Color4(utils.ColorFloatFromNRGBA(m.SpecularColor))
	sm := &scene.Material{
		Name:          name,
		ColorDiffuse:  &diffuse,
		ColorSpecular: &specular,
		Shininess:     m.Exponent,
	}
	if !m.UseTexture {
		return sm
	}
	if texPath, ok := textureSlotPath(textures, m.TextureID); ok {
		slot := &scene.TextureSlot{
			FilePath: texPath,
			WrapU:    WrapMode(m.ClampU, m.FlipU),
			WrapV:    WrapMode(m.ClampV, m.FlipV),
		}
		sm.TextureDiffuse = slot
		if opacity {
			alpha := *slot
			sm.TextureOpacity = &alpha
		}
	}
	return sm
}

// materialFromScene fills native material fields the scene material defines.
func materialFromScene(sm *scene.Material, textures []string) ninja.Material {
	m := ninja.DefaultMaterial()
	m.UseTexture = false
	if sm == nil {
		return m
	}
	if sm.ColorDiffuse != nil {
		m.DiffuseColor = utils.ColorFloat(*sm.ColorDiffuse).NRGBA()
	}
	if sm.ColorSpecular != nil {
		m.SpecularColor = utils.ColorFloat(*sm.ColorSpecular).NRGBA()
	}
	if sm.Shininess != 0 {
		m.Exponent = sm.Shininess
	}
	if id, ok := textureID(sm, textures); ok {
		m.UseTexture = true
		m.TextureID = id
	}
	if sm.HasTextureDiffuse() {
		m.UseTexture = true
		m.ClampU, m.FlipU = WrapFlags(sm.TextureDiffuse.WrapU)
		m.ClampV, m.FlipV = WrapFlags(sm.TextureDiffuse.WrapV)
	}
	return m
}

// textureID resolves texture of a scene material. Without a diffuse texture
// the material name is matched instead.
func textureID(sm *scene.Material, textures []string) (int, bool) {
	if sm == nil || len(textures) == 0 {
		return 0, false
	}
	if sm.HasTextureDiffuse() {
		return ResolveTexture(textures, sm.TextureDiffuse.FilePath), true
	}
	return ResolveTexture(textures, sm.Name), true
}

func materialChunk(m ninja.Material) *ninja.MaterialChunk {
	diffuse := m.DiffuseColor
	specular := m.SpecularColor
	specular.A = 255
	exponent := m.Exponent
	if exponent < 0 {
		exponent = 0
	} else if exponent > 255 {
		exponent = 255
	}
	return &ninja.MaterialChunk{
		SourceAlpha:      m.SourceAlpha,
		DestinationAlpha: m.DestinationAlpha,
		Diffuse:          &diffuse,
		Specular:         &specular,
		SpecularExponent: uint8(exponent),
	}
}

func textureIDChunk(m ninja.Material) *ninja.TextureIDChunk {
	return &ninja.TextureIDChunk{
		TextureID:     uint16(m.TextureID),
		ClampU:        m.ClampU,
		ClampV:        m.ClampV,
		FlipU:         m.FlipU,
		FlipV:         m.FlipV,
		FilterMode:    m.FilterMode,
		MipmapDAdjust: m.MipmapDAdjust,
		SuperSample:   m.SuperSample,
	}
}

func gcTileMode(m ninja.Material) ninja.GCTileMode {
	var tile ninja.GCTileMode
	switch {
	case m.FlipU:
		tile |= ninja.GCTileMirrorU
	case !m.ClampU:
		tile |= ninja.GCTileWrapU
	}
	switch {
	case m.FlipV:
		tile |= ninja.GCTileMirrorV
	case !m.ClampV:
		tile |= ninja.GCTileWrapV
	}
	return tile
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
