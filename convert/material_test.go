package convert

import (
	"image/color"
	"testing"

	"github.com/mogaika/ninja_converter/ninja"
	"github.com/mogaika/ninja_converter/scene"
)

func TestWrapMode(t *testing.T) {
	for _, tc := range []struct {
		clamp, flip bool
		mode        scene.WrapMode
	}{
		{false, false, scene.WrapModeWrap},
		{true, false, scene.WrapModeClamp},
		{false, true, scene.WrapModeMirror},
		{true, true, scene.WrapModeClamp},
	} {
		if got := WrapMode(tc.clamp, tc.flip); got != tc.mode {
			t.Errorf("WrapMode(%v, %v) = %v; expected %v", tc.clamp, tc.flip, got, tc.mode)
		}
	}
	for _, mode := range []scene.WrapMode{scene.WrapModeWrap, scene.WrapModeClamp, scene.WrapModeMirror} {
		if got := WrapMode(WrapFlags(mode)); got != mode {
			t.Errorf("%v became %v", mode, got)
		}
	}
}

func TestResolveTexture(t *testing.T) {
	textures := []string{"ground.pvr", `tex\SONIC.png`, "sonic.gvr", "eyes"}
	for _, tc := range []struct {
		name string
		id   int
	}{
		{"sonic.png", 1},
		{"C:/work/Sonic.BMP", 1},
		{"eyes.png", 3},
		{"EYES", 3},
		{"ground", 0},
		{"missing.png", 0},
		{"", 0},
	} {
		if got := ResolveTexture(textures, tc.name); got != tc.id {
			t.Errorf("ResolveTexture(%q) = %d; expected %d", tc.name, got, tc.id)
		}
	}
}

func TestGCTileModeRoundTrip(t *testing.T) {
	for _, tc := range []struct{ clampU, flipU, clampV, flipV bool }{
		{false, false, false, false},
		{true, false, true, false},
		{false, true, false, true},
		{true, false, false, true},
		{false, false, true, false},
	} {
		m := ninja.DefaultMaterial()
		m.ClampU, m.FlipU, m.ClampV, m.FlipV = tc.clampU, tc.flipU, tc.clampV, tc.flipV
		p := &ninja.GCTextureParameter{Tile: gcTileMode(m)}
		got := ninja.DefaultMaterial().Apply(p.Patch())
		if got.ClampU != m.ClampU || got.FlipU != m.FlipU || got.ClampV != m.ClampV || got.FlipV != m.FlipV {
			t.Errorf("%+v: tile 0x%x gives clamp %v/%v flip %v/%v", tc, p.Tile, got.ClampU, got.ClampV, got.FlipU, got.FlipV)
		}
	}
}

func TestMaterialSceneRoundTrip(t *testing.T) {
	textures := []string{"a.png", "b.png"}
	m := ninja.DefaultMaterial()
	m.DiffuseColor = color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	m.SpecularColor = color.NRGBA{R: 10, G: 20, B: 30, A: 255}
	m.Exponent = 16
	m.TextureID = 1
	m.ClampU = true
	m.FlipV = true

	sm := materialToScene(m, "mat", textures, false)
	if sm.TextureDiffuse == nil || sm.TextureDiffuse.FilePath != "b.png" {
		t.Fatalf("texture slot %+v; expected b.png", sm.TextureDiffuse)
	}
	if sm.TextureOpacity != nil {
		t.Error("opaque material has opacity slot")
	}

	got := materialFromScene(sm, textures)
	if got.DiffuseColor != m.DiffuseColor || got.SpecularColor != m.SpecularColor || got.Exponent != m.Exponent {
		t.Errorf("colors %v %v %v; expected %v %v %v",
			got.DiffuseColor, got.SpecularColor, got.Exponent, m.DiffuseColor, m.SpecularColor, m.Exponent)
	}
	if !got.UseTexture || got.TextureID != 1 || !got.ClampU || got.FlipU || got.ClampV || !got.FlipV {
		t.Errorf("texture state %+v", got)
	}

	if tr := materialToScene(m, "mat", textures, true); tr.TextureOpacity == nil {
		t.Error("translucent material misses opacity slot")
	}
	m.TextureID = 5
	if sm := materialToScene(m, "mat", textures, false); sm.TextureDiffuse != nil {
		t.Error("texture slot for out of range id")
	}
}

func TestMaterialNameFallback(t *testing.T) {
	sm := &scene.Material{Name: "B"}
	if id, ok := textureID(sm, []string{"a.png", "b.png"}); !ok || id != 1 {
		t.Errorf("texture id %d, %v; expected 1", id, ok)
	}
	if _, ok := textureID(sm, nil); ok {
		t.Error("texture bound without texture list")
	}
	if m := materialFromScene(nil, nil); m.UseTexture || m.DiffuseColor != white {
		t.Errorf("default material %+v", m)
	}
}
