package ninja

import "fmt"

type ChunkType uint8

const (
	ChunkNull ChunkType = 0

	ChunkBitsBlendAlpha       ChunkType = 1
	ChunkBitsMipmapDAdjust    ChunkType = 2
	ChunkBitsSpecularExponent ChunkType = 3
	ChunkBitsCachePolygonList ChunkType = 4
	ChunkBitsDrawPolygonList  ChunkType = 5

	ChunkTinyTextureID  ChunkType = 8
	ChunkTinyTextureID2 ChunkType = 9

	// material type bits: diffuse 1, ambient 2, specular 4
	ChunkMaterial                        ChunkType = 16
	ChunkMaterialDiffuse                 ChunkType = 17
	ChunkMaterialAmbient                 ChunkType = 18
	ChunkMaterialDiffuseAmbient          ChunkType = 19
	ChunkMaterialSpecular                ChunkType = 20
	ChunkMaterialDiffuseSpecular         ChunkType = 21
	ChunkMaterialAmbientSpecular         ChunkType = 22
	ChunkMaterialDiffuseAmbientSpecular  ChunkType = 23
	ChunkMaterialBump                    ChunkType = 24
	ChunkMaterialDiffuse2                ChunkType = 25
	ChunkMaterialDiffuseAmbientSpecular2 ChunkType = 31

	ChunkVertexSH                ChunkType = 32
	ChunkVertexNormalSH          ChunkType = 33
	ChunkVertex                  ChunkType = 34
	ChunkVertexDiffuse8          ChunkType = 35
	ChunkVertexUserFlags         ChunkType = 36
	ChunkVertexNinjaFlags        ChunkType = 37
	ChunkVertexDiffuseSpecular5  ChunkType = 38
	ChunkVertexDiffuseSpecular4  ChunkType = 39
	ChunkVertexDiffuseSpecular16 ChunkType = 40
	ChunkVertexNormal            ChunkType = 41
	ChunkVertexNormalDiffuse8    ChunkType = 42
	ChunkVertexNormalUserFlags   ChunkType = 43
	ChunkVertexNormalNinjaFlags  ChunkType = 44

	ChunkStrip          ChunkType = 64
	ChunkStripUVN       ChunkType = 65
	ChunkStripUVH       ChunkType = 66
	ChunkStripNormal    ChunkType = 67
	ChunkStripUVNNormal ChunkType = 68
	ChunkStripUVHNormal ChunkType = 69
	ChunkStripColor     ChunkType = 70
	ChunkStripUVNColor  ChunkType = 71
	ChunkStripUVHColor  ChunkType = 72
	ChunkStrip2         ChunkType = 73
	ChunkStripUVN2      ChunkType = 74
	ChunkStripUVH2      ChunkType = 75

	ChunkEnd ChunkType = 255
)

func (t ChunkType) IsBits() bool { return t >= ChunkBitsBlendAlpha && t <= ChunkBitsDrawPolygonList }
func (t ChunkType) IsTiny() bool { return t == ChunkTinyTextureID || t == ChunkTinyTextureID2 }
func (t ChunkType) IsMaterial() bool { return t >= ChunkMaterialDiffuse && t <= ChunkMaterialDiffuseAmbientSpecular2 }
func (t ChunkType) IsVertex() bool { return t >= ChunkVertexSH && t <= ChunkVertexNormalNinjaFlags }
func (t ChunkType) IsStrip() bool { return t >= ChunkStrip && t <= ChunkStripUVH2 }

func (t ChunkType) String() string {
	switch {
	case t == ChunkNull:
		return "Null"
	case t == ChunkEnd:
		return "End"
	case t.IsBits():
		return fmt.Sprintf("Bits(%d)", t)
	case t.IsTiny():
		return fmt.Sprintf("Tiny(%d)", t)
	case t.IsMaterial():
		return fmt.Sprintf("Material(%d)", t)
	case t.IsVertex():
		return fmt.Sprintf("Vertex(%d)", t)
	case t.IsStrip():
		return fmt.Sprintf("Strip(%d)", t)
	}
	return fmt.Sprintf("Unknown(%d)", t)
}

// Position of a vertex batch inside one bone's ordered contribution sequence.
type WeightStatus uint8

const (
	WeightStart WeightStatus = iota
	WeightMiddle
	WeightEnd
)

func (ws WeightStatus) String() string {
	switch ws {
	case WeightStart:
		return "Start"
	case WeightMiddle:
		return "Middle"
	case WeightEnd:
		return "End"
	}
	return fmt.Sprintf("WeightStatus(%d)", ws)
}
