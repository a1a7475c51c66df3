package ninja

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/utils"
)

// Chunk streams are little endian. Every chunk starts with type and flags
// bytes. Vertex chunks continue with a size in 4 byte words, material and
// strip chunks with a size in 2 byte words, tiny chunks with a data word.

var ErrMalformedChunks = errors.New("malformed chunk stream")

func writeColor(bw *utils.BufWriter, c color.NRGBA) {
	bw.WriteU8(c.B)
	bw.WriteU8(c.G)
	bw.WriteU8(c.R)
	bw.WriteU8(c.A)
}

func readColor(bs *utils.BufStack) color.NRGBA {
	b := bs.Read(4)
	return color.NRGBA{B: b[0], G: b[1], R: b[2], A: b[3]}
}

func writeVec3(bw *utils.BufWriter, v mgl32.Vec3) {
	bw.WriteLF(v[0])
	bw.WriteLF(v[1])
	bw.WriteLF(v[2])
}

func readVec3(bs *utils.BufStack) mgl32.Vec3 {
	return mgl32.Vec3{bs.ReadLF(), bs.ReadLF(), bs.ReadLF()}
}

func vertexStride(t ChunkType) (int, error) {
	switch t {
	case ChunkVertexSH:
		return 16, nil
	case ChunkVertexNormalSH:
		return 32, nil
	case ChunkVertex:
		return 12, nil
	case ChunkVertexDiffuse8, ChunkVertexNinjaFlags:
		return 16, nil
	case ChunkVertexNormal:
		return 24, nil
	case ChunkVertexNormalDiffuse8, ChunkVertexNormalNinjaFlags:
		return 28, nil
	}
	return 0, errors.Errorf("vertex chunk type %v is not supported", t)
}

func EncodeVertexChunks(chunks []*VertexChunk) ([]byte, error) {
	bw := utils.NewBufWriter()
	for i, vc := range chunks {
		if err := vc.Validate(); err != nil {
			return nil, errors.Wrapf(err, "vertex chunk %d", i)
		}
		stride, err := vertexStride(vc.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex chunk %d", i)
		}
		words := (4 + stride*len(vc.Vertices)) / 4
		if words > math.MaxUint16 {
			return nil, errors.Errorf("vertex chunk %d: too many vertices (%d)", i, len(vc.Vertices))
		}

		bw.WriteU8(uint8(vc.Type))
		bw.WriteU8(uint8(vc.WeightStatus) & 3)
		bw.WriteLU16(uint16(words))
		bw.WriteLU16(vc.IndexOffset)
		bw.WriteLU16(uint16(len(vc.Vertices)))

		for j, v := range vc.Vertices {
			writeVec3(bw, v)
			if vc.Type == ChunkVertexSH || vc.Type == ChunkVertexNormalSH {
				bw.WriteLF(1)
			}
			if vc.HasNormals() {
				writeVec3(bw, vc.Normals[j])
				if vc.Type == ChunkVertexNormalSH {
					bw.WriteLF(0)
				}
			}
			if vc.HasDiffuse() {
				writeColor(bw, vc.Diffuse[j])
			}
			if vc.HasWeight() {
				bw.WriteLU32(vc.NinjaFlags[j])
			}
		}
	}
	bw.WriteU8(uint8(ChunkEnd))
	bw.WriteU8(0)
	bw.WriteLU16(0)
	return bw.Bytes(), nil
}

func DecodeVertexChunks(b []byte) ([]*VertexChunk, error) {
	return DecodeVertexChunksBuf(utils.NewBufStack("vertex", b))
}

// DecodeVertexChunksBuf reads chunks registering each as a child of bs.
func DecodeVertexChunksBuf(bs *utils.BufStack) ([]*VertexChunk, error) {
	var result []*VertexChunk
	for {
		if err := bs.Need(4); err != nil {
			return nil, errors.Wrap(ErrMalformedChunks, err.Error())
		}
		start := bs.Pos()
		t := ChunkType(bs.ReadU8())
		flags := bs.ReadU8()
		words := int(bs.ReadLU16())
		if t == ChunkEnd {
			return result, nil
		}
		if t == ChunkNull {
			continue
		}

		sub := bs.SubBuf("vertexchunk", start).SetName(t.String()).SetSize(4 + words*4)
		stride, err := vertexStride(t)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedChunks, "at 0x%x: %v", start, err)
		}
		if err := bs.Need(words * 4); err != nil || words == 0 {
			return nil, errors.Wrapf(ErrMalformedChunks, "vertex chunk at 0x%x: size %d words", start, words)
		}

		vc := NewVertexChunk(t)
		vc.WeightStatus = WeightStatus(flags & 3)
		sub.SetPos(4)
		vc.IndexOffset = sub.ReadLU16()
		count := int(sub.ReadLU16())
		if 4+count*stride > words*4 {
			return nil, errors.Wrapf(ErrMalformedChunks, "vertex chunk at 0x%x: %d vertices do not fit %d words", start, count, words)
		}
		for j := 0; j < count; j++ {
			vc.Vertices = append(vc.Vertices, readVec3(sub))
			if t == ChunkVertexSH || t == ChunkVertexNormalSH {
				sub.Skip(4)
			}
			if vc.HasNormals() {
				vc.Normals = append(vc.Normals, readVec3(sub))
				if t == ChunkVertexNormalSH {
					sub.Skip(4)
				}
			}
			if vc.HasDiffuse() {
				vc.Diffuse = append(vc.Diffuse, readColor(sub))
			}
			if vc.HasWeight() {
				vc.NinjaFlags = append(vc.NinjaFlags, sub.ReadLU32())
			}
		}
		bs.SetPos(start + 4 + words*4)
		result = append(result, vc)
	}
}

func encodeUV(v float32, scale float32) int16 {
	f := math.Round(float64(v * scale))
	if f > math.MaxInt16 {
		f = math.MaxInt16
	} else if f < math.MinInt16 {
		f = math.MinInt16
	}
	return int16(f)
}

func EncodePolyChunks(chunks []PolyChunk) ([]byte, error) {
	bw := utils.NewBufWriter()
	for i, pc := range chunks {
		t := pc.Type()
		bw.WriteU8(uint8(t))
		switch c := pc.(type) {
		case *BlendAlphaChunk:
			bw.WriteU8(uint8(c.SourceAlpha&7)<<3 | uint8(c.DestinationAlpha&7))
		case *MipmapDAdjustChunk:
			bw.WriteU8(c.MipmapDAdjust & 0xf)
		case *SpecularExponentChunk:
			bw.WriteU8(c.SpecularExponent & 0x1f)
		case *CachePolygonListChunk:
			bw.WriteU8(c.List)
		case *DrawPolygonListChunk:
			bw.WriteU8(c.List)
		case *TextureIDChunk:
			flags := c.MipmapDAdjust & 0xf
			if c.ClampV {
				flags |= 0x10
			}
			if c.ClampU {
				flags |= 0x20
			}
			if c.FlipV {
				flags |= 0x40
			}
			if c.FlipU {
				flags |= 0x80
			}
			data := c.TextureID & 0x1fff
			if c.SuperSample {
				data |= 0x2000
			}
			data |= uint16(c.FilterMode&3) << 14
			bw.WriteU8(flags)
			bw.WriteLU16(data)
		case *MaterialChunk:
			bw.WriteU8(uint8(c.SourceAlpha&7)<<3 | uint8(c.DestinationAlpha&7))
			sizePos := bw.Len()
			bw.WriteLU16(0)
			if c.Diffuse != nil {
				writeColor(bw, *c.Diffuse)
			}
			if c.Ambient != nil {
				writeColor(bw, *c.Ambient)
			}
			if c.Specular != nil {
				spec := *c.Specular
				spec.A = c.SpecularExponent
				writeColor(bw, spec)
			}
			bw.PutLU16(sizePos, uint16((bw.Len()-sizePos-2)/2))
		case *StripChunk:
			if err := c.Validate(); err != nil {
				return nil, errors.Wrapf(err, "poly chunk %d", i)
			}
			if len(c.Strips) > 0x3fff {
				return nil, errors.Errorf("poly chunk %d: too many strips (%d)", i, len(c.Strips))
			}
			bw.WriteU8(uint8(c.Flags))
			sizePos := bw.Len()
			bw.WriteLU16(0)
			bw.WriteLU16(uint16(len(c.Strips)))
			scale := c.UVScale()
			for si, s := range c.Strips {
				if len(s.Indexes) > math.MaxInt16 {
					return nil, errors.Errorf("poly chunk %d strip %d: too long (%d)", i, si, len(s.Indexes))
				}
				n := int16(len(s.Indexes))
				if s.Reversed {
					n = -n
				}
				bw.WriteLS16(n)
				for k, idx := range s.Indexes {
					bw.WriteLU16(idx)
					if c.HasUV() {
						bw.WriteLS16(encodeUV(s.UVs[k].U, scale))
						bw.WriteLS16(encodeUV(s.UVs[k].V, scale))
					}
					if c.HasColor() {
						writeColor(bw, s.VColors[k])
					}
				}
			}
			size := (bw.Len() - sizePos - 2) / 2
			if size > math.MaxUint16 {
				return nil, errors.Errorf("poly chunk %d: strip data too large", i)
			}
			bw.PutLU16(sizePos, uint16(size))
		default:
			return nil, errors.Errorf("poly chunk %d: type %v is not supported", i, t)
		}
	}
	bw.WriteU8(uint8(ChunkEnd))
	bw.WriteU8(0)
	return bw.Bytes(), nil
}

func DecodePolyChunks(b []byte) ([]PolyChunk, error) {
	return DecodePolyChunksBuf(utils.NewBufStack("poly", b))
}

func DecodePolyChunksBuf(bs *utils.BufStack) ([]PolyChunk, error) {
	var result []PolyChunk
	for {
		if err := bs.Need(2); err != nil {
			return nil, errors.Wrap(ErrMalformedChunks, err.Error())
		}
		start := bs.Pos()
		t := ChunkType(bs.ReadU8())
		flags := bs.ReadU8()

		switch {
		case t == ChunkEnd:
			return result, nil
		case t == ChunkNull:
			continue
		case t.IsBits():
			bs.SubBuf("polychunk", start).SetName(t.String()).SetSize(2)
			switch t {
			case ChunkBitsBlendAlpha:
				result = append(result, &BlendAlphaChunk{
					SourceAlpha:      AlphaInstruction((flags >> 3) & 7),
					DestinationAlpha: AlphaInstruction(flags & 7),
				})
			case ChunkBitsMipmapDAdjust:
				result = append(result, &MipmapDAdjustChunk{MipmapDAdjust: flags & 0xf})
			case ChunkBitsSpecularExponent:
				result = append(result, &SpecularExponentChunk{SpecularExponent: flags & 0x1f})
			case ChunkBitsCachePolygonList:
				result = append(result, &CachePolygonListChunk{List: flags})
			case ChunkBitsDrawPolygonList:
				result = append(result, &DrawPolygonListChunk{List: flags})
			}
		case t.IsTiny():
			if err := bs.Need(2); err != nil {
				return nil, errors.Wrap(ErrMalformedChunks, err.Error())
			}
			bs.SubBuf("polychunk", start).SetName(t.String()).SetSize(4)
			data := bs.ReadLU16()
			result = append(result, &TextureIDChunk{
				Second:        t == ChunkTinyTextureID2,
				MipmapDAdjust: flags & 0xf,
				ClampV:        flags&0x10 != 0,
				ClampU:        flags&0x20 != 0,
				FlipV:         flags&0x40 != 0,
				FlipU:         flags&0x80 != 0,
				TextureID:     data & 0x1fff,
				SuperSample:   data&0x2000 != 0,
				FilterMode:    FilterMode(data >> 14),
			})
		case t.IsMaterial() || t.IsStrip():
			if err := bs.Need(2); err != nil {
				return nil, errors.Wrap(ErrMalformedChunks, err.Error())
			}
			size := int(bs.ReadLU16()) * 2
			if err := bs.Need(size); err != nil {
				return nil, errors.Wrapf(ErrMalformedChunks, "chunk %v at 0x%x: %v", t, start, err)
			}
			sub := bs.SubBuf("polychunk", start).SetName(t.String()).SetSize(4 + size)
			sub.SetPos(4)
			var pc PolyChunk
			var err error
			if t.IsMaterial() {
				pc, err = decodeMaterialChunk(sub, t, flags)
			} else {
				pc, err = decodeStripChunk(sub, t, flags)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "chunk %v at 0x%x", t, start)
			}
			bs.SetPos(start + 4 + size)
			result = append(result, pc)
		default:
			return nil, errors.Wrapf(ErrMalformedChunks, "unknown poly chunk type %d at 0x%x {%s}",
				t, start, utils.DumpToOneLineString(bs.Raw()[start:bs.Pos()]))
		}
	}
}

func decodeMaterialChunk(sub *utils.BufStack, t ChunkType, flags uint8) (*MaterialChunk, error) {
	if t == ChunkMaterialBump {
		return nil, errors.Wrap(ErrMalformedChunks, "bump material chunk is not supported")
	}
	mask := uint8(t-ChunkMaterial) & 7
	c := &MaterialChunk{
		Second:           t > ChunkMaterialBump,
		SourceAlpha:      AlphaInstruction((flags >> 3) & 7),
		DestinationAlpha: AlphaInstruction(flags & 7),
	}
	read := func() (*color.NRGBA, error) {
		if err := sub.Need(4); err != nil {
			return nil, errors.Wrap(ErrMalformedChunks, err.Error())
		}
		clr := readColor(sub)
		return &clr, nil
	}
	var err error
	if mask&1 != 0 {
		if c.Diffuse, err = read(); err != nil {
			return nil, err
		}
	}
	if mask&2 != 0 {
		if c.Ambient, err = read(); err != nil {
			return nil, err
		}
	}
	if mask&4 != 0 {
		if c.Specular, err = read(); err != nil {
			return nil, err
		}
		c.SpecularExponent = c.Specular.A
		c.Specular.A = 255
	}
	return c, nil
}

func decodeStripChunk(sub *utils.BufStack, t ChunkType, flags uint8) (*StripChunk, error) {
	c := NewStripChunk(t)
	c.Flags = StripFlags(flags)
	switch t {
	case ChunkStripNormal, ChunkStripUVNNormal, ChunkStripUVHNormal, ChunkStrip2, ChunkStripUVN2, ChunkStripUVH2:
		return nil, errors.Wrapf(ErrMalformedChunks, "strip chunk type %v is not supported", t)
	}
	if err := sub.Need(2); err != nil {
		return nil, errors.Wrap(ErrMalformedChunks, err.Error())
	}
	header := sub.ReadLU16()
	if header>>14 != 0 {
		return nil, errors.Wrapf(ErrMalformedChunks, "strip user flags (%d) are not supported", header>>14)
	}
	count := int(header & 0x3fff)

	corner := 2
	if c.HasUV() {
		corner += 4
	}
	if c.HasColor() {
		corner += 4
	}
	scale := c.UVScale()
	for i := 0; i < count; i++ {
		if err := sub.Need(2); err != nil {
			return nil, errors.Wrap(ErrMalformedChunks, err.Error())
		}
		n := int(sub.ReadLS16())
		s := &Strip{Reversed: n < 0}
		if n < 0 {
			n = -n
		}
		if err := sub.Need(n * corner); err != nil {
			return nil, errors.Wrapf(ErrMalformedChunks, "strip %d: %v", i, err)
		}
		s.Indexes = make([]uint16, n)
		for k := 0; k < n; k++ {
			s.Indexes[k] = sub.ReadLU16()
			if c.HasUV() {
				u := float32(sub.ReadLS16()) / scale
				v := float32(sub.ReadLS16()) / scale
				s.UVs = append(s.UVs, UV{U: u, V: v})
			}
			if c.HasColor() {
				s.VColors = append(s.VColors, readColor(sub))
			}
		}
		c.Strips = append(c.Strips, s)
	}
	return c, nil
}

// DescribePolyChunks renders a one line per chunk listing for debug output.
func DescribePolyChunks(chunks []PolyChunk) string {
	s := ""
	for i, pc := range chunks {
		s += fmt.Sprintf("%3d %v", i, pc.Type())
		switch c := pc.(type) {
		case *CachePolygonListChunk:
			s += fmt.Sprintf(" store %d", c.List)
		case *DrawPolygonListChunk:
			s += fmt.Sprintf(" draw %d", c.List)
		case *TextureIDChunk:
			s += fmt.Sprintf(" texture %d", c.TextureID)
		case *StripChunk:
			s += fmt.Sprintf(" strips %d flags 0x%02x", len(c.Strips), uint8(c.Flags))
		}
		s += "\n"
	}
	return s
}
