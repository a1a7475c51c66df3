package utils

import (
	"image/color"
	"math"
)

// ColorFloat is r g b a in 0..1
type ColorFloat [4]float32

func (c *ColorFloat) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func NewColorFloatA(c []float32) ColorFloat {
	return ColorFloat{c[0], c[1], c[2], c[3]}
}

func NewColorFloat(c []float32) ColorFloat {
	return ColorFloat{c[0], c[1], c[2], 1.0}
}

func ColorFloatFromNRGBA(c color.NRGBA) ColorFloat {
	return ColorFloat{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// NRGBA rounds components to bytes, clamping out of range values.
func (c ColorFloat) NRGBA() color.NRGBA {
	var b [4]uint8
	for i, v := range c {
		f := math.Round(float64(v) * 255)
		if f < 0 {
			f = 0
		} else if f > 255 {
			f = 255
		}
		b[i] = uint8(f)
	}
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}
