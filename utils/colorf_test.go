package utils

import (
	"image/color"
	"testing"
)

func TestColorFloatNRGBA(t *testing.T) {
	tests := []struct {
		in  ColorFloat
		out color.NRGBA
	}{
		{ColorFloat{1, 1, 1, 1}, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{ColorFloat{0.5, 0, 0.25, 1}, color.NRGBA{R: 128, G: 0, B: 64, A: 255}},
		{ColorFloat{-1, 2, 0, 0}, color.NRGBA{R: 0, G: 255, B: 0, A: 0}},
	}
	for _, test := range tests {
		if result := test.in.NRGBA(); result != test.out {
			t.Errorf("%v.NRGBA()=%v; expected %v", test.in, result, test.out)
		}
	}
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 40}
	if result := ColorFloatFromNRGBA(c).NRGBA(); result != c {
		t.Errorf("round trip %v gave %v", c, result)
	}
}
