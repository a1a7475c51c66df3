package utils

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestQuatToEulerRoundTrip(t *testing.T) {
	for _, e := range []mgl32.Vec3{
		{0, 0, 0},
		{0.3, -0.2, 1.1},
		{-1.5, 1.2, -3},
	} {
		q := EulerToQuat(e)
		back := QuatToEuler(q)
		if !Vec3ApproxEqual(back, e, 1e-4) {
			t.Errorf("QuatToEuler(EulerToQuat(%v))=%v", e, back)
		}
	}
}

func TestQuatToEulerPitchClamp(t *testing.T) {
	// slightly denormalized quaternion pushes sin(pitch) past 1
	q := mgl32.Quat{W: 0.7072, V: mgl32.Vec3{0, 0.7072, 0}}
	if e := QuatToEuler(q); e[1] != math.Pi/2 {
		t.Errorf("pitch %v; expected %v", e[1], math.Pi/2)
	}
	q = mgl32.Quat{W: 0.7072, V: mgl32.Vec3{0, -0.7072, 0}}
	if e := QuatToEuler(q); e[1] != -math.Pi/2 {
		t.Errorf("pitch %v; expected %v", e[1], -math.Pi/2)
	}
}

func TestDegreeRadians(t *testing.T) {
	v := DegreeToRadiansV3(mgl32.Vec3{180, 90, -45})
	if !Vec3ApproxEqual(v, mgl32.Vec3{math.Pi, math.Pi / 2, -math.Pi / 4}, 1e-6) {
		t.Errorf("DegreeToRadiansV3=%v", v)
	}
	if back := RadiansToDegreeV3(v); !Vec3ApproxEqual(back, mgl32.Vec3{180, 90, -45}, 1e-4) {
		t.Errorf("RadiansToDegreeV3=%v", back)
	}
}
