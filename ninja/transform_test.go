package ninja

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/utils"
)

var bamsTests = []struct {
	deg  float32
	bams int32
}{
	{0, 0},
	{90, 16384},
	{180, 32768},
	{-90, -16384},
	{360, 65536},
	{45, 8192},
}

func TestDegToBAMS(t *testing.T) {
	for _, test := range bamsTests {
		if result := DegToBAMS(test.deg); result != test.bams {
			t.Errorf("DegToBAMS(%v)=%d; expected %d", test.deg, result, test.bams)
		}
		if result := BAMSToDeg(test.bams); !utils.FloatApproxEqual(result, test.deg, 1e-4) {
			t.Errorf("BAMSToDeg(%d)=%v; expected %v", test.bams, result, test.deg)
		}
	}
}

func TestLocalMatrixOrder(t *testing.T) {
	// scale is applied before rotation, rotation before translation
	m := LocalMatrix(mgl32.Vec3{10, 0, 0}, Rotation{0, 0, DegToBAMS(90)}, mgl32.Vec3{2, 2, 2})
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	if !utils.Vec3ApproxEqual(p, mgl32.Vec3{10, 2, 0}, 1e-5) {
		t.Errorf("transformed point %v; expected [10 2 0]", p)
	}

	// x rotation is applied before z rotation
	m = LocalMatrix(mgl32.Vec3{}, Rotation{DegToBAMS(90), 0, DegToBAMS(90)}, mgl32.Vec3{1, 1, 1})
	p = mgl32.TransformCoordinate(mgl32.Vec3{0, 1, 0}, m)
	if !utils.Vec3ApproxEqual(p, mgl32.Vec3{0, 0, 1}, 1e-5) {
		t.Errorf("transformed point %v; expected [0 0 1]", p)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		pos   mgl32.Vec3
		rot   Rotation
		scale mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 0}, Rotation{0, 0, 0}, mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{1, 2, 3}, Rotation{DegToBAMS(30), DegToBAMS(-45), DegToBAMS(60)}, mgl32.Vec3{1, 1, 1}},
		{mgl32.Vec3{-5, 0.5, 7}, Rotation{DegToBAMS(10), DegToBAMS(20), DegToBAMS(-170)}, mgl32.Vec3{2, 3, 0.5}},
	}
	for _, test := range tests {
		m := LocalMatrix(test.pos, test.rot, test.scale)
		pos, rot, scale := DecomposeToObject(m)
		if !utils.Vec3ApproxEqual(pos, test.pos, 1e-4) {
			t.Errorf("position %v; expected %v", pos, test.pos)
		}
		if !utils.Vec3ApproxEqual(scale, test.scale, 1e-4) {
			t.Errorf("scale %v; expected %v", scale, test.scale)
		}
		for i := range rot {
			if d := rot[i] - test.rot[i]; d > 2 || d < -2 {
				t.Errorf("rotation %v; expected %v", rot, test.rot)
				break
			}
		}
		if back := LocalMatrix(pos, rot, scale); !utils.Mat4ApproxEqual(back, m, 1e-3) {
			t.Errorf("recomposed matrix differs:\n%v\n%v", back, m)
		}
	}
}

func TestBoundingSphere(t *testing.T) {
	bs := BoundingSphereFromPoints([]mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}, {0, 0.5, 0}})
	if !utils.Vec3ApproxEqual(bs.Center, mgl32.Vec3{0, 0.5 / 3, 0}, 1e-5) {
		t.Errorf("center %v", bs.Center)
	}
	if bs.Radius < 1 || bs.Radius > 1.02 {
		t.Errorf("radius %v", bs.Radius)
	}

	a := BoundingSphere{Center: mgl32.Vec3{0, 0, 0}, Radius: 1}
	b := BoundingSphere{Center: mgl32.Vec3{4, 0, 0}, Radius: 1}
	m := MergeBoundingSpheres(a, b)
	if !utils.Vec3ApproxEqual(m.Center, mgl32.Vec3{2, 0, 0}, 1e-5) || !utils.FloatApproxEqual(m.Radius, 3, 1e-5) {
		t.Errorf("merged %+v; expected center [2 0 0] radius 3", m)
	}

	inner := BoundingSphere{Center: mgl32.Vec3{0.5, 0, 0}, Radius: 0.25}
	if m := MergeBoundingSpheres(a, inner); m != a {
		t.Errorf("merge with contained sphere %+v; expected %+v", m, a)
	}
}
