package ninja

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/ninja_converter/utils"
)

// Rotation is an euler rotation in binary angle units, 65536 per full turn.
// Applied x first, then y, then z.
type Rotation [3]int32

func DegToBAMS(deg float32) int32 {
	return int32(float64(deg) * (65536.0 / 360.0))
}

func BAMSToDeg(bams int32) float32 {
	return float32(float64(bams) * (360.0 / 65536.0))
}

func BAMSToRad(bams int32) float32 {
	return float32(float64(bams) * (2 * math.Pi / 65536.0))
}

func RotationFromDegrees(deg mgl32.Vec3) Rotation {
	return Rotation{DegToBAMS(deg[0]), DegToBAMS(deg[1]), DegToBAMS(deg[2])}
}

func RotationFromRadians(rad mgl32.Vec3) Rotation {
	return RotationFromDegrees(utils.RadiansToDegreeV3(rad))
}

func (r Rotation) Degrees() mgl32.Vec3 {
	return mgl32.Vec3{BAMSToDeg(r[0]), BAMSToDeg(r[1]), BAMSToDeg(r[2])}
}

func (r Rotation) Radians() mgl32.Vec3 {
	return mgl32.Vec3{BAMSToRad(r[0]), BAMSToRad(r[1]), BAMSToRad(r[2])}
}

func (r Rotation) Matrix() mgl32.Mat4 {
	rad := r.Radians()
	return mgl32.HomogRotate3DZ(rad[2]).
		Mul4(mgl32.HomogRotate3DY(rad[1])).
		Mul4(mgl32.HomogRotate3DX(rad[0]))
}

// LocalMatrix composes scale, then rotation, then translation.
func LocalMatrix(position mgl32.Vec3, rotation Rotation, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Matrix()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// DecomposeMatrix splits an affine transform into translation, rotation and scale.
// Shear is dropped. Negative determinant is folded into x scale.
func DecomposeMatrix(m mgl32.Mat4) (position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	position = m.Col(3).Vec3()

	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	for i := range cols {
		scale[i] = cols[i].Len()
	}
	if m.Mat3().Det() < 0 {
		scale[0] = -scale[0]
	}

	var rot mgl32.Mat4
	for i := range cols {
		c := cols[i]
		if scale[i] != 0 {
			c = c.Mul(1 / scale[i])
		}
		rot.SetCol(i, c.Vec4(0))
	}
	rot.SetCol(3, mgl32.Vec4{0, 0, 0, 1})

	rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return
}

// DecomposeToObject converts a matrix into values an Object stores.
func DecomposeToObject(m mgl32.Mat4) (position mgl32.Vec3, rotation Rotation, scale mgl32.Vec3) {
	var q mgl32.Quat
	position, q, scale = DecomposeMatrix(m)
	rotation = RotationFromRadians(utils.QuatToEuler(q))
	return
}
