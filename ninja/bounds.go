package ninja

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type BoundingSphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (bs BoundingSphere) IsZero() bool {
	return bs.Radius == 0 && bs.Center == mgl32.Vec3{}
}

// BoundingSphereFromPoints centers the sphere on the point average.
func BoundingSphereFromPoints(points []mgl32.Vec3) BoundingSphere {
	if len(points) == 0 {
		return BoundingSphere{}
	}
	var center mgl32.Vec3
	for _, p := range points {
		center = center.Add(p)
	}
	center = center.Mul(1 / float32(len(points)))

	var radiusSq float32
	for _, p := range points {
		d := p.Sub(center)
		if l := d.Dot(d); l > radiusSq {
			radiusSq = l
		}
	}
	return BoundingSphere{Center: center, Radius: sqrt32(radiusSq)}
}

// MergeBoundingSpheres returns the smallest sphere containing both a and b.
func MergeBoundingSpheres(a, b BoundingSphere) BoundingSphere {
	diff := b.Center.Sub(a.Center)
	length := diff.Len()

	if a.Radius+b.Radius >= length {
		if a.Radius-b.Radius >= length {
			return a
		}
		if b.Radius-a.Radius >= length {
			return b
		}
	}

	dir := diff.Mul(1 / length)
	lo := min32(-a.Radius, length-b.Radius)
	hi := (max32(a.Radius, length+b.Radius) - lo) * 0.5

	return BoundingSphere{
		Center: a.Center.Add(dir.Mul(hi + lo)),
		Radius: hi,
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
