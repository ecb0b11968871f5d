package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// normEpsilon is the squared length below which a vector counts as degenerate.
const normEpsilon = 1e-18

// normalizeSafe returns v scaled to unit length, or fallback if v is degenerate.
func normalizeSafe(v, fallback r2.Vec) r2.Vec {
	n2 := r2.Norm2(v)
	if n2 <= normEpsilon || math.IsNaN(n2) || math.IsInf(n2, 0) {
		return fallback
	}
	return r2.Scale(1/math.Sqrt(n2), v)
}

// lerp linearly interpolates from a to b by t.
func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// rotateDeg rotates v counter-clockwise by the given angle in degrees.
func rotateDeg(v r2.Vec, degrees float64) r2.Vec {
	return r2.Rotate(v, degrees*math.Pi/180, r2.Vec{})
}

// perp returns v rotated by +90 degrees.
func perp(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// distanceSq returns the squared distance between two points.
func distanceSq(a, b r2.Vec) float64 {
	return r2.Norm2(r2.Sub(a, b))
}

// unitX is the fallback heading when nothing better is known.
var unitX = r2.Vec{X: 1}
