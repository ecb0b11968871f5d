package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents an entity's world position.
// The simulation only moves entities on the XY plane; Z is carried through untouched.
type Position struct {
	X, Y, Z float64
}

// XY returns the planar part of the position.
func (p Position) XY() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// SetXY overwrites the planar part of the position, leaving Z unchanged.
func (p *Position) SetXY(v r2.Vec) {
	p.X = v.X
	p.Y = v.Y
}
