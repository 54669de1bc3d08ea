package domain

import (
	"fmt"
	"math"
)

// Position is a point in the machine's cartesian frame, in metres.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
	Z float64 `json:"z" yaml:"z" mapstructure:"z"`
}

// Add returns p + o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Scale multiplies every component by f.
func (p Position) Scale(f float64) Position {
	return Position{X: p.X * f, Y: p.Y * f, Z: p.Z * f}
}

// Dot is the scalar product.
func (p Position) Dot(o Position) float64 {
	return p.X*o.X + p.Y*o.Y + p.Z*o.Z
}

// Length is the euclidean norm.
func (p Position) Length() float64 {
	return math.Sqrt(p.Dot(p))
}

// IsZero reports whether all components are zero.
func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}

// Rotation holds the three orientation angles of an element, in radians.
// Theta is the rotation about the vertical axis and is the one that bends the
// reference path.
type Rotation struct {
	Phi   float64 `json:"phi" yaml:"phi" mapstructure:"phi"`
	Psi   float64 `json:"psi" yaml:"psi" mapstructure:"psi"`
	Theta float64 `json:"theta" yaml:"theta" mapstructure:"theta"`
}

// Add returns r + o, component wise.
func (r Rotation) Add(o Rotation) Rotation {
	return Rotation{Phi: r.Phi + o.Phi, Psi: r.Psi + o.Psi, Theta: r.Theta + o.Theta}
}

// Sub returns r - o, component wise.
func (r Rotation) Sub(o Rotation) Rotation {
	return Rotation{Phi: r.Phi - o.Phi, Psi: r.Psi - o.Psi, Theta: r.Theta - o.Theta}
}

// Abs returns the component wise absolute value.
func (r Rotation) Abs() Rotation {
	return Rotation{Phi: math.Abs(r.Phi), Psi: math.Abs(r.Psi), Theta: math.Abs(r.Theta)}
}

// IsZero reports whether all angles are zero.
func (r Rotation) IsZero() bool {
	return r.Phi == 0 && r.Psi == 0 && r.Theta == 0
}

// Validate checks that every angle lies in [-π, π].
func (r Rotation) Validate() error {
	for name, v := range map[string]float64{"phi": r.Phi, "psi": r.Psi, "theta": r.Theta} {
		if v < -math.Pi || v > math.Pi {
			return fmt.Errorf("rotation %s = %g outside [-π, π]", name, v)
		}
	}
	return nil
}

// Matrix is a row-major 3x3 matrix.
type Matrix [3][3]float64

// RotationY returns the rotation about the vertical axis by theta.
func RotationY(theta float64) Matrix {
	c, s := math.Cos(theta), math.Sin(theta)
	return Matrix{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

// Apply returns the row vector v multiplied by m.
func (m Matrix) Apply(v Position) Position {
	return Position{
		X: v.X*m[0][0] + v.Y*m[1][0] + v.Z*m[2][0],
		Y: v.X*m[0][1] + v.Y*m[1][1] + v.Z*m[2][1],
		Z: v.X*m[0][2] + v.Y*m[1][2] + v.Z*m[2][2],
	}
}

// Chop zeroes values whose magnitude does not exceed tol.
func Chop(v, tol float64) float64 {
	if math.Abs(v) <= tol {
		return 0
	}
	return v
}
