package domain

import (
	"math"
	"strings"
)

// Misalignment describes a deviation from the nominal placement, used both for
// alignment errors and for survey data.
type Misalignment struct {
	Position Position `json:"position" yaml:"position" mapstructure:"position"`
	Rotation Rotation `json:"rotation" yaml:"rotation" mapstructure:"rotation"`
}

// IsZero reports whether the misalignment is empty.
func (m Misalignment) IsZero() bool {
	return m.Position.IsZero() && m.Rotation.IsZero()
}

// Physical is the placement of an element along the machine.
type Physical struct {
	Middle         Position     `json:"middle" yaml:"middle" mapstructure:"middle"`
	Datum          Position     `json:"datum" yaml:"datum" mapstructure:"datum"`
	Rotation       Rotation     `json:"rotation" yaml:"rotation" mapstructure:"rotation"`
	GlobalRotation Rotation     `json:"global_rotation" yaml:"global_rotation" mapstructure:"global_rotation"`
	Error          Misalignment `json:"error" yaml:"error" mapstructure:"error"`
	Survey         Misalignment `json:"survey" yaml:"survey" mapstructure:"survey"`
	Length         float64      `json:"length" yaml:"length" mapstructure:"length"`
	Angle          float64      `json:"angle" yaml:"angle" mapstructure:"angle"`
}

const bendTolerance = 1e-9

func (p Physical) bent() bool {
	return math.Abs(p.Angle) > bendTolerance
}

// RotationMatrix rotates by the element's theta plus the global theta.
func (p Physical) RotationMatrix() Matrix {
	return RotationY(p.Rotation.Theta + p.GlobalRotation.Theta)
}

// Start is the entrance point of the element. For a bend the middle sits on
// the intersection of the entrance and exit tangents.
func (p Physical) Start() Position {
	sz := p.Length / 2
	if p.bent() {
		sz = p.Length * math.Tan(0.5*p.Angle) / p.Angle
	}
	return p.Middle.Sub(p.RotationMatrix().Apply(Position{Z: sz}))
}

// End is the exit point of the element.
func (p Physical) End() Position {
	v := Position{Z: p.Length}
	if p.bent() {
		v = Position{
			X: p.Length * (1 - math.Cos(p.Angle)) / p.Angle,
			Z: p.Length * math.Sin(p.Angle) / p.Angle,
		}
	}
	return p.Start().Add(p.RotationMatrix().Apply(v))
}

// Reference returns the start, middle or end position, case-insensitively.
// Any other value yields the start.
func (p Physical) Reference(where string) Position {
	switch strings.ToLower(where) {
	case "middle":
		return p.Middle
	case "end":
		return p.End()
	default:
		return p.Start()
	}
}
