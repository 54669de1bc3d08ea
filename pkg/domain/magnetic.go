package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// DefaultBore is the aperture radius assumed for magnets that do not define one.
const DefaultBore = 0.037

// EdgeAngle is a pole face angle. It is either a number in radians or an
// expression relative to the bend angle ("angle" or "angle/2").
type EdgeAngle struct {
	Value float64
	Expr  string
}

// Resolve returns the edge angle in radians for a magnet bending by angle.
func (e EdgeAngle) Resolve(angle float64) float64 {
	switch strings.ReplaceAll(strings.ToLower(e.Expr), " ", "") {
	case "angle":
		return angle
	case "angle/2":
		return angle / 2
	default:
		return e.Value
	}
}

// IsZero reports whether the edge angle is unset.
func (e EdgeAngle) IsZero() bool {
	return e.Expr == "" && e.Value == 0
}

func (e EdgeAngle) String() string {
	if e.Expr != "" {
		return e.Expr
	}
	return strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// ParseEdgeAngle accepts a number or one of the supported angle expressions.
func ParseEdgeAngle(v any) (EdgeAngle, error) {
	switch val := v.(type) {
	case nil:
		return EdgeAngle{}, nil
	case EdgeAngle:
		return val, nil
	case string:
		expr := strings.ReplaceAll(strings.ToLower(val), " ", "")
		if expr == "angle" || expr == "angle/2" {
			return EdgeAngle{Expr: expr}, nil
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return EdgeAngle{}, fmt.Errorf("edge angle %q is neither a number nor angle expression", val)
		}
		return EdgeAngle{Value: f}, nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return EdgeAngle{}, fmt.Errorf("edge angle must be a number or string, got %T", v)
		}
		return EdgeAngle{Value: f}, nil
	}
}

// Multipole is one integrated multipole strength, K{order}L.
type Multipole struct {
	Order  int     `json:"order" yaml:"order" mapstructure:"order"`
	Normal float64 `json:"normal" yaml:"normal" mapstructure:"normal"`
	Skew   float64 `json:"skew" yaml:"skew" mapstructure:"skew"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty" mapstructure:"radius"`
}

// Multipoles maps the order to its strength.
type Multipoles map[int]Multipole

// Orders returns the defined orders in ascending order.
func (m Multipoles) Orders() []int {
	orders := make([]int, 0, len(m))
	for o := range m {
		orders = append(orders, o)
	}
	sort.Ints(orders)
	return orders
}

// Fields holds integrated solenoid field harmonics. Values may reference
// files through substitution variables, so they are kept as strings.
type Fields struct {
	S0L string `json:"S0L,omitempty" yaml:"S0L,omitempty" mapstructure:"S0L"`
	S1L string `json:"S1L,omitempty" yaml:"S1L,omitempty" mapstructure:"S1L"`
}

// Magnetic describes the magnetic properties of magnets, correctors,
// solenoids and insertion devices.
type Magnetic struct {
	Order                        int        `json:"order" yaml:"order" mapstructure:"order"`
	Length                       float64    `json:"length" yaml:"length" mapstructure:"length"`
	Angle                        float64    `json:"angle" yaml:"angle" mapstructure:"angle"`
	EntranceEdgeAngle            EdgeAngle  `json:"entrance_edge_angle" yaml:"entrance_edge_angle" mapstructure:"entrance_edge_angle"`
	ExitEdgeAngle                EdgeAngle  `json:"exit_edge_angle" yaml:"exit_edge_angle" mapstructure:"exit_edge_angle"`
	Multipoles                   Multipoles `json:"multipoles" yaml:"multipoles" mapstructure:"multipoles"`
	Fields                       Fields     `json:"fields" yaml:"fields" mapstructure:"fields"`
	Gap                          float64    `json:"gap" yaml:"gap" mapstructure:"gap"`
	HalfGap                      float64    `json:"half_gap" yaml:"half_gap" mapstructure:"half_gap"`
	Width                        float64    `json:"width" yaml:"width" mapstructure:"width"`
	EdgeFieldIntegral            float64    `json:"edge_field_integral" yaml:"edge_field_integral" mapstructure:"edge_field_integral"`
	Bore                         float64    `json:"bore" yaml:"bore" mapstructure:"bore"`
	Tilt                         float64    `json:"tilt" yaml:"tilt" mapstructure:"tilt"`
	Plane                        string     `json:"plane,omitempty" yaml:"plane,omitempty" mapstructure:"plane"`
	Ks                           float64    `json:"ks" yaml:"ks" mapstructure:"ks"`
	FieldAmplitude               float64    `json:"field_amplitude" yaml:"field_amplitude" mapstructure:"field_amplitude"`
	Strength                     float64    `json:"strength" yaml:"strength" mapstructure:"strength"`
	Period                       float64    `json:"period" yaml:"period" mapstructure:"period"`
	NumPeriods                   int        `json:"num_periods" yaml:"num_periods" mapstructure:"num_periods"`
	Helical                      bool       `json:"helical" yaml:"helical" mapstructure:"helical"`
	IntegratedStrength           float64    `json:"integrated_strength" yaml:"integrated_strength" mapstructure:"integrated_strength"`
	FieldIntegralCoefficients    []float64  `json:"field_integral_coefficients" yaml:"field_integral_coefficients" mapstructure:"field_integral_coefficients"`
	LinearSaturationCoefficients []float64  `json:"linear_saturation_coefficients" yaml:"linear_saturation_coefficients" mapstructure:"linear_saturation_coefficients"`
	SettleTime                   float64    `json:"settle_time" yaml:"settle_time" mapstructure:"settle_time"`
}

// KnL returns the normal integrated strength of the given order.
func (m *Magnetic) KnL(order int) float64 {
	if m == nil {
		return 0
	}
	return m.Multipoles[order].Normal
}

// SetKnL sets the normal integrated strength of the given order.
func (m *Magnetic) SetKnL(order int, v float64) {
	if m.Multipoles == nil {
		m.Multipoles = Multipoles{}
	}
	mp := m.Multipoles[order]
	mp.Order = order
	mp.Normal = v
	m.Multipoles[order] = mp
}

// Kn returns the normalised strength KnL/L, or KnL for a thin magnet.
func (m *Magnetic) Kn(order int) float64 {
	if m == nil {
		return 0
	}
	if m.Length == 0 {
		return m.KnL(order)
	}
	return m.KnL(order) / m.Length
}

// Rho is the bending radius; zero for a straight magnet.
func (m *Magnetic) Rho() float64 {
	if m == nil || math.Abs(m.Angle) <= bendTolerance {
		return 0
	}
	return m.Length / m.Angle
}

// E1 is the resolved entrance edge angle.
func (m *Magnetic) E1() float64 {
	if m == nil {
		return 0
	}
	return m.EntranceEdgeAngle.Resolve(m.Angle)
}

// E2 is the resolved exit edge angle.
func (m *Magnetic) E2() float64 {
	if m == nil {
		return 0
	}
	return m.ExitEdgeAngle.Resolve(m.Angle)
}

// Rigidity converts a momentum in eV/c to the magnetic rigidity in T·m.
func Rigidity(momentum float64) float64 {
	return momentum / SpeedOfLight
}

// Gradient returns the quadrupole gradient in T/m for a beam of the given
// momentum in eV/c.
func (m *Magnetic) Gradient(momentum float64) float64 {
	return Rigidity(momentum) * m.Kn(1)
}

// FieldStrength returns the dipole field in T for a beam of the given momentum
// in eV/c.
func (m *Magnetic) FieldStrength(momentum float64) float64 {
	rho := m.Rho()
	if rho == 0 {
		return 0
	}
	return Rigidity(momentum) / rho
}

// Poles is the number of poles in an insertion device.
func (m *Magnetic) Poles() int {
	return 2 * m.NumPeriods
}

// NormalizedStrength is the undulator parameter K for the peak field and period.
func (m *Magnetic) NormalizedStrength() float64 {
	const electronMass = 9.1093837015e-31
	const electronCharge = 1.602176634e-19
	return electronCharge * m.Strength * m.Period / (2 * math.Pi * electronMass * SpeedOfLight)
}
