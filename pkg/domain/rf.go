package domain

import "math"

// Cavity structure types.
const (
	StandingWave   = "StandingWave"
	TravellingWave = "TravellingWave"
)

// Cavity describes an RF accelerating or deflecting structure.
type Cavity struct {
	Frequency          float64 `json:"frequency" yaml:"frequency" mapstructure:"frequency"`
	Phase              float64 `json:"phase" yaml:"phase" mapstructure:"phase"`
	Crest              float64 `json:"crest" yaml:"crest" mapstructure:"crest"`
	CellLength         float64 `json:"cell_length" yaml:"cell_length" mapstructure:"cell_length"`
	NCells             int     `json:"n_cells" yaml:"n_cells" mapstructure:"n_cells"`
	StructureType      string  `json:"structure_Type,omitempty" yaml:"structure_Type,omitempty" mapstructure:"structure_Type"`
	ModeNumerator      float64 `json:"mode_numerator" yaml:"mode_numerator" mapstructure:"mode_numerator"`
	ModeDenominator    float64 `json:"mode_denominator" yaml:"mode_denominator" mapstructure:"mode_denominator"`
	FieldAmplitude     float64 `json:"field_amplitude" yaml:"field_amplitude" mapstructure:"field_amplitude"`
	CouplingCellLength float64 `json:"coupling_cell_length" yaml:"coupling_cell_length" mapstructure:"coupling_cell_length"`
	ShuntImpedance     float64 `json:"shunt_impedance" yaml:"shunt_impedance" mapstructure:"shunt_impedance"`
	Tilt               float64 `json:"tilt" yaml:"tilt" mapstructure:"tilt"`
}

// IsTravellingWave reports whether the structure is a travelling wave cavity.
func (c *Cavity) IsTravellingWave() bool {
	return c != nil && c.StructureType == TravellingWave
}

// Mode is the phase advance per cell as a fraction of π. Cavities without a
// mode definition are treated as π-mode.
func (c *Cavity) Mode() float64 {
	if c == nil || c.ModeDenominator == 0 {
		return 1
	}
	return c.ModeNumerator / c.ModeDenominator
}

// Cells returns the number of cells that make up a cavity of the given length.
// When n_cells is unset it is derived from the cell length and rounded down to
// a whole number of 3-cell periods.
func (c *Cavity) Cells(length float64) int {
	if c == nil {
		return 0
	}
	switch {
	case c.NCells == 0 && c.CellLength > 0:
		cells := int(math.RoundToEven((length - c.CellLength) / c.CellLength))
		return cells - cells%3
	case c.NCells > 0 && c.CellLength == length:
		return 1
	case c.NCells > 0:
		return c.NCells - c.NCells%3
	default:
		return 0
	}
}

// TravellingWaveEnergyGain is the energy gain in eV of a travelling wave
// structure of n cells, on crest at phase = 0.
func (c *Cavity) TravellingWaveEnergyGain(cells int) float64 {
	return c.FieldAmplitude * math.Sin(math.Pi*c.Mode()) * float64(cells) * c.CellLength *
		math.Cos(math.Pi*c.Phase/180)
}

// Wake types understood by the translators.
const (
	LongitudinalWake = "LongitudinalWake"
	TransverseWake   = "TransverseWake"
	Wake3D           = "3DWake"
)

// Wakefield describes a standalone wakefield element, typically a structure
// repeated every cell.
type Wakefield struct {
	CellLength float64 `json:"cell_length" yaml:"cell_length" mapstructure:"cell_length"`
	NCells     int     `json:"n_cells" yaml:"n_cells" mapstructure:"n_cells"`
	Type       string  `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
}
