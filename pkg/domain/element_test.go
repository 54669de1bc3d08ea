package domain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPhysical_StraightGeometry(t *testing.T) {
	p := domain.Physical{Middle: domain.Position{Z: 1}, Length: 0.2}

	assert.InDelta(t, 0.9, p.Start().Z, 1e-12)
	assert.InDelta(t, 1.1, p.End().Z, 1e-12)
	assert.Equal(t, p.Middle, p.Reference("MIDDLE"))
	assert.Equal(t, p.Start(), p.Reference("nowhere"))
}

func TestPhysical_BentGeometry(t *testing.T) {
	p := domain.Physical{Length: 1, Angle: 0.1}

	start := p.Start()
	end := p.End()

	assert.InDelta(t, -math.Tan(0.05)/0.1, start.Z, 1e-12)
	assert.InDelta(t, 0, start.X, 1e-12)
	assert.InDelta(t, (1-math.Cos(0.1))/0.1, end.X, 1e-12)
	assert.InDelta(t, start.Z+math.Sin(0.1)/0.1, end.Z, 1e-12)
}

func TestPhysical_RotatedFrame(t *testing.T) {
	p := domain.Physical{
		Middle:   domain.Position{X: 1, Z: 1},
		Rotation: domain.Rotation{Theta: math.Pi / 2},
		Length:   2,
	}

	// A quarter turn about y maps the local z axis onto -x.
	assert.InDelta(t, 2, p.Start().X, 1e-12)
	assert.InDelta(t, 0, p.End().X, 1e-12)
	assert.InDelta(t, 1, p.End().Z, 1e-12)
}

func TestRotation_Validate(t *testing.T) {
	assert.NoError(t, domain.Rotation{Theta: math.Pi}.Validate())
	assert.Error(t, domain.Rotation{Phi: 4}.Validate())
}

func TestDecodeElement_Quadrupole(t *testing.T) {
	el, err := domain.DecodeElement(map[string]any{
		"name":          "CLA-S02-MAG-QUAD-01",
		"hardware_type": "quadrupole",
		"machine_area":  "S02",
		"name_alias":    "QUAD01, Q1",
		"physical": map[string]any{
			"position": []any{0.0, 0.0, 2.5},
			"length":   0.1,
		},
		"magnetic": map[string]any{
			"order": 1,
			"k1l":   0.5,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Quadrupole", el.HardwareType)
	assert.Equal(t, "Magnet", el.HardwareClass)
	assert.Equal(t, "Generic", el.HardwareModel)
	assert.Equal(t, []string{"QUAD01", "Q1"}, el.Alias)
	assert.Equal(t, domain.Position{Z: 2.5}, el.Middle())
	require.NotNil(t, el.Magnetic)
	assert.Equal(t, 0.1, el.Magnetic.Length)
	assert.Equal(t, 0.5, el.Magnetic.KnL(1))
	assert.InDelta(t, 5, el.Magnetic.Kn(1), 1e-12)
	assert.Equal(t, domain.DefaultBore, el.Magnetic.Bore)
	assert.Equal(t, 4, el.Simulation.NKicks)
	assert.True(t, el.Simulation.CSREnable)
}

func TestDecodeElement_Dipole(t *testing.T) {
	el, err := domain.DecodeElement(map[string]any{
		"name":          "DIP-01",
		"hardware_type": "Dipole",
		"physical": map[string]any{
			"middle":   3.0,
			"rotation": []any{0.0, 0.0, 0.2},
		},
		"magnetic": map[string]any{
			"length":              0.4,
			"angle":               0.2,
			"gap":                 0.02,
			"entrance_edge_angle": "angle/2",
			"exit_edge_angle":     0.05,
			"multipoles":          map[string]any{"K0L": map[string]any{"normal": 0.2, "skew": 0.01}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Position{Z: 3}, el.Physical.Middle)
	assert.Equal(t, 0.2, el.Physical.Rotation.Theta)
	assert.Equal(t, 0.4, el.Physical.Length)
	assert.Equal(t, 0.2, el.Physical.Angle)
	assert.InDelta(t, 0.1, el.Magnetic.E1(), 1e-12)
	assert.InDelta(t, 0.05, el.Magnetic.E2(), 1e-12)
	assert.InDelta(t, 2, el.Magnetic.Rho(), 1e-12)
	assert.Equal(t, 0.01, el.Magnetic.HalfGap)
	assert.Equal(t, 0.01, el.Magnetic.Multipoles[0].Skew)
}

func TestDecodeElement_Aliases(t *testing.T) {
	el, err := domain.DecodeElement(map[string]any{
		"name":          "BPM-01",
		"hardware_type": "BPM",
		"diagnostic":    map[string]any{"bpm_type": "Cavity"},
		"subelement":    "CAV-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "Beam_Position_Monitor", el.HardwareType)
	assert.True(t, el.IsDiagnostic())
	assert.True(t, el.Subelement)
	assert.Equal(t, "Cavity", el.Diagnostic.Type)
}

func TestDecodeElement_ValidationErrors(t *testing.T) {
	_, err := domain.DecodeElement(map[string]any{
		"name": "BROKEN",
		"physical": map[string]any{
			"middle": []any{1, 2, 3, 4},
			"length": "long",
		},
	})
	require.Error(t, err)

	var agg *schema.AggregateError
	require.True(t, errors.As(err, &agg))
	assert.Len(t, agg.Errors, 3)
}

func TestNewElement_Defaults(t *testing.T) {
	tests := []struct {
		hwType string
		check  func(t *testing.T, el *domain.Element)
	}{
		{"Drift", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, 20, el.Simulation.LSCBins)
			assert.Equal(t, "Simulation", el.HardwareModel)
		}},
		{"Wakefield", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, 1.0, el.Simulation.ScaleKick)
			assert.Equal(t, 0.66, el.Simulation.EqualGrid)
			assert.NotNil(t, el.Wakefield)
		}},
		{"Aperture", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, 1.0, el.Aperture.HorizontalSize)
		}},
		{"Plasma", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, "electron", el.Plasma.Species)
			assert.Equal(t, "boris", el.Simulation.BunchPusher)
		}},
		{"Laser", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, domain.ProfileGaussian, el.Laser.ProfileType)
			assert.Equal(t, 6, el.Laser.Flatness)
		}},
		{"Bunch_Length_Monitor", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, "CDR", el.Diagnostic.Type)
		}},
		{"Wiggler", func(t *testing.T, el *domain.Element) {
			assert.Equal(t, "Undulator", el.HardwareClass)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.hwType, func(t *testing.T) {
			tt.check(t, domain.NewElement("X", tt.hwType))
		})
	}
}

func TestNewElement_BendGeometry(t *testing.T) {
	built := domain.NewElement("B1", "Dipole")
	built.Magnetic.Angle = 0.1
	built.Magnetic.Length = 0.5

	decoded, err := domain.DecodeElement(map[string]any{
		"name":          "B1",
		"hardware_type": "Dipole",
		"magnetic":      map[string]any{"angle": 0.1, "length": 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultBore, built.Magnetic.Bore)
	assert.Equal(t, 0.5, built.Length())
	assert.InDelta(t, built.Angle(), built.Geometry().Angle, 1e-15)
	for _, pair := range [][2]domain.Position{
		{built.Start(), decoded.Start()},
		{built.End(), decoded.End()},
	} {
		assert.InDelta(t, pair[1].X, pair[0].X, 1e-12)
		assert.InDelta(t, pair[1].Z, pair[0].Z, 1e-12)
	}
	assert.Greater(t, built.End().X, 0.02)
}

func TestCavity_Cells(t *testing.T) {
	tests := []struct {
		name   string
		cavity *domain.Cavity
		length float64
		want   int
	}{
		{"derived from cell length", &domain.Cavity{CellLength: 0.0333}, 1.0, 27},
		{"explicit cells", &domain.Cavity{NCells: 10, CellLength: 0.1}, 1.0, 9},
		{"single cell", &domain.Cavity{NCells: 1, CellLength: 0.5}, 0.5, 1},
		{"nothing set", &domain.Cavity{}, 1.0, 0},
		{"nil cavity", nil, 1.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cavity.Cells(tt.length))
		})
	}
}

func TestPlasma_DensityAt(t *testing.T) {
	p := &domain.Plasma{
		Density:         1e23,
		RampUp:          0.01,
		Plateau:         0.05,
		RampDown:        0.01,
		RampDecayLength: 0.005,
		DensityProfile:  true,
	}
	require.NoError(t, p.CheckProfile())

	assert.InEpsilon(t, 1e23, p.DensityAt(0.03), 1e-9)
	assert.InEpsilon(t, 1e23/9, p.DensityAt(0), 1e-9)
	assert.InEpsilon(t, 1e23/4, p.DensityAt(0.065), 1e-9)
	assert.InEpsilon(t, 1e17, p.DensityAt(1), 1e-9)

	flat := &domain.Plasma{Density: 5}
	assert.Equal(t, 5.0, flat.DensityAt(0.5))

	assert.ErrorIs(t, (&domain.Plasma{RampDecayLength: 1}).CheckProfile(), domain.ErrInvalidProfile)
}

func TestLaser_Amplitude(t *testing.T) {
	l := &domain.Laser{Wavelength: 800e-9, Waist: 30e-6, PulseEnergy: 1, PulseDurationFWHM: 30e-15}
	assert.Greater(t, l.Amplitude(), 0.0)
	assert.Zero(t, (&domain.Laser{}).Amplitude())
	assert.InDelta(t, 2.3546e15, l.AngularFrequency(), 1e11)
}

func TestElement_Fields(t *testing.T) {
	el := domain.NewElement("Q1", "Quadrupole")
	el.Physical.Middle = domain.Position{Z: 1.5}
	el.Magnetic.Length = 0.1
	el.Magnetic.SetKnL(1, 0.3)
	el.Magnetic.EntranceEdgeAngle = domain.EdgeAngle{Expr: "angle"}
	el.Simulation.FieldDefinition = &domain.FieldDefinition{Filename: "quad.hdf5"}
	el.Controls = map[string]any{"pv": "CLA:Q1"}

	fields := el.Fields()

	v, ok := fields.Get("physical_middle_z")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, _ = fields.Get("magnetic_multipoles_K1L_normal")
	assert.Equal(t, 0.3, v)

	v, _ = fields.Get("magnetic_entrance_edge_angle")
	assert.Equal(t, "angle", v)

	v, _ = fields.Get("simulation_field_definition")
	assert.Equal(t, "quad.hdf5", v)

	keys := fields.Keys()
	assert.Equal(t, "name", keys[0])
	assert.NotContains(t, keys, "controls")
	for _, k := range keys {
		assert.NotContains(t, k, "laser_")
	}

	fields.Set("length", 0.1)
	fields.Set("name", "Q2")
	assert.Equal(t, "Q2", fields.Map()["name"])
	assert.Equal(t, "length", fields.Keys()[len(fields)-1])
}

func TestElement_YAMLRoundTrip(t *testing.T) {
	el := domain.NewElement("DIP-01", "Dipole")
	el.Physical.Middle = domain.Position{X: 0.1, Z: 2}
	el.Physical.Rotation = domain.Rotation{Theta: 0.3}
	el.Magnetic.Length = 0.5
	el.Magnetic.Angle = 0.3
	el.Magnetic.EntranceEdgeAngle = domain.EdgeAngle{Expr: "angle/2"}
	el.Magnetic.ExitEdgeAngle = domain.EdgeAngle{Value: 0.15}
	el.Magnetic.SetKnL(0, 0.3)
	el.Simulation.CSREnable = false

	data, err := yaml.Marshal(el)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))

	back, err := domain.DecodeElement(raw)
	require.NoError(t, err)

	assert.Equal(t, el.Physical.Middle, back.Physical.Middle)
	assert.Equal(t, el.Physical.Rotation, back.Physical.Rotation)
	assert.Equal(t, el.Magnetic.EntranceEdgeAngle, back.Magnetic.EntranceEdgeAngle)
	assert.Equal(t, el.Magnetic.ExitEdgeAngle, back.Magnetic.ExitEdgeAngle)
	assert.Equal(t, 0.3, back.Magnetic.KnL(0))
	assert.False(t, back.Simulation.CSREnable)
}

func TestDeckID(t *testing.T) {
	assert.Equal(t, "elegant-section-S02-0000000000000003", domain.DeckID("Elegant", "section-S02", 3))
	assert.Equal(t, "astra-model-00000000000000ff", domain.DeckID("astra", "", 255))
	assert.Equal(t, "gpt-layout-LINE-A-S01-0000000000000001", domain.DeckID("gpt", "layout-LINE A/S01", 1))
}

func TestLatticeError(t *testing.T) {
	err := domain.NotFound("QUAD-99", "along the beam path")
	assert.EqualError(t, err, "Element QUAD-99 does not exist along the beam path")
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
}
