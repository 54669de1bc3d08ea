package lattice_test

import (
	"testing"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func element(name, hwType, area string, z, length float64) *domain.Element {
	e := domain.NewElement(name, hwType)
	e.MachineArea = area
	e.Physical.Middle = domain.Position{Z: z}
	e.Physical.Length = length
	return e
}

func testElements() []*domain.Element {
	sol := element("SOL1", "Solenoid", "S02", 3.0, 0.5)
	sol.Subelement = true
	return []*domain.Element{
		element("Q1", "Quadrupole", "S01", 1.0, 0.2),
		element("BPM1", "BPM", "S01", 1.5, 0.1),
		element("Q2", "Quadrupole", "S01", 2.0, 0.2),
		element("CAV1", "RFCavity", "S02", 3.0, 1.0),
		sol,
		element("SCR1", "Screen", "S02", 4.0, 0),
	}
}

func testModel() *lattice.Model {
	return lattice.NewModel(testElements(), lattice.WithLayouts(lattice.LayoutConfig{
		Layouts: map[string][]string{"line": {"S01", "S02", "MISSING"}},
	}))
}

func TestFilter_Match(t *testing.T) {
	bpm := domain.NewElement("BPM1", "Beam_Position_Monitor")

	assert.True(t, lattice.ByType("bpm").Match(bpm))
	assert.True(t, lattice.ByClass("DIAGNOSTIC").Match(bpm))
	assert.True(t, lattice.Filter{}.Match(bpm))
	assert.False(t, lattice.ByType("Screen").Match(bpm))
	assert.False(t, lattice.Filter{Types: []string{"BPM"}, Models: []string{"Cavity"}}.Match(bpm))
}

func TestElementList(t *testing.T) {
	l := lattice.NewElementList(testElements()...)
	assert.Equal(t, 6, l.Len())
	assert.Equal(t, 2, l.Index("Q2"))
	assert.Equal(t, -1, l.Index("nope"))

	replacement := element("Q2", "Quadrupole", "S01", 2.0, 0.3)
	l.Add(replacement)
	got, ok := l.Get("Q2")
	require.True(t, ok)
	assert.Same(t, replacement, got)
	assert.Equal(t, 6, l.Len())

	assert.Equal(t, []string{"Q1", "Q2"}, l.Filter(lattice.ByType("quadrupole")).Names())
}

func TestModel_SectionsFollowBeam(t *testing.T) {
	els := testElements()
	shuffled := []*domain.Element{els[5], els[2], els[4], els[0], els[3], els[1]}
	m := lattice.NewModel(shuffled)

	assert.Equal(t, []string{"S01", "S02"}, m.SectionNames())
	s01, err := m.Section("S01")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "BPM1", "Q2"}, s01.Names())
	s02, err := m.Section("S02")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAV1", "SOL1", "SCR1"}, s02.Names())

	elements := s01.CreateDrifts(lattice.DriftOptions{})
	require.Len(t, elements, 5)
	assert.Equal(t, "S01_drift_1", elements[1].Name)
	assert.InDelta(t, 0.4, elements[1].Length(), 1e-9)
	assert.InDelta(t, 1.3, elements[1].Middle().Z, 1e-9)
}

func TestModel_ConfiguredSectionOrder(t *testing.T) {
	m := lattice.NewModel(testElements(),
		lattice.WithSections(lattice.SectionConfig{Sections: map[string][]string{
			"S01": {"Q2", "Q1"},
		}}),
		lattice.WithLayouts(lattice.LayoutConfig{Layouts: map[string][]string{"tail": {"S02"}}}),
	)

	s01, err := m.Section("S01")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2", "Q1"}, s01.Names())
}

func TestSection_Order(t *testing.T) {
	s := lattice.NewSection("S01", []string{"Q2", "GHOST", "Q1"}, testElements())
	assert.Equal(t, []string{"Q2", "Q1"}, s.Names())
	assert.Equal(t, 2, s.Len())
}

func TestSection_CreateDrifts(t *testing.T) {
	s := lattice.NewSection("S01", []string{"Q1", "BPM1", "Q2"}, testElements())

	elements := s.CreateDrifts(lattice.DriftOptions{CSR: false, LSC: true, LSCBins: 50})

	var names []string
	for _, e := range elements {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Q1", "S01_drift_1", "BPM1", "S01_drift_2", "Q2"}, names)

	drift := elements[1]
	assert.True(t, drift.IsDrift())
	assert.Equal(t, "S01", drift.MachineArea)
	assert.InDelta(t, 0.4, drift.Length(), 1e-9)
	assert.InDelta(t, 1.3, drift.Middle().Z, 1e-9)
	assert.False(t, drift.Simulation.CSREnable)
	assert.Equal(t, 50, drift.Simulation.LSCBins)

	// Diagnostics are flattened to zero length without touching the original.
	assert.Zero(t, elements[2].Length())
	orig, _ := s.Get("BPM1")
	assert.Equal(t, 0.1, orig.Length())
}

func TestSection_CreateDriftsSkipsSubelements(t *testing.T) {
	s := lattice.NewSection("S02", []string{"CAV1", "SOL1", "SCR1"}, testElements())

	elements := s.CreateDrifts(lattice.DefaultDriftOptions())
	require.Len(t, elements, 3)
	assert.Equal(t, "CAV1", elements[0].Name)
	assert.Equal(t, "S02_drift_1", elements[1].Name)
	assert.InDelta(t, 0.5, elements[1].Length(), 1e-9)
	assert.Equal(t, "SCR1", elements[2].Name)
}

func TestSection_SValues(t *testing.T) {
	s := lattice.NewSection("S01", []string{"Q1", "BPM1", "Q2"}, testElements())

	exit := s.SValues(false, 0)
	assert.InDeltaSlice(t, []float64{0.2, 0.6, 0.6, 1.0, 1.2}, exit, 1e-9)

	entrance := s.SValues(true, 10)
	assert.InDeltaSlice(t, []float64{10, 10.2, 10.6, 10.6, 11.0}, entrance, 1e-9)

	pos := s.SPositions()
	assert.InDelta(t, 1.2, pos["Q2"], 1e-9)
	assert.InDelta(t, 0.6, pos["S01_drift_1"], 1e-9)
}

func TestLayout_Queries(t *testing.T) {
	m := testModel()
	layout, err := m.Layout("")
	require.NoError(t, err)

	assert.Equal(t, "line", layout.Name)
	assert.Equal(t, []string{"S01", "S02"}, layout.SectionNames())
	assert.Equal(t, []string{"Q1", "BPM1", "Q2", "CAV1", "SOL1", "SCR1"}, layout.Names())

	between, err := layout.ElementsBetween("BPM1", "CAV1", lattice.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BPM1", "Q2", "CAV1"}, between)

	_, err = layout.GetElement("NOPE")
	assert.EqualError(t, err, "Element NOPE does not exist along the beam path")
	assert.ErrorIs(t, err, domain.ErrElementNotFound)

	_, err = layout.ElementsBetween("NOPE", "", lattice.Filter{})
	assert.ErrorIs(t, err, domain.ErrElementNotFound)

	_, err = layout.Section("S03")
	assert.ErrorIs(t, err, domain.ErrSectionNotFound)
}

func TestModel_DefaultLayoutAndSections(t *testing.T) {
	m := testModel()

	assert.Equal(t, "line", m.DefaultLayout())
	assert.Equal(t, []string{"line"}, m.LayoutNames())
	assert.Equal(t, []string{"S01", "S02"}, m.SectionNames())

	s, err := m.Section("S02")
	require.NoError(t, err)
	assert.Equal(t, []string{"CAV1", "SOL1", "SCR1"}, s.Names())

	_, err = m.Layout("other")
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
	assert.ErrorIs(t, m.SetDefaultLayout("other"), domain.ErrLayoutNotFound)

	_, err = m.GetElement("NOPE")
	assert.EqualError(t, err, "Element NOPE does not exist anywhere in the accelerator lattice")
}

func TestModel_TypedQueries(t *testing.T) {
	m := testModel()

	tests := []struct {
		name  string
		query func(lattice.Span) ([]string, error)
		want  []string
	}{
		{"quadrupoles", m.Quadrupoles, []string{"Q1", "Q2"}},
		{"bpms", m.BPMs, []string{"BPM1"}},
		{"rf", m.RFCavities, []string{"CAV1"}},
		{"screens", m.Screens, []string{"SCR1"}},
		{"diagnostics", m.Diagnostics, []string{"BPM1", "SCR1"}},
		{"magnets", m.Magnets, []string{"Q1", "Q2", "SOL1"}},
		{"solenoids", m.Solenoids, []string{"SOL1"}},
		{"correctors", m.Correctors, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query(lattice.Span{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	cams, err := m.ScreensAndCameras(lattice.Span{})
	require.NoError(t, err)
	assert.Contains(t, cams, "SCR1")
}

func TestModel_ElementPositions(t *testing.T) {
	m := testModel()

	pos, err := m.ElementPositions(lattice.Span{End: "CAV1"})
	require.NoError(t, err)

	assert.Len(t, pos, 4)
	assert.InDelta(t, 0.2, pos["Q1"], 1e-9)
	assert.InDelta(t, 0.65, pos["BPM1"], 1e-9)
	assert.InDelta(t, 1.2, pos["Q2"], 1e-9)
	assert.InDelta(t, 2.6, pos["CAV1"], 1e-9)
}

func TestModel_WithoutLayouts(t *testing.T) {
	m := lattice.NewModel(testElements(), lattice.WithSections(lattice.SectionConfig{
		Sections: map[string][]string{"ARC": {"Q2", "Q1"}},
	}))

	_, err := m.Layout("")
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)

	arc, err := m.Section("ARC")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2", "Q1"}, arc.Names())

	_, err = m.Section("S01")
	assert.NoError(t, err)
}

func TestModel_Append(t *testing.T) {
	m := testModel()
	m.Append(element("Q3", "Quadrupole", "S02", 5.0, 0.2))

	layout, err := m.Layout("")
	require.NoError(t, err)
	assert.Equal(t, "Q3", layout.Names()[len(layout.Names())-1])
	assert.Equal(t, 7, m.Len())

	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, m.Everywhere(lattice.ByType("Quadrupole")))
}

func TestFloorOf(t *testing.T) {
	s := lattice.NewSection("S01", []string{"Q1", "BPM1", "Q2"}, testElements())

	floor := lattice.FloorOf(s.Elements())
	require.Len(t, floor, 3)
	assert.Equal(t, "BPM1", floor[1].Name)
	assert.InDelta(t, 0.9, floor[0].Start.Z, 1e-9)
	assert.InDelta(t, 1.2, floor[2].S, 1e-9)
}
