package lattice

import (
	"fmt"
	"slices"

	"github.com/aretw0/nala/pkg/domain"
)

var (
	rfFilter         = ByClass("rf")
	diagnosticFilter = ByClass("diagnostic")
	magnetFilter     = ByClass("magnet")
	vacuumFilter     = ByClass("vacuum")
	correctorTypes   = []string{"Combined_Corrector", "Horizontal_Corrector", "Vertical_Corrector"}
)

func classAndType(class string, types ...string) Filter {
	return Filter{Classes: []string{class}, Types: types}
}

// RFCavities returns the RF elements in span.
func (m *Model) RFCavities(span Span) ([]string, error) {
	return m.ElementsBetween(span, rfFilter)
}

// Diagnostics returns the diagnostics in span.
func (m *Model) Diagnostics(span Span) ([]string, error) {
	return m.ElementsBetween(span, diagnosticFilter)
}

// ChargeDiagnostics returns the Faraday cups, wall current monitors and
// current transformers in span.
func (m *Model) ChargeDiagnostics(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("diagnostic", "FCM", "WCM", "ICT"))
}

// BPMs returns the beam position monitors in span.
func (m *Model) BPMs(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("diagnostic", "BPM"))
}

// PositionDiagnostics returns the screens and BPMs in span.
func (m *Model) PositionDiagnostics(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("diagnostic", "Screen", "BPM"))
}

// Screens returns the screens in span.
func (m *Model) Screens(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("diagnostic", "Screen"))
}

// Cameras returns the camera of every screen in span.
func (m *Model) Cameras(span Span) ([]string, error) {
	screens, err := m.ScreensAndCameras(span)
	if err != nil {
		return nil, err
	}
	names, _ := m.Screens(span)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, screens[n])
	}
	return out, nil
}

// ScreensAndCameras maps every screen in span to its camera.
func (m *Model) ScreensAndCameras(span Span) (map[string]string, error) {
	names, err := m.Screens(span)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		e, _ := m.elements.Get(n)
		if e.Diagnostic != nil {
			out[n] = e.Diagnostic.CameraName
		} else {
			out[n] = ""
		}
	}
	return out, nil
}

// Magnets returns the magnets in span.
func (m *Model) Magnets(span Span) ([]string, error) {
	return m.ElementsBetween(span, magnetFilter)
}

// Quadrupoles returns the quadrupoles in span.
func (m *Model) Quadrupoles(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Quadrupole"))
}

// Dipoles returns the dipoles in span.
func (m *Model) Dipoles(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Dipole"))
}

// Correctors returns the steering magnets in span.
func (m *Model) Correctors(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", correctorTypes...))
}

// HorizontalCorrectors returns the correctors that steer horizontally.
func (m *Model) HorizontalCorrectors(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Combined_Corrector", "Horizontal_Corrector"))
}

// VerticalCorrectors returns the correctors that steer vertically.
func (m *Model) VerticalCorrectors(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Combined_Corrector", "Vertical_Corrector"))
}

// Sextupoles returns the sextupoles in span.
func (m *Model) Sextupoles(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Sextupole"))
}

// Solenoids returns the solenoids in span.
func (m *Model) Solenoids(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("magnet", "Solenoid"))
}

// VacuumComponents returns the vacuum hardware in span.
func (m *Model) VacuumComponents(span Span) ([]string, error) {
	return m.ElementsBetween(span, vacuumFilter)
}

// Shutters returns the shutters in span.
func (m *Model) Shutters(span Span) ([]string, error) {
	return m.ElementsBetween(span, classAndType("vacuum", "Shutter"))
}

// ElementPositions maps every element in span to the s value of its exit,
// rounded to the micron. Drifts are filled in but not reported.
func (m *Model) ElementPositions(span Span) (map[string]float64, error) {
	names, err := m.ElementsBetween(span, Filter{})
	if err != nil {
		return nil, err
	}
	elements, err := m.Resolve(names)
	if err != nil {
		return nil, err
	}
	filled := insertDrifts(elements, func(n int) string { return fmt.Sprintf("drift%d", n) }, DefaultDriftOptions())

	out := make(map[string]float64, len(elements))
	s := 0.0
	for _, e := range filled {
		s += e.Length()
		if !e.IsDrift() {
			out[e.Name] = round6(s)
		}
	}
	return out, nil
}

// FloorPoint is the cartesian placement of one element.
type FloorPoint struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Start  domain.Position `json:"start"`
	Middle domain.Position `json:"middle"`
	End    domain.Position `json:"end"`
	S      float64         `json:"s"`
}

// Floor returns the floor coordinates of every element along a beam path,
// with the path length at each exit.
func (m *Model) Floor(path string) ([]FloorPoint, error) {
	layout, err := m.Layout(path)
	if err != nil {
		return nil, err
	}
	return FloorOf(layout.Elements()), nil
}

// FloorOf computes floor coordinates for an ordered run of elements.
func FloorOf(elements []*domain.Element) []FloorPoint {
	filled := insertDrifts(elements, func(n int) string { return fmt.Sprintf("drift%d", n) }, DefaultDriftOptions())
	out := make([]FloorPoint, 0, len(elements))
	s := 0.0
	for _, e := range filled {
		s += e.Length()
		if e.IsDrift() && !slices.Contains(elements, e) {
			continue
		}
		out = append(out, FloorPoint{
			Name:   e.Name,
			Type:   e.HardwareType,
			Start:  e.Start(),
			Middle: e.Middle(),
			End:    e.End(),
			S:      round6(s),
		})
	}
	return out
}
