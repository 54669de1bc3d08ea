package lattice

import (
	"fmt"
	"math"

	"github.com/aretw0/nala/pkg/domain"
)

// Section is an ordered run of elements along the beam path.
type Section struct {
	Name                  string
	Order                 []string
	MasterLatticeLocation string

	elements *ElementList
}

// NewSection builds a section. Elements not named in order are ignored and
// names in order without an element are skipped.
func NewSection(name string, order []string, elements []*domain.Element) *Section {
	byName := make(map[string]*domain.Element, len(elements))
	for _, e := range elements {
		byName[e.Name] = e
	}
	list := NewElementList()
	for _, n := range order {
		if e, ok := byName[n]; ok {
			list.Add(e)
		}
	}
	return &Section{
		Name:     name,
		Order:    append([]string(nil), order...),
		elements: list,
	}
}

// Elements returns the section's elements in order.
func (s *Section) Elements() []*domain.Element {
	return s.elements.Elements()
}

// Names returns the element names in order.
func (s *Section) Names() []string {
	return s.elements.Names()
}

// Get returns an element of the section.
func (s *Section) Get(name string) (*domain.Element, bool) {
	return s.elements.Get(name)
}

// Len is the number of elements, without drifts.
func (s *Section) Len() int { return s.elements.Len() }

// DriftOptions configures the drifts CreateDrifts inserts.
type DriftOptions struct {
	CSR     bool
	LSC     bool
	LSCBins int
}

// DefaultDriftOptions enables both collective effects with 20 LSC bins.
func DefaultDriftOptions() DriftOptions {
	return DriftOptions{CSR: true, LSC: true, LSCBins: 20}
}

// CreateDrifts returns the section's elements with drift spaces filling the
// gaps between them. Subelements are left out and diagnostics are treated as
// having zero length. Drifts are named <section>_drift_<n>, counting from 1.
func (s *Section) CreateDrifts(opts DriftOptions) []*domain.Element {
	var elements []*domain.Element
	for _, e := range s.elements.elements {
		if e.Subelement {
			continue
		}
		if e.IsDiagnostic() && e.Physical.Length != 0 {
			e = e.Clone()
			e.Physical.Length = 0
		}
		elements = append(elements, e)
	}
	return insertDrifts(elements, func(n int) string {
		return fmt.Sprintf("%s_drift_%d", s.Name, n)
	}, opts)
}

// insertDrifts pairs the exit of each element with the entrance of the next
// and adds a drift wherever they are apart.
func insertDrifts(elements []*domain.Element, name func(int) string, opts DriftOptions) []*domain.Element {
	if len(elements) == 0 {
		return nil
	}
	out := make([]*domain.Element, 0, 2*len(elements))
	n := 0
	for i, e := range elements {
		out = append(out, e)
		if i == len(elements)-1 {
			break
		}
		from := e.End()
		to := elements[i+1].Start()
		length := round6(to.Sub(from).Length())
		if length <= 0 {
			continue
		}
		n++
		d := domain.NewDrift(name(n), e.MachineArea, math.Abs(length), from.Add(to).Scale(0.5))
		d.Simulation.CSREnable = opts.CSR
		d.Simulation.LSCEnable = opts.LSC
		d.Simulation.LSCBins = opts.LSCBins
		out = append(out, d)
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// SValues returns the cumulative path length over the drift filled section.
// With atEntrance the value is taken at each element's entrance, otherwise
// at its exit.
func (s *Section) SValues(atEntrance bool, startingS float64) []float64 {
	elements := s.CreateDrifts(DefaultDriftOptions())
	return sValues(elements, atEntrance, startingS)
}

func sValues(elements []*domain.Element, atEntrance bool, startingS float64) []float64 {
	out := make([]float64, len(elements))
	sum := startingS
	for i, e := range elements {
		if atEntrance {
			out[i] = sum
			sum += e.Length()
		} else {
			sum += e.Length()
			out[i] = sum
		}
	}
	return out
}

// SPositions maps every element, drifts included, to its exit s.
func (s *Section) SPositions() map[string]float64 {
	elements := s.CreateDrifts(DefaultDriftOptions())
	values := sValues(elements, false, 0)
	out := make(map[string]float64, len(elements))
	for i, e := range elements {
		out[e.Name] = values[i]
	}
	return out
}
