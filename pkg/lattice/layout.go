package lattice

import (
	"github.com/aretw0/nala/pkg/domain"
)

const alongBeamPath = "along the beam path"

// Layout is one beam path: an ordered chain of sections.
type Layout struct {
	Name                  string
	MasterLatticeLocation string

	sections []*Section
	all      *ElementList
}

// NewLayout chains the sections in the given order.
func NewLayout(name string, sections ...*Section) *Layout {
	l := &Layout{Name: name, sections: sections, all: NewElementList()}
	for _, s := range sections {
		for _, e := range s.Elements() {
			l.all.Add(e)
		}
	}
	return l
}

// Sections returns the sections in order.
func (l *Layout) Sections() []*Section {
	return append([]*Section(nil), l.sections...)
}

// SectionNames returns the section names in order.
func (l *Layout) SectionNames() []string {
	out := make([]string, len(l.sections))
	for i, s := range l.sections {
		out[i] = s.Name
	}
	return out
}

// Section returns a section of the layout by name.
func (l *Layout) Section(name string) (*Section, error) {
	for _, s := range l.sections {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, &domain.LatticeError{Scope: "in layout " + l.Name, Name: name, Err: domain.ErrSectionNotFound}
}

// Elements returns every element along the path.
func (l *Layout) Elements() []*domain.Element {
	return l.all.Elements()
}

// Names returns every element name along the path.
func (l *Layout) Names() []string {
	return l.all.Names()
}

// GetElement looks an element up along the path.
func (l *Layout) GetElement(name string) (*domain.Element, error) {
	e, ok := l.all.Get(name)
	if !ok {
		return nil, domain.NotFound(name, alongBeamPath)
	}
	return e, nil
}

// ElementsBetween returns the names of the elements from start to end,
// inclusive, that pass the filter. An empty start or end means the first or
// last element of the path.
func (l *Layout) ElementsBetween(start, end string, f Filter) ([]string, error) {
	elements, err := l.between(start, end)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range elements {
		if f.Match(e) {
			out = append(out, e.Name)
		}
	}
	return out, nil
}

func (l *Layout) between(start, end string) ([]*domain.Element, error) {
	if l.all.Len() == 0 {
		if start != "" {
			return nil, domain.NotFound(start, alongBeamPath)
		}
		if end != "" {
			return nil, domain.NotFound(end, alongBeamPath)
		}
		return nil, nil
	}
	first, last := 0, l.all.Len()-1
	if start != "" {
		if first = l.all.Index(start); first < 0 {
			return nil, domain.NotFound(start, alongBeamPath)
		}
	}
	if end != "" {
		if last = l.all.Index(end); last < 0 {
			return nil, domain.NotFound(end, alongBeamPath)
		}
	}
	if last < first {
		return nil, nil
	}
	return l.all.elements[first : last+1], nil
}

// AllElements returns every element name on the path that passes f.
func (l *Layout) AllElements(f Filter) []string {
	out, _ := l.ElementsBetween("", "", f)
	return out
}
