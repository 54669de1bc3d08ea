package lattice

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/aretw0/nala/pkg/domain"
)

// LayoutConfig lists the beam paths, each as an ordered list of sections.
type LayoutConfig struct {
	Layouts       map[string][]string `yaml:"layouts" json:"layouts"`
	DefaultLayout string              `yaml:"default_layout,omitempty" json:"default_layout,omitempty"`
}

// SectionConfig lists the sections, each as an ordered list of element names.
type SectionConfig struct {
	Sections map[string][]string `yaml:"sections" json:"sections"`
}

// Model is the whole machine: every element, every section and every
// beam path.
type Model struct {
	MasterLatticeLocation string

	elements      *ElementList
	layoutConfig  LayoutConfig
	sectionConfig SectionConfig
	sectionDefs   map[string][]string
	sectionOrder  []string
	sections      map[string]*Section
	layouts       map[string]*Layout
	defaultLayout string
	logger        *slog.Logger
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithLayouts sets the beam path definitions.
func WithLayouts(cfg LayoutConfig) ModelOption {
	return func(m *Model) {
		m.layoutConfig = cfg
	}
}

// WithSections sets the section definitions. Without them sections are
// derived from each element's machine area.
func WithSections(cfg SectionConfig) ModelOption {
	return func(m *Model) {
		m.sectionConfig = cfg
	}
}

// WithMasterLatticeLocation records the directory field maps are resolved
// against.
func WithMasterLatticeLocation(dir string) ModelOption {
	return func(m *Model) {
		m.MasterLatticeLocation = dir
	}
}

// WithLogger sets the logger used for warnings while building.
func WithLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		m.logger = logger
	}
}

// NewModel builds sections and layouts from the elements.
func NewModel(elements []*domain.Element, opts ...ModelOption) *Model {
	m := &Model{
		elements: NewElementList(elements...),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.defaultLayout = m.layoutConfig.DefaultLayout
	m.rebuild()
	return m
}

// Append adds or replaces elements and rebuilds sections and layouts.
func (m *Model) Append(elements ...*domain.Element) {
	for _, e := range elements {
		m.elements.Add(e)
	}
	m.rebuild()
}

func (m *Model) rebuild() {
	m.sectionDefs = make(map[string][]string, len(m.sectionConfig.Sections))
	m.sectionOrder = nil
	for name, order := range m.sectionConfig.Sections {
		m.sectionDefs[name] = order
	}
	m.sections = make(map[string]*Section)
	m.layouts = make(map[string]*Layout)

	m.buildSectionsFromElements()
	m.buildLayouts()
}

// buildSectionsFromElements groups the elements by machine area. Elements
// are taken in beam order: by the z of their entrance, load order breaking
// ties. Areas appear in the order their first element does. A configured
// section keeps its configured element order.
func (m *Model) buildSectionsFromElements() {
	all := m.elements.elements
	byArea := make(map[string][]*domain.Element)
	for _, e := range beamOrder(all) {
		if e.MachineArea == "" {
			continue
		}
		if _, seen := byArea[e.MachineArea]; !seen {
			m.sectionOrder = append(m.sectionOrder, e.MachineArea)
		}
		byArea[e.MachineArea] = append(byArea[e.MachineArea], e)
	}
	for _, area := range m.sectionOrder {
		if order, ok := m.sectionDefs[area]; ok {
			m.addSection(area, order, all)
			continue
		}
		els := byArea[area]
		m.sectionDefs[area] = names(els)
		m.addSection(area, names(els), els)
	}
}

// beamOrder sorts a copy of elements by the z of their entrance.
func beamOrder(elements []*domain.Element) []*domain.Element {
	out := slices.Clone(elements)
	slices.SortStableFunc(out, func(a, b *domain.Element) int {
		return cmp.Compare(a.Start().Z, b.Start().Z)
	})
	return out
}

func (m *Model) buildLayouts() {
	all := m.elements.elements
	if len(m.layoutConfig.Layouts) == 0 {
		for _, name := range sortedKeys(m.sectionDefs) {
			m.addSection(name, m.sectionDefs[name], all)
		}
		return
	}

	for _, path := range sortedKeys(m.layoutConfig.Layouts) {
		var sections []*Section
		for _, area := range m.layoutConfig.Layouts[path] {
			order, ok := m.sectionDefs[area]
			if !ok {
				m.logger.Warn("section missing from layout", "layout", path, "section", area)
				continue
			}
			sections = append(sections, m.addSection(area, order, all))
		}
		layout := NewLayout(path, sections...)
		layout.MasterLatticeLocation = m.MasterLatticeLocation
		m.layouts[path] = layout
	}
	if len(m.layouts) == 1 && m.defaultLayout == "" {
		for name := range m.layouts {
			m.defaultLayout = name
		}
	}
}

func (m *Model) addSection(name string, order []string, elements []*domain.Element) *Section {
	s := NewSection(name, order, elements)
	s.MasterLatticeLocation = m.MasterLatticeLocation
	if _, ok := m.sections[name]; !ok && !slices.Contains(m.sectionOrder, name) {
		m.sectionOrder = append(m.sectionOrder, name)
	}
	m.sections[name] = s
	return s
}

// Elements returns every element of the machine in insertion order.
func (m *Model) Elements() []*domain.Element {
	return m.elements.Elements()
}

// Len is the number of elements.
func (m *Model) Len() int { return m.elements.Len() }

// DefaultLayout is the beam path used when none is named.
func (m *Model) DefaultLayout() string { return m.defaultLayout }

// SetDefaultLayout changes the default beam path.
func (m *Model) SetDefaultLayout(name string) error {
	if _, ok := m.layouts[name]; !ok {
		return &domain.LatticeError{Scope: "in the machine model", Name: name, Err: domain.ErrLayoutNotFound}
	}
	m.defaultLayout = name
	return nil
}

// LayoutNames returns the beam paths, sorted.
func (m *Model) LayoutNames() []string {
	return sortedKeys(m.layouts)
}

// SectionNames returns the sections in the order they were built.
func (m *Model) SectionNames() []string {
	return append([]string(nil), m.sectionOrder...)
}

// Layout returns a beam path by name. An empty name selects the default.
func (m *Model) Layout(name string) (*Layout, error) {
	if name == "" {
		name = m.defaultLayout
		if _, ok := m.layouts[name]; !ok {
			return nil, fmt.Errorf("default layout %q is not defined, and more than one layout exists: %w",
				name, domain.ErrLayoutNotFound)
		}
	}
	l, ok := m.layouts[name]
	if !ok {
		return nil, &domain.LatticeError{Scope: "in the machine model", Name: name, Err: domain.ErrLayoutNotFound}
	}
	return l, nil
}

// Section returns a section by name.
func (m *Model) Section(name string) (*Section, error) {
	s, ok := m.sections[name]
	if !ok {
		return nil, &domain.LatticeError{Scope: "in the machine model", Name: name, Err: domain.ErrSectionNotFound}
	}
	return s, nil
}

// GetElement looks an element up anywhere in the machine.
func (m *Model) GetElement(name string) (*domain.Element, error) {
	e, ok := m.elements.Get(name)
	if !ok {
		return nil, domain.NotFound(name, "anywhere in the accelerator lattice")
	}
	return e, nil
}

// Span bounds a query along a beam path. Empty fields mean the first
// element, the last element and the default layout.
type Span struct {
	Start string
	End   string
	Path  string
}

// ElementsBetween returns the names from span.Start to span.End, inclusive,
// that pass the filter. When the end element's machine area names a layout,
// that layout is searched instead of the requested path.
func (m *Model) ElementsBetween(span Span, f Filter) ([]string, error) {
	layout, err := m.Layout(span.Path)
	if err != nil {
		return nil, err
	}
	if span.End != "" {
		end, err := m.GetElement(span.End)
		if err != nil {
			return nil, err
		}
		if l, ok := m.layouts[end.MachineArea]; ok {
			layout = l
		}
	}
	return layout.ElementsBetween(span.Start, span.End, f)
}

// AllElements returns every element name on the default path passing f.
func (m *Model) AllElements(f Filter) ([]string, error) {
	return m.ElementsBetween(Span{}, f)
}

// Everywhere returns the names passing f on any beam path, sorted.
func (m *Model) Everywhere(f Filter) []string {
	set := make(map[string]struct{})
	for _, l := range m.layouts {
		for _, n := range l.AllElements(f) {
			set[n] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Resolve returns the elements for a list of names.
func (m *Model) Resolve(names []string) ([]*domain.Element, error) {
	out := make([]*domain.Element, 0, len(names))
	var errs []error
	for _, n := range names {
		e, err := m.GetElement(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, e)
	}
	return out, errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
