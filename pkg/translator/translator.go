package translator

import (
	"fmt"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/registry"
)

// Beamline is a named run of sections exported as one line.
type Beamline struct {
	Name     string
	Sections []*lattice.Section
}

// Elements returns the elements of every section in order, without drifts.
func (b Beamline) Elements() []*domain.Element {
	var out []*domain.Element
	for _, s := range b.Sections {
		out = append(out, s.Elements()...)
	}
	return out
}

// isSection reports whether the beamline is a single section exported under
// its own name.
func (b Beamline) isSection() bool {
	return len(b.Sections) == 1 && b.Sections[0].Name == b.Name
}

func (b Beamline) sectionNames() []string {
	out := make([]string, len(b.Sections))
	for i, s := range b.Sections {
		out[i] = s.Name
	}
	return out
}

// Translator renders beamlines as the input of one simulation code. A
// section export passes a single beamline holding that section, a layout
// export a beamline of its sections, and a model export one per layout.
type Translator interface {
	Code() Code
	Translate(lines []Beamline, env *Env) (string, error)
}

// Registry maps codes to translators. It is safe for concurrent use.
type Registry struct {
	reg *registry.Registry[Translator]
}

// NewRegistry returns a registry holding the built-in translators.
func NewRegistry() *Registry {
	r := &Registry{reg: registry.New[Translator]()}
	for _, t := range builtins() {
		r.Register(t)
	}
	return r
}

func builtins() []Translator {
	return []Translator{
		astraTranslator{},
		gptTranslator{},
		newElegant(),
		csrtrackTranslator{},
		newOcelot(),
		newXsuite(),
		newWakeT(),
		newGenesis(),
		newOpal(),
	}
}

// Register adds or replaces the translator for its code.
func (r *Registry) Register(t Translator) {
	r.reg.Register(string(t.Code()), t)
}

// Lookup returns the translator for a code.
func (r *Registry) Lookup(code Code) (Translator, error) {
	t, ok := r.reg.Lookup(string(code))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	return t, nil
}

// Parse resolves a code name against the built-in aliases and then the
// registered codes.
func (r *Registry) Parse(name string) (Code, error) {
	if c, err := ParseCode(name); err == nil {
		return c, nil
	}
	for _, n := range r.reg.Names() {
		if strings.EqualFold(n, name) {
			return Code(n), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, name)
}

// Codes lists the registered codes, sorted.
func (r *Registry) Codes() []Code {
	names := r.reg.Names()
	out := make([]Code, len(names))
	for i, n := range names {
		out[i] = Code(n)
	}
	return out
}

// ExportSection renders one section.
func (r *Registry) ExportSection(code Code, s *lattice.Section, env *Env) (string, error) {
	return r.export(code, []Beamline{{Name: s.Name, Sections: []*lattice.Section{s}}}, env)
}

// ExportLayout renders one beam path.
func (r *Registry) ExportLayout(code Code, l *lattice.Layout, env *Env) (string, error) {
	return r.export(code, []Beamline{{Name: l.Name, Sections: l.Sections()}}, env)
}

// ExportModel renders every beam path of the machine. Without layouts each
// section is its own line.
func (r *Registry) ExportModel(code Code, m *lattice.Model, env *Env) (string, error) {
	var lines []Beamline
	for _, name := range m.LayoutNames() {
		l, err := m.Layout(name)
		if err != nil {
			return "", err
		}
		lines = append(lines, Beamline{Name: l.Name, Sections: l.Sections()})
	}
	if len(lines) == 0 {
		for _, name := range m.SectionNames() {
			s, err := m.Section(name)
			if err != nil {
				return "", err
			}
			lines = append(lines, Beamline{Name: s.Name, Sections: []*lattice.Section{s}})
		}
	}
	return r.export(code, lines, env)
}

func (r *Registry) export(code Code, lines []Beamline, env *Env) (string, error) {
	t, err := r.Lookup(code)
	if err != nil {
		return "", err
	}
	if env == nil {
		env = NewEnv()
	}
	out, err := t.Translate(lines, env)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", code, err)
	}
	return out, nil
}

var defaultRegistry = NewRegistry()

// Default returns the package registry.
func Default() *Registry { return defaultRegistry }

// Register adds a translator to the package registry.
func Register(t Translator) { defaultRegistry.Register(t) }

// ExportSection renders a section with the package registry.
func ExportSection(code Code, s *lattice.Section, env *Env) (string, error) {
	return defaultRegistry.ExportSection(code, s, env)
}

// ExportLayout renders a beam path with the package registry.
func ExportLayout(code Code, l *lattice.Layout, env *Env) (string, error) {
	return defaultRegistry.ExportLayout(code, l, env)
}

// ExportModel renders the whole machine with the package registry.
func ExportModel(code Code, m *lattice.Model, env *Env) (string, error) {
	return defaultRegistry.ExportModel(code, m, env)
}

// driftOptions are the drift settings used by every drift-filled export.
func driftOptions() lattice.DriftOptions {
	return lattice.DefaultDriftOptions()
}
