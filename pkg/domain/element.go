package domain

import (
	"path"
	"strings"
)

// Element is a single accelerator component. Only Name and HardwareType are
// mandatory; the sub-models are populated when the hardware type uses them.
type Element struct {
	Name          string   `json:"name" yaml:"name" mapstructure:"name"`
	HardwareClass string   `json:"hardware_class" yaml:"hardware_class" mapstructure:"hardware_class"`
	HardwareType  string   `json:"hardware_type" yaml:"hardware_type" mapstructure:"hardware_type"`
	HardwareModel string   `json:"hardware_model,omitempty" yaml:"hardware_model,omitempty" mapstructure:"hardware_model"`
	MachineArea   string   `json:"machine_area" yaml:"machine_area" mapstructure:"machine_area"`
	VirtualName   string   `json:"virtual_name,omitempty" yaml:"virtual_name,omitempty" mapstructure:"virtual_name"`
	Alias         []string `json:"alias,omitempty" yaml:"alias,omitempty" mapstructure:"alias"`
	Subelement    bool     `json:"subelement,omitempty" yaml:"subelement,omitempty" mapstructure:"subelement"`

	Physical     Physical      `json:"physical" yaml:"physical" mapstructure:"physical"`
	Magnetic     *Magnetic     `json:"magnetic,omitempty" yaml:"magnetic,omitempty" mapstructure:"magnetic"`
	Cavity       *Cavity       `json:"cavity,omitempty" yaml:"cavity,omitempty" mapstructure:"cavity"`
	Wakefield    *Wakefield    `json:"wakefield,omitempty" yaml:"wakefield,omitempty" mapstructure:"wakefield"`
	Simulation   *Simulation   `json:"simulation,omitempty" yaml:"simulation,omitempty" mapstructure:"simulation"`
	Aperture     *Aperture     `json:"aperture,omitempty" yaml:"aperture,omitempty" mapstructure:"aperture"`
	Plasma       *Plasma       `json:"plasma,omitempty" yaml:"plasma,omitempty" mapstructure:"plasma"`
	Laser        *Laser        `json:"laser,omitempty" yaml:"laser,omitempty" mapstructure:"laser"`
	Diagnostic   *Diagnostic   `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty" mapstructure:"diagnostic"`
	Electrical   *Electrical   `json:"electrical,omitempty" yaml:"electrical,omitempty" mapstructure:"electrical"`
	Manufacturer *Manufacturer `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty" mapstructure:"manufacturer"`
	Degauss      *Degauss      `json:"degauss,omitempty" yaml:"degauss,omitempty" mapstructure:"degauss"`
	Reference    *Reference    `json:"reference,omitempty" yaml:"reference,omitempty" mapstructure:"reference"`

	// Controls is carried through untouched for the control system layer.
	Controls map[string]any `json:"controls,omitempty" yaml:"controls,omitempty" mapstructure:"controls"`
}

// Kind returns the translation group of the element.
func (e *Element) Kind() Kind {
	if info, ok := LookupType(e.HardwareType); ok {
		return info.Kind
	}
	return KindOther
}

// Is reports whether the element's hardware type matches any of the given
// names, case-insensitively.
func (e *Element) Is(types ...string) bool {
	for _, t := range types {
		if strings.EqualFold(e.HardwareType, t) {
			return true
		}
	}
	return false
}

// Length is the physical length along the reference path, falling back to
// the magnetic length.
func (e *Element) Length() float64 {
	if e.Physical.Length == 0 && e.Magnetic != nil {
		return e.Magnetic.Length
	}
	return e.Physical.Length
}

// Angle is the bend angle in radians.
func (e *Element) Angle() float64 {
	if e.Magnetic != nil && e.Magnetic.Angle != 0 {
		return e.Magnetic.Angle
	}
	return e.Physical.Angle
}

// Geometry is the physical placement with the bend angle and length of the
// magnetic data filled in, so elements built in code and decoded ones agree.
func (e *Element) Geometry() Physical {
	p := e.Physical
	p.Angle = e.Angle()
	p.Length = e.Length()
	return p
}

// Start is the entrance position of the element.
func (e *Element) Start() Position { return e.Geometry().Start() }

// End is the exit position of the element.
func (e *Element) End() Position { return e.Geometry().End() }

// Middle is the nominal centre of the element.
func (e *Element) Middle() Position { return e.Physical.Middle }

// IsDiagnostic reports whether the element is beam instrumentation.
func (e *Element) IsDiagnostic() bool {
	return e.Kind() == KindDiagnostic
}

// IsDrift reports whether the element is a drift space.
func (e *Element) IsDrift() bool {
	return e.Kind() == KindDrift
}

// FieldReference returns the position used to place field maps.
func (e *Element) FieldReference() Position {
	if e.Simulation == nil {
		return e.Start()
	}
	return e.Geometry().Reference(e.Simulation.FieldReferencePosition)
}

// YAMLPath is the relative path of the element's own YAML document.
func (e *Element) YAMLPath() string {
	return path.Join(e.HardwareClass, e.HardwareType, e.Name+".yaml")
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	c.Alias = append([]string(nil), e.Alias...)
	if e.Magnetic != nil {
		m := *e.Magnetic
		if e.Magnetic.Multipoles != nil {
			m.Multipoles = make(Multipoles, len(e.Magnetic.Multipoles))
			for k, v := range e.Magnetic.Multipoles {
				m.Multipoles[k] = v
			}
		}
		m.FieldIntegralCoefficients = append([]float64(nil), e.Magnetic.FieldIntegralCoefficients...)
		m.LinearSaturationCoefficients = append([]float64(nil), e.Magnetic.LinearSaturationCoefficients...)
		c.Magnetic = &m
	}
	c.Cavity = clonePtr(e.Cavity)
	c.Wakefield = clonePtr(e.Wakefield)
	if e.Simulation != nil {
		s := *e.Simulation
		s.FieldDefinition = clonePtr(e.Simulation.FieldDefinition)
		s.WakefieldDefinition = clonePtr(e.Simulation.WakefieldDefinition)
		s.Twiss = clonePtr(e.Simulation.Twiss)
		c.Simulation = &s
	}
	c.Aperture = clonePtr(e.Aperture)
	c.Plasma = clonePtr(e.Plasma)
	c.Laser = clonePtr(e.Laser)
	c.Diagnostic = clonePtr(e.Diagnostic)
	c.Electrical = clonePtr(e.Electrical)
	c.Manufacturer = clonePtr(e.Manufacturer)
	c.Degauss = clonePtr(e.Degauss)
	c.Reference = clonePtr(e.Reference)
	if e.Controls != nil {
		c.Controls = make(map[string]any, len(e.Controls))
		for k, v := range e.Controls {
			c.Controls[k] = v
		}
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NewDrift builds a drift space of the given length centred on middle.
func NewDrift(name, area string, length float64, middle Position) *Element {
	d := NewElement(name, "Drift")
	d.MachineArea = area
	d.Physical = Physical{
		Middle: middle,
		Datum:  middle,
		Length: length,
	}
	return d
}
