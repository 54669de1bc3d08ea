package translator

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

const ocelotPreamble = `from ocelot.cpbd.elements import *
from ocelot.cpbd.magnetic_lattice import MagneticLattice
from ocelot.cpbd.transformations.second_order import SecondTM
from ocelot.cpbd.transformations.kick import KickTM
from ocelot.cpbd.transformations.runge_kutta import RungeKuttaTM

method = {"global": SecondTM, Octupole: KickTM, Undulator: RungeKuttaTM}
lattices = {}

`

type ocelotTranslator struct {
	rules *RuleSet
}

func newOcelot() ocelotTranslator {
	return ocelotTranslator{rules: mustRules(Ocelot)}
}

func (ocelotTranslator) Code() Code { return Ocelot }

// Translate writes a Python script that builds one MagneticLattice per
// section, stored in the lattices dict under the section name. Beamlines of
// several sections add a lattice of the joined cells.
func (t ocelotTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	b.WriteString(ocelotPreamble)
	written := make(map[string]bool)
	for _, line := range lines {
		for _, s := range line.Sections {
			if written[s.Name] {
				continue
			}
			written[s.Name] = true
			b.WriteString(t.section(s, env))
		}
		if !line.isSection() {
			cells := make([]string, len(line.Sections))
			for i, s := range line.Sections {
				cells[i] = pythonIdent(s.Name) + "_cell"
			}
			fmt.Fprintf(&b, "lattices[%q] = MagneticLattice(%s, method=method)\n\n",
				line.Name, strings.Join(cells, " + "))
		}
	}
	return b.String(), nil
}

func (t ocelotTranslator) section(s *lattice.Section, env *Env) string {
	var b strings.Builder
	elements := s.CreateDrifts(driftOptions())
	names := make([]string, len(elements))
	for i, e := range elements {
		b.WriteString(t.element(e, env))
		names[i] = pythonIdent(e.Name)
	}
	cell := pythonIdent(s.Name) + "_cell"
	fmt.Fprintf(&b, "%s = (%s,)\n", cell, strings.Join(names, ", "))
	fmt.Fprintf(&b, "lattices[%q] = MagneticLattice(%s, method=method)\n\n", s.Name, cell)
	return b.String()
}

func (t ocelotTranslator) element(e *domain.Element, env *Env) string {
	etype := t.rules.ElementType(e.HardwareType)
	if etype == "Drift" && !e.IsDrift() && e.Kind() != domain.KindVacuum {
		env.warnUnsupported(Ocelot, e)
	}
	args := []string{"eid=" + pythonValue(e.Name)}
	if etype != "Marker" && etype != "Aperture" {
		for _, p := range t.rules.Params(e, etype, t.extra(e, etype)) {
			args = append(args, p.Key+"="+pythonValue(p.Value))
		}
	}
	return fmt.Sprintf("%s = %s(%s)\n", pythonIdent(e.Name), etype, strings.Join(args, ", "))
}

func (ocelotTranslator) extra(e *domain.Element, etype string) domain.FieldList {
	extra := integratedStrengths(e)
	switch {
	case e.Cavity != nil:
		cav := e.Cavity
		amplitude := cav.FieldAmplitude
		if sim := e.Simulation; sim != nil && sim.FieldAmplitude != 0 {
			amplitude = sim.FieldAmplitude
		}
		v := amplitude * 1e-9
		if cav.IsTravellingWave() {
			v *= math.Abs((float64(cav.Cells(e.Length()))+3.8) * cav.CellLength / math.Sqrt2)
		}
		extra = append(extra, domain.Field{Key: "v", Value: v})
	case etype == "Undulator" && e.Magnetic != nil:
		extra = append(extra, domain.Field{Key: "Kx", Value: e.Magnetic.NormalizedStrength()})
	}
	return extra
}

// pythonIdent turns an element name into a valid Python identifier.
func pythonIdent(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
