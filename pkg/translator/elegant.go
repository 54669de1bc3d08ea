package translator

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

const elegantLineWidth = 76

type elegantTranslator struct {
	rules *RuleSet
}

func newElegant() elegantTranslator {
	return elegantTranslator{rules: mustRules(Elegant)}
}

func (elegantTranslator) Code() Code { return Elegant }

// Translate writes each section once, followed by its LINE. Beamlines made of
// several sections get a LINE of their sections. When the environment
// carries a charge, a CHARGE element leads every section.
func (t elegantTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	written := make(map[string]bool)
	for _, line := range lines {
		for _, s := range line.Sections {
			if written[s.Name] {
				continue
			}
			written[s.Name] = true
			b.WriteString(t.section(s, env, env.Charge != 0))
			if !line.isSection() {
				b.WriteString("\n")
			}
		}
		if !line.isSection() {
			fmt.Fprintf(&b, "%s: LINE = (%s)\n\n", line.Name, strings.Join(line.sectionNames(), ", "))
		}
	}
	return b.String(), nil
}

func (t elegantTranslator) section(s *lattice.Section, env *Env, withCharge bool) string {
	var b strings.Builder
	var names []string
	if withCharge {
		q := s.Name + "_Q"
		fmt.Fprintf(&b, "%s: CHARGE, TOTAL = %s;\n", q, formatFloat(math.Abs(env.Charge)))
		names = append(names, q)
	}
	for _, e := range s.CreateDrifts(driftOptions()) {
		b.WriteString(t.element(e, env))
		names = append(names, e.Name)
	}
	fmt.Fprintf(&b, "%s: LINE = (%s)\n", s.Name, strings.Join(names, ", "))
	return b.String()
}

func (t elegantTranslator) element(e *domain.Element, env *Env) string {
	etype := t.rules.ElementType(e.HardwareType)
	extra := integratedStrengths(e)
	sim := e.Simulation
	if sim == nil {
		sim = &domain.Simulation{}
	}

	switch e.Kind() {
	case domain.KindCavity:
		return t.cavity(e, env)
	case domain.KindWakefield:
		etype, extra = t.wake(e, env)
	case domain.KindDrift:
		switch {
		case sim.CSREnable:
			etype = "CSRDRIFT"
		case sim.LSCEnable:
			etype = "LSCDRIFT"
			extra = append(extra, domain.Field{Key: "bins", Value: sim.LSCBins})
		default:
			etype = "DRIF"
		}
	case domain.KindMagnet:
		if etype == "CSRCSBEND" && !sim.CSREnable {
			etype = "SBEN"
		}
	case domain.KindAperture:
		if a := e.Aperture; a != nil {
			switch a.Shape {
			case domain.ShapeCircular, domain.ShapeElliptical:
				etype = "ECOL"
			case domain.ShapeRectangular, domain.ShapePlanar:
				etype = "RCOL"
			}
		}
	case domain.KindDiagnostic:
		if etype == "WATCH" && sim.OutputFilename == "" {
			file := path.Join(env.OutputDir, e.Name+".SDDS")
			extra = append(extra, domain.Field{Key: "filename", Value: quote(file)})
		}
	}
	return elegantLine(e.Name, etype, t.rules.Params(e, etype, extra), elegantLineWidth)
}

// cavity picks RFCA, RFTMEZ0 for a field map or RFCW for a wake table, and
// compensates the voltage, phase and kick count for Elegant's conventions.
func (t elegantTranslator) cavity(e *domain.Element, env *Env) string {
	etype := t.rules.ElementType(e.HardwareType)
	sim := e.Simulation
	if sim == nil {
		sim = &domain.Simulation{}
	}
	cav := e.Cavity
	if cav == nil {
		cav = &domain.Cavity{}
	}
	cells := cav.Cells(e.Length())

	var extra domain.FieldList
	if sim.WakefieldDefinition.IsZero() {
		if etype != "RFDF" {
			etype = "RFCA"
		}
		if !sim.FieldDefinition.IsZero() {
			etype = "RFTMEZ0"
			extra = append(extra,
				domain.Field{Key: "inputfile", Value: quote(env.FieldFile(sim.FieldDefinition))},
				domain.Field{Key: "frequency", Value: cav.Frequency},
				domain.Field{Key: "ez_peak", Value: math.Abs(1e-3 / math.Sqrt2 * cav.FieldAmplitude)},
			)
		}
	} else {
		etype = "RFCW"
		extra = append(extra, wakeColumns(sim, env.FieldFile(sim.WakefieldDefinition))...)
	}

	phase := 90 - cav.Phase
	if etype == "RFTMEZ0" {
		phase = cav.Phase / 360 * 2 * 3.14159
	}
	volt := cav.FieldAmplitude
	if cav.IsTravellingWave() {
		volt = math.Abs((float64(cells) + 3.8) * cav.CellLength / math.Sqrt2 * volt)
	}
	extra = append(extra,
		domain.Field{Key: "phase", Value: phase},
		domain.Field{Key: "volt", Value: volt},
	)
	if cells > 1 {
		extra = append(extra, domain.Field{Key: "n_kicks", Value: 3 * cells})
	}
	return elegantLine(e.Name, etype, t.rules.Params(e, etype, extra), 0)
}

// wakeColumns names the wake file keyword by the columns the table has: all
// three planes use wakefile, longitudinal only zwakefile and transverse only
// trwakefile.
func wakeColumns(sim *domain.Simulation, file string) domain.FieldList {
	var out domain.FieldList
	hasX, hasY, hasZ := sim.WxColumn != "", sim.WyColumn != "", sim.WzColumn != ""
	switch {
	case hasX && hasY && hasZ:
		out = append(out, domain.Field{Key: "wakefile", Value: quote(file)})
	case hasZ && !hasX && !hasY:
		out = append(out, domain.Field{Key: "zwakefile", Value: quote(file)})
	case hasX && hasY:
		out = append(out, domain.Field{Key: "trwakefile", Value: quote(file)})
	}
	for _, c := range []struct{ key, col string }{
		{"tcolumn", sim.TColumn},
		{"zcolumn", sim.ZColumn},
		{"wxcolumn", sim.WxColumn},
		{"wycolumn", sim.WyColumn},
		{"wzcolumn", sim.WzColumn},
	} {
		if c.col != "" {
			out = append(out, domain.Field{Key: c.key, Value: quote(c.col)})
		}
	}
	return out
}

func (t elegantTranslator) wake(e *domain.Element, env *Env) (string, domain.FieldList) {
	sim := e.Simulation
	if sim == nil || sim.WakefieldDefinition.IsZero() {
		return "MARK", nil
	}
	etype := "WAKE"
	if e.Wakefield != nil && e.Wakefield.Type == domain.TransverseWake {
		etype = "TRWAKE"
	}
	extra := domain.FieldList{
		{Key: "inputfile", Value: quote(env.FieldFile(sim.WakefieldDefinition))},
		{Key: "factor", Value: sim.ScaleKick},
	}
	if sim.TColumn != "" {
		extra = append(extra, domain.Field{Key: "tcolumn", Value: quote(sim.TColumn)})
	}
	if sim.WzColumn != "" {
		extra = append(extra, domain.Field{Key: "wcolumn", Value: quote(sim.WzColumn)})
	}
	if sim.WxColumn != "" {
		extra = append(extra, domain.Field{Key: "wxcolumn", Value: quote(sim.WxColumn)})
	}
	if sim.WyColumn != "" {
		extra = append(extra, domain.Field{Key: "wycolumn", Value: quote(sim.WyColumn)})
	}
	return etype, extra
}

// elegantLine writes "name: TYPE, key = value, ...;". With a positive width
// the line is continued with ",&" before it grows past width characters.
func elegantLine(name, etype string, params []Param, width int) string {
	var whole strings.Builder
	line := name + ": " + etype
	for _, p := range params {
		piece := ", " + p.Key + " = " + formatValue(p.Value, boolNumeric)
		if width > 0 && len(line)+len(piece) > width {
			whole.WriteString(line + ",&\n")
			line = piece[2:]
			continue
		}
		line += piece
	}
	whole.WriteString(line + ";\n")
	return whole.String()
}
