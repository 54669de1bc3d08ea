package translator

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

const opalBreak = "//----------------------------------------------------------------------------"

// electronMassMeV is the electron rest energy in MeV.
const electronMassMeV = 0.51099895

type opalTranslator struct {
	rules *RuleSet
}

func newOpal() opalTranslator {
	return opalTranslator{rules: mustRules(Opal)}
}

func (opalTranslator) Code() Code { return Opal }

// Translate writes an OPAL-t input per beamline: the option, distribution,
// field solver and beam blocks, the elements placed by ELEMEDGE, the LINE
// and the TRACK and RUN commands.
func (t opalTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		if len(lines) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "// %s\n", line.Name)
		}
		b.WriteString(t.beamline(line, env))
	}
	return b.String(), nil
}

func opalName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func (t opalTranslator) beamline(line Beamline, env *Env) string {
	var b strings.Builder
	b.WriteString(opalOptions(env))
	b.WriteString(opalBlock("DIST", "DISTRIBUTION", []Param{
		{"TYPE", "FROMFILE"},
		{"FNAME", quote(env.ParticleFile)},
	}))
	b.WriteString(opalFieldSolver(env))
	b.WriteString(opalBlock("BEAM1", "BEAM", []Param{
		{"PARTICLE", "ELECTRON"},
		{"PC", env.Momentum / 1e9},
		{"NPART", env.NumParticles},
		{"CHARGE", -1},
		{"BFREQ", 1},
		{"BCURRENT", math.Abs(env.Charge) * 1e6},
	}))

	energy := opalDesignEnergy(env.Momentum)
	s := 0.0
	var names []string
	zstop := 0.0
	for _, sec := range line.Sections {
		for _, e := range sec.CreateDrifts(driftOptions()) {
			if text := t.element(e, env, s, energy); text != "" {
				b.WriteString(text)
				names = append(names, opalName(e.Name))
			}
			s += e.Length()
			zstop = e.End().Z
		}
	}
	name := opalName(line.Name)
	fmt.Fprintf(&b, "%s: LINE = (%s);\n", name, strings.Join(names, ", "))

	b.WriteString(opalBlock("TRACK", "", []Param{
		{"LINE", name},
		{"BEAM", "BEAM1"},
		{"DT", 1e-12},
		{"ZSTOP", "{" + formatFloat(zstop+0.1) + "}"},
	}))
	b.WriteString(opalBlock("RUN", "", []Param{
		{"METHOD", quote("PARALLEL-T")},
		{"FIELDSOLVER", "FS"},
		{"DISTRIBUTION", "DIST"},
		{"BEAM", "BEAM1"},
		{"TURNS", 1},
	}))
	b.WriteString("ENDTRACK;\n")
	return b.String()
}

// opalBlock writes "HEADER: TYPE," followed by one tab indented key per line.
func opalBlock(header, objectType string, params []Param) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n// %s\n", opalBreak, header)
	if objectType != "" {
		fmt.Fprintf(&b, "%s: %s, \n", header, objectType)
	} else {
		fmt.Fprintf(&b, "%s, \n", header)
	}
	for _, p := range params {
		fmt.Fprintf(&b, "\t%s = %s,\n", p.Key, formatValue(p.Value, boolUpper))
	}
	out := b.String()
	return out[:len(out)-2] + ";\n"
}

func opalOptions(env *Env) string {
	autophase := 0
	if env.AutoPhase {
		autophase = 6
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n// OPTION\n", opalBreak)
	for _, p := range []Param{
		{"VERSION", "202210"},
		{"AUTOPHASE", autophase},
		{"ASCIIDUMP", false},
		{"CSRDUMP", false},
	} {
		fmt.Fprintf(&b, "OPTION, %s = %s;\n", p.Key, formatValue(p.Value, boolUpper))
	}
	return b.String()
}

func opalFieldSolver(env *Env) string {
	mode := strings.ToUpper(env.SpaceCharge)
	fstype := "FFT"
	if mode == "" || mode == "FALSE" || mode == "NONE" {
		fstype = "NONE"
	}
	grid := gridSize(float64(env.NumParticles) / float64(max(env.SampleInterval, 1)))
	return opalBlock("FS", "FIELDSOLVER", []Param{
		{"FSTYPE", fstype},
		{"PARFFTX", true},
		{"PARFFTY", true},
		{"PARFFTT", true},
		{"MX", grid},
		{"MY", grid},
		{"MT", grid},
		{"BCFFTX", "open"},
		{"BCFFTY", "open"},
		{"BCFFTZ", "open"},
		{"GREENSF", "Integrated"},
	})
}

// opalDesignEnergy is the kinetic energy in MeV of an electron with the
// given momentum in eV/c.
func opalDesignEnergy(momentum float64) float64 {
	p := momentum / 1e6
	return math.Sqrt(p*p+electronMassMeV*electronMassMeV) - electronMassMeV
}

func (t opalTranslator) element(e *domain.Element, env *Env, s, energy float64) string {
	etype := t.rules.ElementType(e.HardwareType)
	if etype == "drift" || e.IsDrift() {
		return ""
	}
	var extra domain.FieldList
	var tail []string
	switch e.Kind() {
	case domain.KindMagnet:
		extra = integratedStrengths(e)
		m := e.Magnetic
		switch {
		case e.Is("Dipole"):
			if e.Length() == 0 || m == nil || m.Angle == 0 {
				return ""
			}
			if m.EntranceEdgeAngle == m.ExitEdgeAngle {
				etype = "sbend"
			}
			tail = append(tail,
				"DESIGNENERGY = "+formatFloat(energy),
				"ELEMEDGE = "+formatFloat(s),
				`FMAPFN = "1DPROFILE1-DEFAULT"`)
			return opalLine(e.Name, etype, t.rules.Params(e, etype, extra), tail)
		case e.Is("Solenoid"):
			sim := e.Simulation
			if m != nil && m.Length != 0 {
				extra = append(extra, domain.Field{Key: "ks", Value: m.FieldAmplitude / m.Length})
			}
			if sim != nil && !sim.FieldDefinition.IsZero() {
				extra = append(extra, domain.Field{Key: "fmapfn", Value: quote(env.FieldFile(sim.FieldDefinition))})
			}
		}
	case domain.KindCavity:
		sim, cav := e.Simulation, e.Cavity
		if sim == nil || cav == nil || sim.FieldDefinition.IsZero() {
			return ""
		}
		if cav.IsTravellingWave() {
			etype = "travelingwave"
		}
		amplitude := sim.FieldAmplitude
		if amplitude == 0 {
			amplitude = cav.FieldAmplitude
		}
		extra = domain.FieldList{
			{Key: "volt", Value: amplitude / 1e6},
			{Key: "freq", Value: cav.Frequency / 1e6},
			{Key: "lag", Value: -cav.Phase * math.Pi / 180},
			{Key: "fmapfn", Value: quote(env.FieldFile(sim.FieldDefinition))},
		}
		if cav.IsTravellingWave() {
			extra = append(extra,
				domain.Field{Key: "numcells", Value: cav.Cells(e.Length())},
				domain.Field{Key: "mode", Value: cav.Mode()},
			)
		}
	}
	if etype == "monitor" {
		tail = append(tail, fmt.Sprintf("OUTFN = \"%s_opal\"", e.Name))
	}
	tail = append(tail, "ELEMEDGE = "+formatFloat(s))
	return opalLine(e.Name, etype, t.rules.Params(e, etype, extra), tail)
}

func opalLine(name, etype string, params []Param, tail []string) string {
	var b strings.Builder
	b.WriteString(opalName(name) + ": " + etype)
	for _, p := range params {
		b.WriteString(", " + p.Key + " = " + formatValue(p.Value, boolUpper))
	}
	for _, s := range tail {
		b.WriteString(", " + s)
	}
	b.WriteString(";\n")
	return b.String()
}
