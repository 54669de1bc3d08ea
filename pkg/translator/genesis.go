package translator

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

type genesisTranslator struct {
	rules *RuleSet
}

func newGenesis() genesisTranslator {
	return genesisTranslator{rules: mustRules(Genesis)}
}

func (genesisTranslator) Code() Code { return Genesis }

// Translate writes Genesis 4 lattice elements and a LINE per section. Beamlines
// of several sections get a LINE of their sections.
func (t genesisTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	written := make(map[string]bool)
	for _, line := range lines {
		for _, s := range line.Sections {
			if written[s.Name] {
				continue
			}
			written[s.Name] = true
			b.WriteString(t.section(s))
		}
		if !line.isSection() {
			fmt.Fprintf(&b, "%s: LINE = {%s};\n\n", line.Name, strings.Join(line.sectionNames(), ", "))
		}
	}
	return b.String(), nil
}

func (t genesisTranslator) section(s *lattice.Section) string {
	var b strings.Builder
	elements := s.CreateDrifts(driftOptions())
	names := make([]string, len(elements))
	for i, e := range elements {
		b.WriteString(t.element(e))
		names[i] = e.Name
	}
	fmt.Fprintf(&b, "%s: LINE = {%s};\n\n", s.Name, strings.Join(names, ", "))
	return b.String()
}

func (t genesisTranslator) element(e *domain.Element) string {
	etype := t.rules.ElementType(e.HardwareType)
	if etype == "MARKER" {
		return fmt.Sprintf("%s: %s = {};\n", e.Name, etype)
	}
	extra := integratedStrengths(e)
	if m := e.Magnetic; m != nil && etype == "UNDULATOR" {
		aw := m.NormalizedStrength()
		if !m.Helical {
			aw *= math.Sqrt2
		}
		extra = append(extra, domain.Field{Key: "aw", Value: aw})
	}
	params := t.rules.Params(e, etype, extra)
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Key + " = " + formatValue(p.Value, boolNumeric)
	}
	return fmt.Sprintf("%s: %s = {%s};\n", e.Name, etype, strings.Join(parts, ", "))
}
