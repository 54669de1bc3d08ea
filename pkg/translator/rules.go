package translator

import (
	"embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/nala/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed rules/*.yaml
var rulesFS embed.FS

// RuleSet is the conversion table of one code.
type RuleSet struct {
	// Types maps a hardware type to the code's element name.
	Types map[string]string `yaml:"types"`
	// Default is the element name for types missing from Types. Empty means
	// the hardware type itself.
	Default string `yaml:"default"`
	// Strip lists the prefixes removed from flattened keys before lookup.
	Strip []string `yaml:"strip"`
	// Fallback accepts a stripped key verbatim when the element lists it.
	Fallback bool `yaml:"fallback"`
	// General key rules, overridden by the per type rules.
	General map[string]string `yaml:"general"`
	// Rules are keyed by the lowercased hardware type.
	Rules map[string]map[string]string `yaml:"rules"`
	// Keywords lists the valid keywords of each code element, in the order
	// they are written.
	Keywords map[string][]string `yaml:"keywords"`
	// Defaults are written when an element does not set the keyword.
	Defaults map[string]map[string]any `yaml:"defaults"`
}

var ruleSets sync.Map

// Rules returns the embedded conversion table of a code.
func Rules(code Code) (*RuleSet, error) {
	if rs, ok := ruleSets.Load(code); ok {
		return rs.(*RuleSet), nil
	}
	data, err := rulesFS.ReadFile("rules/" + string(code) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: no rules for %s", ErrUnknownCode, code)
	}
	rs := &RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("rules for %s: %w", code, err)
	}
	if len(rs.Strip) == 0 {
		rs.Strip = []string{""}
	}
	actual, _ := ruleSets.LoadOrStore(code, rs)
	return actual.(*RuleSet), nil
}

func mustRules(code Code) *RuleSet {
	rs, err := Rules(code)
	if err != nil {
		panic(err)
	}
	return rs
}

// ElementType converts a hardware type to the code's element name.
func (rs *RuleSet) ElementType(hardwareType string) string {
	if t, ok := rs.Types[domain.CanonicalType(hardwareType)]; ok {
		return t
	}
	if rs.Default != "" {
		return rs.Default
	}
	return hardwareType
}

// Accepts reports whether the code element takes the keyword.
func (rs *RuleSet) Accepts(etype, keyword string) bool {
	return slices.Contains(rs.Keywords[etype], keyword)
}

// Keyword converts a flattened element key to the code's keyword. Each
// prefix in Strip is removed in turn and the first rule that matches wins;
// with Fallback the stripped key itself is accepted when the element lists
// it. Otherwise the key is returned unchanged.
func (rs *RuleSet) Keyword(hardwareType, etype, key string) string {
	rules := rs.rulesFor(hardwareType)
	for _, strip := range rs.Strip {
		stripped := key
		if strip != "" {
			stripped = strings.ReplaceAll(key, strip, "")
		}
		if kw, ok := rules[stripped]; ok {
			return kw
		}
		if rs.Fallback && rs.Accepts(etype, stripped) {
			return stripped
		}
	}
	return key
}

func (rs *RuleSet) rulesFor(hardwareType string) map[string]string {
	specific, ok := rs.Rules[strings.ToLower(hardwareType)]
	if !ok {
		return rs.General
	}
	merged := maps.Clone(rs.General)
	if merged == nil {
		merged = map[string]string{}
	}
	maps.Copy(merged, specific)
	return merged
}

// Param is one converted keyword and its value.
type Param struct {
	Key   string
	Value any
}

// Params converts an element to the keywords of the code element etype, in
// the element's keyword order. Values in extra take precedence over the
// element's own fields, and their keys are used as is when etype accepts them.
func (rs *RuleSet) Params(e *domain.Element, etype string, extra domain.FieldList) []Param {
	values := make(map[string]any)
	add := func(fields domain.FieldList, direct bool) {
		for _, f := range fields {
			if f.Value == nil {
				continue
			}
			if s, ok := f.Value.(string); ok && s == "" {
				continue
			}
			kw := f.Key
			if !direct || !rs.Accepts(etype, kw) {
				kw = rs.Keyword(e.HardwareType, etype, f.Key)
			}
			if !rs.Accepts(etype, kw) {
				continue
			}
			if _, seen := values[kw]; seen {
				continue
			}
			values[kw] = substituteAngle(e, f.Value)
		}
	}
	add(extra, true)
	add(computedFields(e), false)
	add(elementFields(e), false)

	out := make([]Param, 0, len(values))
	for _, kw := range rs.Keywords[etype] {
		if v, ok := values[kw]; ok {
			out = append(out, Param{Key: kw, Value: v})
		} else if v, ok := rs.Defaults[etype][kw]; ok {
			out = append(out, Param{Key: kw, Value: v})
		}
	}
	return out
}

// elementFields flattens the element without the identification and raw
// placement keys, which are replaced by the computed fields.
func elementFields(e *domain.Element) domain.FieldList {
	var out domain.FieldList
	for _, f := range e.Fields() {
		switch {
		case strings.HasPrefix(f.Key, "physical_"),
			f.Key == "name", f.Key == "hardware_type", f.Key == "hardware_class",
			f.Key == "hardware_model", f.Key == "machine_area":
			continue
		}
		out = append(out, f)
	}
	return out
}

// computedFields are the derived quantities every code can refer to.
func computedFields(e *domain.Element) domain.FieldList {
	p := e.Physical
	out := domain.FieldList{
		{Key: "length", Value: e.Length()},
		{Key: "dx", Value: p.Error.Position.X},
		{Key: "dy", Value: p.Error.Position.Y},
		{Key: "dz", Value: p.Error.Position.Z},
		{Key: "x_rot", Value: p.Rotation.Theta},
		{Key: "y_rot", Value: p.Rotation.Phi},
		{Key: "z_rot", Value: p.Rotation.Psi},
		{Key: "dx_rot", Value: p.Error.Rotation.Theta},
		{Key: "dy_rot", Value: p.Error.Rotation.Phi},
		{Key: "dz_rot", Value: p.Error.Rotation.Psi},
	}
	if m := e.Magnetic; m != nil {
		out = append(out,
			domain.Field{Key: "angle", Value: m.Angle},
			domain.Field{Key: "e1", Value: m.E1()},
			domain.Field{Key: "e2", Value: m.E2()},
		)
		for n := 1; n <= 6; n++ {
			out = append(out, domain.Field{Key: fmt.Sprintf("k%dl", n), Value: m.KnL(n)})
		}
		for n := 1; n <= 6; n++ {
			out = append(out, domain.Field{Key: fmt.Sprintf("k%d", n), Value: m.Kn(n)})
		}
	}
	return out
}

// integratedStrengths returns k1..k6 set to the integrated KnL values, for
// codes whose k keywords take the integrated strength.
func integratedStrengths(e *domain.Element) domain.FieldList {
	if e.Magnetic == nil {
		return nil
	}
	var out domain.FieldList
	for n := 1; n <= 6; n++ {
		out = append(out, domain.Field{Key: fmt.Sprintf("k%d", n), Value: e.Magnetic.KnL(n)})
	}
	return out
}

func substituteAngle(e *domain.Element, v any) any {
	s, ok := v.(string)
	if !ok || e.Magnetic == nil {
		return v
	}
	switch strings.ReplaceAll(strings.ToLower(s), " ", "") {
	case "angle":
		return e.Magnetic.Angle
	case "angle/2":
		return e.Magnetic.Angle / 2
	}
	return v
}
