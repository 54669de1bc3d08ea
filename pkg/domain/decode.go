package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/nala/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed element.schema.yaml
var elementSchemaYAML []byte

var elementSchema = sync.OnceValues(func() (schema.Schema, error) {
	var s schema.Schema
	if err := yaml.Unmarshal(elementSchemaYAML, &s); err != nil {
		return nil, fmt.Errorf("element schema: %w", err)
	}
	return s, nil
})

// ElementSchema returns the schema element documents are validated against.
func ElementSchema() (schema.Schema, error) {
	return elementSchema()
}

// ResolveType expands the short diagnostic names (BPM, ICT, ...) and returns
// the registered spelling of a hardware type.
func ResolveType(hardwareType string) string {
	if full, ok := typeAliases[strings.ToUpper(hardwareType)]; ok {
		return full
	}
	return CanonicalType(hardwareType)
}

// typeAliases are the short names accepted for diagnostics.
var typeAliases = map[string]string{
	"BPM": "Beam_Position_Monitor",
	"BAM": "Beam_Arrival_Monitor",
	"BLM": "Bunch_Length_Monitor",
	"WCM": "Wall_Current_Monitor",
	"FCM": "Faraday_Cup_Monitor",
	"ICT": "Integrated_Current_Transformer",
}

// DecodeElement validates a loosely typed element document and decodes it into
// an Element. Validation failures are returned as a *schema.AggregateError.
func DecodeElement(raw map[string]any) (*Element, error) {
	doc := normalize(raw)

	s, err := ElementSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(s, doc); err != nil {
		return nil, err
	}

	hwType, _ := doc["hardware_type"].(string)
	el := NewElement(doc["name"].(string), hwType)
	canonical := el.HardwareType

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			positionHook,
			rotationHook,
			edgeAngleHook,
			multipolesHook,
			fieldDefinitionHook,
		),
		WeaklyTypedInput: true,
		Result:           el,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode element %s: %w", el.Name, err)
	}

	el.HardwareType = canonical
	el.finish()
	return el, nil
}

// NewElement returns an element of the given type with the defaults of its
// kind applied. Decoding overwrites only the keys a document sets.
func NewElement(name, hardwareType string) *Element {
	hardwareType = ResolveType(hardwareType)
	info, _ := LookupType(hardwareType)

	el := &Element{
		Name:          name,
		HardwareClass: info.Class,
		HardwareType:  hardwareType,
		HardwareModel: info.Model,
		Simulation:    &Simulation{FieldReferencePosition: "middle"},
	}
	if el.HardwareModel == "" {
		el.HardwareModel = "Generic"
	}

	sim := el.Simulation
	switch info.Kind {
	case KindMagnet:
		el.Magnetic = &Magnetic{Bore: DefaultBore}
		el.Degauss = &Degauss{}
		sim.NKicks = 4
		sim.Smooth = 2
		sim.EdgeFieldIntegral = 0.5
		sim.IntegrationOrder = 4
		sim.CSRBins = 100
		sim.SREnable = true
		sim.CSREnable = true
		sim.ISREnable = true
		if hardwareType == "TwissMatch" {
			sim.Twiss = &Twiss{}
		}
	case KindDrift:
		sim.CSREnable = true
		sim.LSCEnable = true
		sim.LSCBins = 20
	case KindCavity:
		el.Cavity = &Cavity{}
		sim.LSCBins = 100
	case KindWakefield:
		el.Wakefield = &Wakefield{}
		sim.ScaleKick = 1
		sim.ScaleFieldEz = 1
		sim.ScaleFieldHx = 1
		sim.EqualGrid = 0.66
		sim.InterpolationMethod = 2
		sim.Smooth = 0.25
		sim.Subbins = 10
	case KindAperture:
		el.Aperture = &Aperture{HorizontalSize: 1, VerticalSize: 1}
	case KindPlasma:
		el.Plasma = &Plasma{Species: "electron", RampUp: 0.001, Plateau: 0.001, RampDown: 0.001, RampDecayLength: 0.001}
		sim.BunchPusher = "boris"
		sim.NOut = 1
	case KindLaser:
		el.Laser = &Laser{ProfileType: ProfileGaussian, Flatness: 6}
	case KindDiagnostic:
		el.Diagnostic = &Diagnostic{Type: diagnosticDefaults[hardwareType]}
	}
	return el
}

var diagnosticDefaults = map[string]string{
	"Beam_Position_Monitor": "Stripline",
	"Beam_Arrival_Monitor":  "DESY",
	"Bunch_Length_Monitor":  "CDR",
}

// finish derives the values that depend on more than one field.
func (e *Element) finish() {
	if m := e.Magnetic; m != nil {
		if m.Length == 0 {
			m.Length = e.Physical.Length
		}
		if e.Physical.Length == 0 {
			e.Physical.Length = m.Length
		}
		if m.Angle != 0 {
			e.Physical.Angle = m.Angle
		}
		if m.HalfGap == 0 && m.Gap != 0 {
			m.HalfGap = m.Gap / 2
		}
		if m.Bore == 0 {
			m.Bore = DefaultBore
		}
	}
}

// normalize copies a document into plain string keyed maps and resolves the
// alternative spellings documents use.
func normalize(raw map[string]any) map[string]any {
	doc, _ := plain(raw).(map[string]any)
	if doc == nil {
		doc = map[string]any{}
	}

	if v, ok := doc["name_alias"]; ok {
		if _, set := doc["alias"]; !set {
			doc["alias"] = v
		}
		delete(doc, "name_alias")
	}
	if v, ok := doc["alias"]; ok {
		doc["alias"] = aliases(v)
	}

	if v, ok := doc["subelement"].(string); ok {
		if _, err := strconv.ParseBool(v); err != nil {
			// A subelement may name its parent instead of using a flag.
			doc["subelement"] = true
		}
	}

	if phys, ok := doc["physical"].(map[string]any); ok {
		for _, alt := range []string{"position", "centre"} {
			if v, ok := phys[alt]; ok {
				if _, set := phys["middle"]; !set {
					phys["middle"] = v
				}
				delete(phys, alt)
			}
		}
		for _, key := range []string{"rotation", "global_rotation"} {
			phys[key] = orderRotation(phys[key], "phi", "psi", "theta")
		}
		for _, key := range []string{"error", "survey"} {
			if mis, ok := phys[key].(map[string]any); ok {
				mis["rotation"] = orderRotation(mis["rotation"], "theta", "phi", "psi")
			}
		}
	}

	if mag, ok := doc["magnetic"].(map[string]any); ok {
		for order := 0; order <= 6; order++ {
			key := fmt.Sprintf("k%dl", order)
			v, ok := mag[key]
			if !ok {
				continue
			}
			mp, _ := mag["multipoles"].(map[string]any)
			if mp == nil {
				mp = map[string]any{}
				mag["multipoles"] = mp
			}
			mp[strings.ToUpper(key)] = v
			delete(mag, key)
		}
	}

	if diag, ok := doc["diagnostic"].(map[string]any); ok {
		for _, alt := range []string{"bpm_type", "bam_type", "blm_type"} {
			if v, ok := diag[alt]; ok {
				diag["type"] = v
				delete(diag, alt)
			}
		}
	}
	return doc
}

func plain(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = plain(inner)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = plain(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plain(inner)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}

func aliases(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, a := range strings.Split(val, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
		return out
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, a := range val {
			out = append(out, fmt.Sprint(a))
		}
		return out
	case map[string]any:
		return aliases(val["aliases"])
	default:
		return []string{fmt.Sprint(val)}
	}
}

// orderRotation turns a three element list into a map using the given
// component order. Anything else is returned unchanged.
func orderRotation(v any, names ...string) any {
	list, ok := v.([]any)
	if !ok || len(list) != len(names) {
		return v
	}
	out := make(map[string]any, len(names))
	for i, name := range names {
		out[name] = list[i]
	}
	return out
}

var (
	positionType   = reflect.TypeOf(Position{})
	rotationType   = reflect.TypeOf(Rotation{})
	edgeAngleType  = reflect.TypeOf(EdgeAngle{})
	multipolesType = reflect.TypeOf(Multipoles{})
	fieldDefType   = reflect.TypeOf(FieldDefinition{})
)

func positionHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != positionType {
		return data, nil
	}
	if f, ok := toFloat(data); ok {
		return Position{Z: f}, nil
	}
	list, ok := toFloats(data)
	if !ok {
		return data, nil
	}
	switch len(list) {
	case 1:
		return Position{Z: list[0]}, nil
	case 2:
		return Position{X: list[0], Z: list[1]}, nil
	case 3:
		return Position{X: list[0], Y: list[1], Z: list[2]}, nil
	default:
		return nil, fmt.Errorf("position needs 1 to 3 components, got %d", len(list))
	}
}

func rotationHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != rotationType {
		return data, nil
	}
	if f, ok := toFloat(data); ok {
		return Rotation{Theta: f}, nil
	}
	list, ok := toFloats(data)
	if !ok {
		return data, nil
	}
	if len(list) != 3 {
		return nil, fmt.Errorf("rotation needs 3 components, got %d", len(list))
	}
	return Rotation{Phi: list[0], Psi: list[1], Theta: list[2]}, nil
}

func edgeAngleHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != edgeAngleType {
		return data, nil
	}
	return ParseEdgeAngle(data)
}

func multipolesHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != multipolesType {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	return ParseMultipoles(m)
}

func fieldDefinitionHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != fieldDefType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return map[string]any{"filename": s}, nil
	}
	return data, nil
}

// ParseMultipoles reads multipoles keyed "K{n}L" (or the bare order). Values
// are either the normal strength or a map with normal, skew and radius.
func ParseMultipoles(raw map[string]any) (Multipoles, error) {
	out := make(Multipoles, len(raw))
	for key, v := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		k = strings.TrimSuffix(strings.TrimPrefix(k, "K"), "L")
		order, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("multipole key %q: expected K{n}L", key)
		}
		mp := Multipole{Order: order}
		if f, ok := toFloat(v); ok {
			mp.Normal = f
			out[order] = mp
			continue
		}
		fields, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("multipole %s: expected number or map, got %T", key, v)
		}
		for name, target := range map[string]*float64{"normal": &mp.Normal, "skew": &mp.Skew, "radius": &mp.Radius} {
			if fv, set := fields[name]; set {
				f, ok := toFloat(fv)
				if !ok {
					return nil, fmt.Errorf("multipole %s %s: expected number, got %T", key, name, fv)
				}
				*target = f
			}
		}
		out[order] = mp
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toFloats(v any) ([]float64, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]float64, rv.Len())
	for i := range out {
		f, ok := toFloat(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
