package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "float").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// YAML and JSON decoders may hand whole numbers over as floats.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates numeric values. Integers are accepted.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	if !isNumber(value) {
		return fmt.Errorf("expected float, got %T", value)
	}
	return nil
}

// BoolType validates boolean values. The strings "true" and "false" are
// accepted since element documents often carry them.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	switch v := value.(type) {
	case bool:
		return nil
	case string:
		if _, err := strconv.ParseBool(v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("expected bool, got %T", value)
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// VectorType validates a position-like value: a number (the z component), a
// list of up to three numbers, or a map with x, y and z keys.
type VectorType struct{}

func (t *VectorType) Name() string { return "vector" }

func (t *VectorType) Validate(value any) error {
	if isNumber(value) {
		return nil
	}
	if m, ok := asMap(value); ok {
		for k, v := range m {
			switch k {
			case "x", "y", "z", "phi", "psi", "theta":
			default:
				return fmt.Errorf("unexpected vector component %q", k)
			}
			if !isNumber(v) {
				return fmt.Errorf("component %s: expected number, got %T", k, v)
			}
		}
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected number, list or map, got %T", value)
	}
	if rv.Len() == 0 || rv.Len() > 3 {
		return fmt.Errorf("expected 1 to 3 components, got %d", rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if !isNumber(rv.Index(i).Interface()) {
			return fmt.Errorf("component %d: expected number, got %T", i, rv.Index(i).Interface())
		}
	}
	return nil
}

// EdgeAngleType validates a pole face angle: a number or one of the
// expressions "angle" and "angle/2".
type EdgeAngleType struct{}

func (t *EdgeAngleType) Name() string { return "edge_angle" }

func (t *EdgeAngleType) Validate(value any) error {
	if isNumber(value) {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected number or angle expression, got %T", value)
	}
	switch strings.ReplaceAll(strings.ToLower(s), " ", "") {
	case "angle", "angle/2":
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("unsupported angle expression %q", s)
	}
	return nil
}

// EnumType validates a string against a fixed set of values,
// case-insensitively.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if strings.EqualFold(v, s) {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", s, strings.Join(t.values, ", "))
}

// OptionalType wraps a type whose key may be absent or null.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// NestedType validates a sub-document against its own schema.
type NestedType struct {
	schema Schema
}

func (t *NestedType) Name() string { return "map" }

func (t *NestedType) Validate(value any) error {
	m, ok := asMap(value)
	if !ok {
		return fmt.Errorf("expected map, got %T", value)
	}
	return Validate(t.schema, m)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a numeric type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Vector creates a position or rotation validator.
func Vector() Type { return &VectorType{} }

// EdgeAngle creates a pole face angle validator.
func EdgeAngle() Type { return &EdgeAngleType{} }

// Enum creates a validator restricted to the given values.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Optional marks a field that may be omitted.
func Optional(t Type) Type {
	if _, ok := t.(*OptionalType); ok {
		return t
	}
	return &OptionalType{inner: t}
}

// Nested creates a validator for a sub-document.
func Nested(s Schema) Type { return &NestedType{schema: s} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "string", "int", "float", "bool", "vector", "edge_angle", slices
// such as "[float]", and a trailing "?" for optional fields.
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)
	if strings.HasSuffix(typeStr, "?") {
		inner, err := ParseType(strings.TrimSuffix(typeStr, "?"))
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	if strings.HasPrefix(typeStr, "enum(") && strings.HasSuffix(typeStr, ")") {
		body := typeStr[len("enum(") : len(typeStr)-1]
		return Enum(strings.Split(body, "|")...), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float", "number":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "vector":
		return Vector(), nil
	case "edge_angle":
		return EdgeAngle(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"length": "float", "multipoles": "float?"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

func isNumber(value any) bool {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}
