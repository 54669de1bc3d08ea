package schema

import (
	"errors"
	"testing"
)

func TestStringType(t *testing.T) {
	typ := String()

	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "string")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"CLA-S02-MAG-QUAD-01", false},
		{"", false},
		{42, true},
		{3.14, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestIntType(t *testing.T) {
	typ := Int()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{9, false},
		{int64(9), false},
		{uint8(9), false},
		{float64(9), false},
		{float64(9.5), true},
		{"9", true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestFloatType(t *testing.T) {
	typ := Float()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{0.2, false},
		{float32(0.2), false},
		{3, false},
		{"0.2", true},
		{true, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestBoolType(t *testing.T) {
	typ := Bool()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{true, false},
		{"false", false},
		{"maybe", true},
		{1, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestVectorType(t *testing.T) {
	typ := Vector()

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"scalar is z", 3.2, false},
		{"two components", []any{0.1, 3.2}, false},
		{"three components", []any{0.1, 0, 3.2}, false},
		{"float slice", []float64{1, 2, 3}, false},
		{"map", map[string]any{"x": 0.1, "z": 2}, false},
		{"too many components", []any{1, 2, 3, 4}, true},
		{"empty list", []any{}, true},
		{"non numeric component", []any{1, "a"}, true},
		{"unknown key", map[string]any{"w": 1}, true},
		{"string", "3.2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestEdgeAngleType(t *testing.T) {
	typ := EdgeAngle()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{0.05, false},
		{0, false},
		{"angle", false},
		{"Angle / 2", false},
		{"0.1", false},
		{"angle*2", true},
		{[]any{1}, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestEnumType(t *testing.T) {
	typ := Enum("circular", "planar")

	if err := typ.Validate("Circular"); err != nil {
		t.Errorf("Validate(Circular) error = %v", err)
	}
	if err := typ.Validate("hexagonal"); err == nil {
		t.Error("Validate(hexagonal) should fail")
	}
	if typ.Name() != "enum(circular|planar)" {
		t.Errorf("Name() = %q", typ.Name())
	}
}

func TestSliceType(t *testing.T) {
	typ := Slice(Float())

	if typ.Name() != "[float]" {
		t.Errorf("Name() = %q, want [float]", typ.Name())
	}
	if err := typ.Validate([]any{1.0, 2}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := typ.Validate([]any{1.0, "x"}); err == nil {
		t.Error("Validate() should fail on non numeric element")
	}
	if err := typ.Validate(1.0); err == nil {
		t.Error("Validate() should fail on scalar")
	}
}

func TestOptionalType(t *testing.T) {
	typ := Optional(Float())

	if typ.Name() != "float?" {
		t.Errorf("Name() = %q, want float?", typ.Name())
	}
	if err := typ.Validate(nil); err != nil {
		t.Errorf("Validate(nil) error = %v", err)
	}
	if err := typ.Validate("x"); err == nil {
		t.Error("Validate(x) should fail")
	}
	if Optional(typ) != typ {
		t.Error("Optional should not wrap twice")
	}
}

func TestCustomType(t *testing.T) {
	positive := Custom("positive", func(v any) error {
		f, ok := v.(float64)
		if !ok || f <= 0 {
			return errors.New("must be a positive float")
		}
		return nil
	})

	if positive.Name() != "positive" {
		t.Errorf("Name() = %q", positive.Name())
	}
	if err := positive.Validate(0.1); err != nil {
		t.Errorf("Validate(0.1) error = %v", err)
	}
	if err := positive.Validate(-1.0); err == nil {
		t.Error("Validate(-1) should fail")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantErr  bool
		wantName string
	}{
		{"string", false, "string"},
		{"int", false, "int"},
		{"float", false, "float"},
		{"number", false, "float"},
		{"bool", false, "bool"},
		{"vector", false, "vector"},
		{"edge_angle", false, "edge_angle"},
		{"float?", false, "float?"},
		{"[float]", false, "[float]"},
		{"[float]?", false, "[float]?"},
		{"enum(start|middle|end)?", false, "enum(start|middle|end)?"},
		{"invalid", true, ""},
		{"[invalid]", true, ""},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && typ.Name() != tt.wantName {
			t.Errorf("ParseType(%q) Name() = %q, want %q", tt.input, typ.Name(), tt.wantName)
		}
	}
}

func TestParseTypeMap(t *testing.T) {
	s, err := ParseTypeMap(map[string]string{
		"length": "float?",
		"order":  "int",
	})
	if err != nil {
		t.Fatalf("ParseTypeMap() error = %v", err)
	}
	if s["length"].Name() != "float?" || s["order"].Name() != "int" {
		t.Errorf("unexpected schema %v", s)
	}

	if _, err := ParseTypeMap(map[string]string{"length": "metres"}); err == nil {
		t.Fatal("ParseTypeMap() should return error for invalid type")
	}
}
