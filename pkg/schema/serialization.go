package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON serializes the schema as a map of field names to type strings.
// Nested schemas are written as objects.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := s.describe()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of field names to type
// strings or nested objects.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Schema) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.describe()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FromMap builds a schema from decoded JSON or YAML. Values are type strings
// (see ParseType) or nested maps; a nested map may carry the key "?" set to
// true to make the whole sub-document optional.
func FromMap(raw map[string]any) (Schema, error) {
	result := make(Schema, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			t, err := ParseType(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			result[key] = t
		case map[string]any:
			optional, _ := v["?"].(bool)
			delete(v, "?")
			nested, err := FromMap(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			t := Nested(nested)
			if optional {
				t = Optional(t)
			}
			result[key] = t
		default:
			return nil, fmt.Errorf("field %s: expected type string or map, got %T", key, value)
		}
	}
	return result, nil
}

func (s Schema) describe() (map[string]any, error) {
	raw := make(map[string]any, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		optional := false
		if opt, ok := typ.(*OptionalType); ok {
			if nested, isNested := opt.inner.(*NestedType); isNested {
				typ = nested
				optional = true
			}
		}
		if nested, ok := typ.(*NestedType); ok {
			inner, err := nested.schema.describe()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			if optional {
				inner["?"] = true
			}
			raw[key] = inner
			continue
		}
		raw[key] = typ.Name()
	}
	return raw, nil
}
