package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func (e EdgeAngle) value() any {
	if e.Expr != "" {
		return e.Expr
	}
	return e.Value
}

// MarshalJSON writes the expression as a string and plain angles as numbers.
func (e EdgeAngle) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.value())
}

// UnmarshalJSON accepts a number or an angle expression.
func (e *EdgeAngle) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseEdgeAngle(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e EdgeAngle) MarshalYAML() (any, error) {
	return e.value(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *EdgeAngle) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseEdgeAngle(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (m Multipoles) keyed() map[string]Multipole {
	out := make(map[string]Multipole, len(m))
	for order, mp := range m {
		out[fmt.Sprintf("K%dL", order)] = mp
	}
	return out
}

// MarshalJSON keys the multipoles as K{n}L.
func (m Multipoles) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.keyed())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Multipoles) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMultipoles(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Multipoles) MarshalYAML() (any, error) {
	return m.keyed(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Multipoles) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseMultipoles(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
