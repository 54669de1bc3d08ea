package schema

import (
	"errors"
	"sort"
)

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "length": Optional(Float()), "middle": Vector()}
type Schema map[string]Type

// Keys returns the field names in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema.
// Fields are visited in lexical order so that error lists are stable. Fields
// wrapped in Optional may be missing; all others are required. Errors from
// nested schemas are reported with dotted keys.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, fieldName := range schema.Keys() {
		errs = append(errs, validateField(schema[fieldName], fieldName, data)...)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error unless optional.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error
	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}
		errs = append(errs, validateField(fieldType, fieldName, data)...)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateField(fieldType Type, fieldName string, data map[string]any) []error {
	value, exists := data[fieldName]
	_, optional := fieldType.(*OptionalType)
	if !exists || value == nil {
		if optional {
			return nil
		}
		return []error{&ValidationError{Key: fieldName, Reason: "required"}}
	}

	err := fieldType.Validate(value)
	if err == nil {
		return nil
	}

	// Flatten nested failures into dotted keys.
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		out := make([]error, 0, len(aggr.Errors))
		for _, inner := range aggr.Errors {
			var ve *ValidationError
			if errors.As(inner, &ve) {
				out = append(out, &ValidationError{
					Key:    fieldName + "." + ve.Key,
					Reason: ve.Reason,
					Value:  ve.Value,
				})
				continue
			}
			out = append(out, inner)
		}
		return out
	}

	return []error{&ValidationError{Key: fieldName, Reason: err.Error(), Value: value}}
}
