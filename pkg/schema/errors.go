package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name, dotted for nested documents
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// ValidationErrors returns all validation errors if err wraps an
// AggregateError. Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Prefix returns a copy of err with every field key prefixed by owner, so that
// failures can be attributed to a document. Errors that are not validation
// errors are returned unchanged.
func Prefix(owner string, err error) error {
	errs := ValidationErrors(err)
	if errs == nil {
		return err
	}
	out := make([]error, 0, len(errs))
	for _, inner := range errs {
		var ve *ValidationError
		if errors.As(inner, &ve) {
			out = append(out, &ValidationError{Key: owner + ": " + ve.Key, Reason: ve.Reason, Value: ve.Value})
			continue
		}
		out = append(out, inner)
	}
	return &AggregateError{Errors: out}
}
