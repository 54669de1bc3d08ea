package domain

import (
	"errors"
	"fmt"
)

// ErrElementNotFound is returned when an element name cannot be resolved.
var ErrElementNotFound = errors.New("element not found")

// ErrSectionNotFound is returned when a section name cannot be resolved.
var ErrSectionNotFound = errors.New("section not found")

// ErrLayoutNotFound is returned when a layout (beam path) cannot be resolved.
var ErrLayoutNotFound = errors.New("layout not found")

// LatticeError describes a failed lookup in a lattice container.
type LatticeError struct {
	// Scope is where the lookup happened, e.g. "along the beam path".
	Scope string
	Name  string
	Err   error
}

func (e *LatticeError) Error() string {
	what := "Element"
	switch {
	case errors.Is(e.Err, ErrSectionNotFound):
		what = "Section"
	case errors.Is(e.Err, ErrLayoutNotFound):
		what = "Layout"
	}
	return fmt.Sprintf("%s %s does not exist %s", what, e.Name, e.Scope)
}

func (e *LatticeError) Unwrap() error { return e.Err }

// NotFound builds a LatticeError for a missing element.
func NotFound(name, scope string) error {
	return &LatticeError{Scope: scope, Name: name, Err: ErrElementNotFound}
}
