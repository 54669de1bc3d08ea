package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/ports"
)

// ElementLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ElementLoader.
// want maps every element name the backend holds to its hardware type.
func ElementLoaderContractTest(t *testing.T, loader ports.ElementLoader, want map[string]string) {
	t.Helper()
	ctx := context.Background()

	// 1. Every element is decoded
	t.Run("LoadElements", func(t *testing.T) {
		elements, err := loader.LoadElements(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading elements: %v", err)
		}
		if len(elements) != len(want) {
			t.Errorf("expected %d elements, got %d", len(want), len(elements))
		}
		for _, e := range elements {
			hwType, ok := want[e.Name]
			if !ok {
				t.Errorf("unexpected element %s", e.Name)
				continue
			}
			if e.HardwareType != hwType {
				t.Errorf("type mismatch for %s. got %q, want %q", e.Name, e.HardwareType, hwType)
			}
			if e.Simulation == nil {
				t.Errorf("element %s was not normalized", e.Name)
			}
		}
	})

	// 2. The config builds a model holding every element
	t.Run("LoadConfig", func(t *testing.T) {
		layouts, sections, err := loader.LoadConfig(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading config: %v", err)
		}
		elements, err := loader.LoadElements(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading elements: %v", err)
		}
		model := lattice.NewModel(elements, lattice.WithLayouts(layouts), lattice.WithSections(sections))
		for name := range want {
			if _, err := model.GetElement(name); err != nil {
				t.Errorf("element %s missing from model: %v", name, err)
			}
		}
		if _, err := model.GetElement("non-existent-element"); err == nil {
			t.Error("expected error for non-existent element, got nil")
		} else if !errors.Is(err, domain.ErrElementNotFound) {
			t.Errorf("expected a not found error, got %v", err)
		}
	})
}
