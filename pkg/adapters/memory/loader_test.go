package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/nala/pkg/adapters/memory"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	contract "github.com/aretw0/nala/pkg/ports/tests"
	"github.com/aretw0/nala/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	docs := map[string]map[string]any{
		"Q1": {
			"hardware_type": "Quadrupole",
			"machine_area":  "S01",
			"physical":      map[string]any{"middle": []any{0.0, 0.0, 1.0}, "length": 0.2},
			"magnetic":      map[string]any{"k1l": 0.3},
		},
		"BPM1": {
			"hardware_type": "BPM",
			"machine_area":  "S01",
			"physical":      map[string]any{"middle": []any{0.0, 0.0, 1.5}},
		},
	}

	loader := memory.NewLoader(docs, memory.WithLayouts(lattice.LayoutConfig{
		Layouts: map[string][]string{"line": {"S01"}},
	}))

	contract.ElementLoaderContractTest(t, loader, map[string]string{
		"Q1":   "Quadrupole",
		"BPM1": "Beam_Position_Monitor",
	})
}

func TestNewFromElements(t *testing.T) {
	q := domain.NewElement("Q1", "Quadrupole")
	q.MachineArea = "S01"
	q.Physical.Middle = domain.Position{Z: 1}
	q.Physical.Length = 0.2
	q.Magnetic.SetKnL(1, 0.3)

	loader, err := memory.NewFromElements([]*domain.Element{q})
	require.NoError(t, err)

	elements, err := loader.LoadElements(context.Background())
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "Q1", elements[0].Name)
	assert.InDelta(t, 0.3, elements[0].Magnetic.KnL(1), 1e-12)
	assert.InDelta(t, 0.2, elements[0].Magnetic.Length, 1e-12)

	_, err = memory.NewFromElements([]*domain.Element{{HardwareType: "Drift"}})
	assert.Error(t, err)
}

func TestLoader_InvalidDocument(t *testing.T) {
	loader := memory.NewLoader(map[string]map[string]any{
		"BAD": {"hardware_type": "Quadrupole", "physical": map[string]any{"length": "long"}},
	})

	_, err := loader.LoadElements(context.Background())
	require.Error(t, err)
	errs := schema.ValidationErrors(err)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "BAD")
}
