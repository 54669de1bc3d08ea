package nala_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/nala"
	"github.com/aretw0/nala/pkg/adapters/memory"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

// ExampleNew_memory builds a machine from elements created in code instead
// of YAML documents on disk.
func ExampleNew_memory() {
	quad := domain.NewElement("Q1", "Quadrupole")
	quad.MachineArea = "S01"
	quad.Physical.Middle = domain.Position{Z: 1.0}
	quad.Physical.Length = 0.2
	quad.Magnetic.Length = 0.2
	quad.Magnetic.SetKnL(1, 0.3)

	screen := domain.NewElement("SCR1", "Screen")
	screen.MachineArea = "S02"
	screen.Physical.Middle = domain.Position{Z: 3.0}

	loader, err := memory.NewFromElements([]*domain.Element{quad, screen},
		memory.WithLayouts(lattice.LayoutConfig{
			Layouts: map[string][]string{"line": {"S01", "S02"}},
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Path is empty because the loader is provided.
	machine, err := nala.New("", nala.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	names, err := machine.Model().ElementsBetween(lattice.Span{Path: "line"}, lattice.Filter{})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(names)

	deck, err := machine.Export(context.Background(), "elegant", nala.Target{Layout: "line"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(deck.Code, deck.Target)

	// Output:
	// [Q1 SCR1]
	// elegant line
}
